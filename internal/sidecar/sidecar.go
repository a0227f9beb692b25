// Package sidecar reads and writes digest files stored next to the content
// they describe.
package sidecar

import (
	"bufio"
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"hashwriter/internal/hash"
	"hashwriter/internal/hashwriter"
	"hashwriter/internal/sink"
)

// Ext is appended to a target path to name its sidecar.
const Ext = ".digest"

// ErrMalformed is returned for sidecar contents that cannot be parsed.
var ErrMalformed = errors.New("malformed sidecar")

// Entry is one digest line: "<algorithm>:<hex>  <name>".
type Entry struct {
	Algorithm hash.Algorithm
	Sum       []byte
	Name      string
}

// Path returns the sidecar path for target.
func Path(target string) string { return target + Ext }

// String formats e as a sidecar line without the trailing newline.
func (e Entry) String() string {
	return hash.Format(e.Algorithm, e.Sum).String() + "  " + e.Name
}

// Parse decodes a single sidecar line.
func Parse(line string) (Entry, error) {
	line = strings.TrimRight(line, "\r\n")
	d, name, ok := strings.Cut(line, "  ")
	if !ok || name == "" {
		return Entry{}, fmt.Errorf("missing name in %q: %w", line, ErrMalformed)
	}
	alg, sum, err := hash.ParseDigest(d)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %w", err, ErrMalformed)
	}
	return Entry{Algorithm: alg, Sum: sum, Name: name}, nil
}

// Read loads the entry stored at path.
func Read(fs afero.Fs, path string) (Entry, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Entry{}, fmt.Errorf("read sidecar: %w", err)
	}
	line, err := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Entry{}, fmt.Errorf("read sidecar line: %w", err)
	}
	return Parse(line)
}

// Write stores e at path atomically.
func Write(fs afero.Fs, path string, e Entry) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sidecar directory: %w", err)
	}
	tmp, err := afero.TempFile(fs, dir, ".hashwriter-*.tmp")
	if err != nil {
		return fmt.Errorf("create sidecar temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = fs.Remove(tmpName) }()
	if _, err := io.WriteString(tmp, e.String()+"\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write sidecar temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync sidecar temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close sidecar temp file: %w", err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename sidecar temp file: %w", err)
	}
	return nil
}

// Result is the outcome of Verify.
type Result struct {
	Entry  Entry
	Actual []byte
	OK     bool
}

// Verify rehashes target with the algorithm recorded in its sidecar.
func Verify(fs afero.Fs, target string) (Result, error) {
	entry, err := Read(fs, Path(target))
	if err != nil {
		return Result{}, err
	}
	h, err := entry.Algorithm.New()
	if err != nil {
		return Result{}, err
	}
	f, err := fs.Open(target)
	if err != nil {
		return Result{}, fmt.Errorf("open file for verify: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := hashwriter.New(h, sink.Discard())
	if _, err := io.Copy(w, f); err != nil {
		return Result{}, fmt.Errorf("hash file for verify: %w", err)
	}
	actual, _, err := w.Finalize()
	if err != nil {
		return Result{}, err
	}
	ok := subtle.ConstantTimeCompare(entry.Sum, actual) == 1
	return Result{Entry: entry, Actual: actual, OK: ok}, nil
}
