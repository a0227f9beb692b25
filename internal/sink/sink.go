// Package sink adapts byte destinations to the flushable sink used by
// hashwriter.
package sink

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"hashwriter/internal/hashwriter"
)

// ErrCapacity is returned by Limited when a write does not fit.
var ErrCapacity = errors.New("sink capacity exceeded")

var (
	_ hashwriter.Sink = nopFlusher{}
	_ hashwriter.Sink = (*Limited)(nil)
	_ hashwriter.Sink = (*File)(nil)
	_ hashwriter.Sink = (*bufferedSink)(nil)
)

type nopFlusher struct {
	io.Writer
}

func (nopFlusher) Flush() error { return nil }

// FromWriter returns w as a Sink. Writers that already flush are returned
// unchanged; others get a no-op Flush.
func FromWriter(w io.Writer) hashwriter.Sink {
	if s, ok := w.(hashwriter.Sink); ok {
		return s
	}
	return nopFlusher{w}
}

// Discard returns a sink that accepts and drops everything.
func Discard() hashwriter.Sink { return nopFlusher{io.Discard} }

// Limited is an in-memory sink holding at most a fixed number of bytes.
type Limited struct {
	buf   bytes.Buffer
	limit int
}

// NewLimited creates a Limited sink with the given capacity.
func NewLimited(limit int) *Limited {
	return &Limited{limit: limit}
}

// Write stores the prefix of p that fits. When p does not fit entirely the
// stored prefix length is returned together with ErrCapacity.
func (l *Limited) Write(p []byte) (int, error) {
	room := l.limit - l.buf.Len()
	if room >= len(p) {
		return l.buf.Write(p)
	}
	if room < 0 {
		room = 0
	}
	n, _ := l.buf.Write(p[:room])
	return n, fmt.Errorf("write %d bytes with %d free: %w", len(p), room, ErrCapacity)
}

// Flush is a no-op.
func (l *Limited) Flush() error { return nil }

// Bytes returns the stored bytes.
func (l *Limited) Bytes() []byte { return l.buf.Bytes() }

// Len returns the number of stored bytes.
func (l *Limited) Len() int { return l.buf.Len() }

// Cap returns the capacity.
func (l *Limited) Cap() int { return l.limit }

// File is a sink backed by a file on an afero filesystem. Flush syncs the file
// to stable storage.
type File struct {
	f afero.File
}

// Create opens path for writing on fs. Without overwrite an existing file is
// an error.
func Create(fs afero.Fs, path string, overwrite bool) (*File, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !overwrite {
		flags = os.O_CREATE | os.O_WRONLY | os.O_EXCL
	}
	f, err := fs.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open sink file %s: %w", path, err)
	}
	return &File{f: f}, nil
}

// Write writes p to the file.
func (f *File) Write(p []byte) (int, error) { return f.f.Write(p) }

// Flush syncs the file.
func (f *File) Flush() error { return f.f.Sync() }

// Close closes the file.
func (f *File) Close() error { return f.f.Close() }

// Name returns the file name.
func (f *File) Name() string { return f.f.Name() }

type bufferedSink struct {
	*bufio.Writer
	inner hashwriter.Sink
}

// Buffered puts a buffer of the given size in front of s. Flush drains the
// buffer and then flushes s.
func Buffered(s hashwriter.Sink, size int) hashwriter.Sink {
	return &bufferedSink{Writer: bufio.NewWriterSize(s, size), inner: s}
}

func (b *bufferedSink) Flush() error {
	if err := b.Writer.Flush(); err != nil {
		return err
	}
	return b.inner.Flush()
}
