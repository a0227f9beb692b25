package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	apperrors "hashwriter/internal/errors"
	"hashwriter/internal/hash"
	"hashwriter/internal/sidecar"
)

type harness struct {
	fs     afero.Fs
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{fs: afero.NewMemMapFs(), out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
}

func (h *harness) run(stdin string, args ...string) error {
	h.out.Reset()
	h.errOut.Reset()
	root := NewRootCommand(h.out, h.errOut, strings.NewReader(stdin), WithFs(h.fs))
	root.SetArgs(args)
	return root.Execute()
}

func (h *harness) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(h.fs, path, []byte(content), 0o644))
}

func digestOf(t *testing.T, a hash.Algorithm, content string) string {
	t.Helper()
	sum, err := hash.SumBytes(a, []byte(content))
	require.NoError(t, err)
	return hash.Format(a, sum).String()
}

func TestRootCommandIncludesRequiredSubcommands(t *testing.T) {
	buf := &bytes.Buffer{}
	root := NewRootCommand(buf, buf, strings.NewReader(""))

	names := map[string]bool{}
	for _, command := range root.Commands() {
		names[command.Name()] = true
	}
	for _, required := range []string{"version", "sum", "copy", "verify", "algorithms"} {
		if !names[required] {
			t.Fatalf("expected root command to include %q subcommand", required)
		}
	}
}

func TestRootCommandHelpReturnsZero(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("", "--help"))
	out := h.out.String()
	for _, name := range []string{"sum", "copy", "verify", "algorithms", "version"} {
		require.Contains(t, out, name)
	}
}

func TestCopyHelpIncludesFlags(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("", "copy", "--help"))
	for _, token := range []string{"--overwrite", "--sidecar", "--progress", "--accepted-only", "--algorithm"} {
		require.Contains(t, h.out.String(), token)
	}
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	h := newHarness(t)
	err := h.run("", "frobnicate")
	require.True(t, errors.Is(err, apperrors.ErrUsage))
}

func TestSumFilesAndStdin(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/one", "first")
	h.write(t, "/two", "second")

	require.NoError(t, h.run("", "sum", "/one", "/two"))
	want := digestOf(t, hash.BLAKE3, "first") + "  /one\n" + digestOf(t, hash.BLAKE3, "second") + "  /two\n"
	require.Equal(t, want, h.out.String())

	require.NoError(t, h.run("piped", "sum", "-a", "sha256"))
	require.Equal(t, digestOf(t, hash.SHA256, "piped")+"  -\n", h.out.String())
}

func TestSumContinuesPastMissingFiles(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/present", "x")

	err := h.run("", "sum", "/absent", "/present")
	require.Error(t, err)
	require.True(t, errors.Is(err, apperrors.ErrIO))
	require.Contains(t, h.out.String(), "  /present\n")
	require.Contains(t, h.errOut.String(), "sum failed")
}

func TestCopyWritesDestinationSidecarAndDigest(t *testing.T) {
	h := newHarness(t)
	content := strings.Repeat("0123456789abcdef", 10000)
	h.write(t, "/src.bin", content)

	require.NoError(t, h.run("", "copy", "--sidecar", "--buffer-size", "512", "-a", "sha3-256", "/src.bin", "/out/dst.bin"))

	got, err := afero.ReadFile(h.fs, "/out/dst.bin")
	require.NoError(t, err)
	require.Equal(t, content, string(got))

	want := digestOf(t, hash.SHA3_256, content)
	require.Equal(t, want+"  /out/dst.bin\n", h.out.String())

	entry, err := sidecar.Read(h.fs, "/out/dst.bin"+sidecar.Ext)
	require.NoError(t, err)
	require.Equal(t, hash.SHA3_256, entry.Algorithm)
	require.Equal(t, "dst.bin", entry.Name)

	require.NoError(t, h.run("", "verify", "/out/dst.bin"))
	require.Equal(t, "/out/dst.bin: OK\n", h.out.String())
}

func TestCopyRefusesExistingDestination(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/src", "new")
	h.write(t, "/dst", "old")

	err := h.run("", "copy", "/src", "/dst")
	require.True(t, errors.Is(err, apperrors.ErrIO))
	got, readErr := afero.ReadFile(h.fs, "/dst")
	require.NoError(t, readErr)
	require.Equal(t, "old", string(got))

	require.NoError(t, h.run("", "copy", "--overwrite", "--progress", "/src", "/dst"))
	got, readErr = afero.ReadFile(h.fs, "/dst")
	require.NoError(t, readErr)
	require.Equal(t, "new", string(got))
	require.Contains(t, h.errOut.String(), "copying complete")
}

func TestCopyVerboseLogsPolicy(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/src", "abc")
	require.NoError(t, h.run("", "copy", "--verbosity", "debug", "--accepted-only", "/src", "/dst"))
	require.Contains(t, h.errOut.String(), "policy=accepted")
	require.Contains(t, h.errOut.String(), "hashed=3")
}

func TestVerifyDetectsTampering(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/f", "original")
	require.NoError(t, h.run("", "copy", "--sidecar", "/f", "/g"))
	h.write(t, "/g", "modified")

	err := h.run("", "verify", "/g")
	require.True(t, errors.Is(err, apperrors.ErrIntegrity))
	require.Equal(t, "/g: FAILED\n", h.out.String())

	err = h.run("", "verify", "/f")
	require.True(t, errors.Is(err, apperrors.ErrIO))
}

func TestAlgorithmsMarksConfigured(t *testing.T) {
	h := newHarness(t)
	t.Setenv("HASHWRITER_ALGORITHM", "xxh64")
	require.NoError(t, h.run("", "algorithms"))
	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, len(hash.Algorithms()))
	for _, line := range lines {
		if strings.HasPrefix(line, "xxh64") {
			require.True(t, strings.HasSuffix(line, " *"), line)
		} else {
			require.False(t, strings.HasSuffix(line, " *"), line)
		}
	}
}

func TestCopyOntoItselfIsRejected(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/a", "precious")

	for _, dst := range []string{"/a", "/./a", "//a"} {
		err := h.run("", "copy", "--overwrite", "/a", dst)
		require.True(t, errors.Is(err, apperrors.ErrUsage), "dst %q: %v", dst, err)
		got, readErr := afero.ReadFile(h.fs, "/a")
		require.NoError(t, readErr)
		require.Equal(t, "precious", string(got))
	}
}

func TestCopyOntoItselfOnDisk(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(src, []byte("precious"), 0o644))
	link := filepath.Join(dir, "b")
	if err := os.Symlink(src, link); err != nil {
		t.Skipf("symlink unsupported: %v", err)
	}

	root := NewRootCommand(&bytes.Buffer{}, &bytes.Buffer{}, strings.NewReader(""))
	root.SetArgs([]string{"copy", "--overwrite", src, link})
	err := root.Execute()
	require.True(t, errors.Is(err, apperrors.ErrUsage), "%v", err)
	got, readErr := os.ReadFile(src)
	require.NoError(t, readErr)
	require.Equal(t, "precious", string(got))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func TestCopyKeepsDestinationWhenOutputFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src", []byte("data"), 0o644))

	root := NewRootCommand(failingWriter{}, &bytes.Buffer{}, strings.NewReader(""), WithFs(fs))
	root.SetArgs([]string{"copy", "--sidecar", "/src", "/dst"})
	err := root.Execute()
	require.Error(t, err)

	got, readErr := afero.ReadFile(fs, "/dst")
	require.NoError(t, readErr)
	require.Equal(t, "data", string(got))
	_, err = sidecar.Read(fs, sidecar.Path("/dst"))
	require.NoError(t, err)
}

func TestVerifyMalformedSidecarIsIntegrityError(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/f", "content")
	h.write(t, "/f"+sidecar.Ext, "garbage\n")

	err := h.run("", "verify", "/f")
	require.True(t, errors.Is(err, apperrors.ErrIntegrity), "%v", err)
	require.False(t, errors.Is(err, apperrors.ErrIO), "%v", err)
}
