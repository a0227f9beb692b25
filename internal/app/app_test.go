package app

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"hashwriter/internal/buildinfo"
	"hashwriter/internal/cli"
)

func TestRunVersionReturnsZeroAndPrintsExpectedLines(t *testing.T) {
	previousVersion, previousCommit, previousDate := buildinfo.Version, buildinfo.Commit, buildinfo.Date
	t.Cleanup(func() {
		buildinfo.Version, buildinfo.Commit, buildinfo.Date = previousVersion, previousCommit, previousDate
	})
	buildinfo.Version = "v0.0.1"
	buildinfo.Commit = "deadbeef"
	buildinfo.Date = "2026-02-01T00:00:00Z"

	output, err := captureStdout(func() int {
		application := New()
		return application.Run([]string{"version"})
	})
	if err != nil {
		t.Fatalf("capture stdout: %v", err)
	}

	if output.exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", output.exitCode)
	}

	lines := strings.Split(strings.TrimSpace(output.stdout), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d; output=%q", len(lines), output.stdout)
	}

	expectedPrefixes := []string{"hashwriter v0.0.1", "commit: deadbeef", "built:  ", "go:     ", "os/arch:"}
	for i, prefix := range expectedPrefixes {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Fatalf("line %d expected prefix %q, got %q", i+1, prefix, lines[i])
		}
	}
}

func TestRunMapsErrorsToExitCodes(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/a", []byte("a"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := afero.WriteFile(fs, "/a.digest", []byte("crc32:00000000  a\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cases := []struct {
		name string
		args []string
		want int
	}{
		{"unknown command", []string{"bogus"}, 2},
		{"bad algorithm", []string{"sum", "--algorithm", "md4", "/a"}, 2},
		{"missing args", []string{"copy", "/a"}, 2},
		{"missing file", []string{"sum", "/missing"}, 1},
		{"digest mismatch", []string{"verify", "/a"}, 3},
		{"ok", []string{"sum", "/a"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			application := NewWithStreams(&out, &errOut, strings.NewReader(""), cli.WithFs(fs))
			if got := application.Run(tc.args); got != tc.want {
				t.Fatalf("Run(%v) got exit code %d want %d; stderr=%q", tc.args, got, tc.want, errOut.String())
			}
			if tc.want != 0 && !strings.Contains(errOut.String(), "error: ") {
				t.Fatalf("expected error line on stderr, got %q", errOut.String())
			}
		})
	}
}

type runOutput struct {
	exitCode int
	stdout   string
}

func captureStdout(run func() int) (runOutput, error) {
	originalStdout := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		return runOutput{}, err
	}

	os.Stdout = writer
	exitCode := run()
	_ = writer.Close()
	os.Stdout = originalStdout

	var buffer bytes.Buffer
	if _, err := io.Copy(&buffer, reader); err != nil {
		return runOutput{}, err
	}

	return runOutput{exitCode: exitCode, stdout: buffer.String()}, nil
}
