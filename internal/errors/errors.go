// Package errors defines application errors and exit code mapping.
package errors

import sterrors "errors"

var (
	// ErrUsage indicates a command usage failure.
	ErrUsage = sterrors.New("usage error")
	// ErrIO indicates a filesystem or stream failure.
	ErrIO = sterrors.New("i/o error")
	// ErrIntegrity indicates content that does not match its recorded digest.
	ErrIntegrity = sterrors.New("integrity check failed")
	// ErrUnsupportedAlgorithm indicates an unknown hash algorithm name.
	ErrUnsupportedAlgorithm = sterrors.New("unsupported algorithm")
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	if sterrors.Is(err, ErrUsage) || sterrors.Is(err, ErrUnsupportedAlgorithm) {
		return 2
	}

	if sterrors.Is(err, ErrIntegrity) {
		return 3
	}

	return 1
}
