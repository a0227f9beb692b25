// Package app wires hashwriter application execution.
package app

import (
	"fmt"
	"io"
	"os"

	"hashwriter/internal/cli"
	apperrors "hashwriter/internal/errors"
)

// App wires CLI execution.
type App struct {
	out    io.Writer
	errOut io.Writer
	in     io.Reader
	opts   []cli.Option
}

// New creates an App bound to the process standard streams.
func New(opts ...cli.Option) App {
	return App{out: os.Stdout, errOut: os.Stderr, in: os.Stdin, opts: opts}
}

// NewWithStreams creates an App bound to the given streams.
func NewWithStreams(out, errOut io.Writer, in io.Reader, opts ...cli.Option) App {
	return App{out: out, errOut: errOut, in: in, opts: opts}
}

// Run executes the application and returns a process exit code.
func (a App) Run(args []string) int {
	root := cli.NewRootCommand(a.out, a.errOut, a.in, a.opts...)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(a.errOut, "error: %v\n", err)
		return apperrors.ExitCode(err)
	}

	return 0
}
