// Package cli implements hashwriter command-line parsing and commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"hashwriter/internal/config"
	apperrors "hashwriter/internal/errors"
	"hashwriter/internal/hash"
	"hashwriter/internal/logging"
)

func init() {
	cobra.EnableCommandSorting = false
}

// Option configures a RootCommand.
type Option func(*RootCommand)

// WithFs sets the filesystem commands operate on. The default is the OS
// filesystem.
func WithFs(fs afero.Fs) Option {
	return func(r *RootCommand) { r.fs = fs }
}

// RootCommand handles argument parsing for the hashwriter CLI.
type RootCommand struct {
	root    *cobra.Command
	out     io.Writer
	errOut  io.Writer
	in      io.Reader
	fs      afero.Fs
	cfgFile string
	config  config.Config
	logger  *slog.Logger
}

// NewRootCommand creates the hashwriter root command.
func NewRootCommand(out io.Writer, errOut io.Writer, in io.Reader, opts ...Option) *RootCommand {
	r := &RootCommand{out: out, errOut: errOut, in: in, fs: afero.NewOsFs()}
	for _, o := range opts {
		o(r)
	}

	r.root = &cobra.Command{
		Use:           "hashwriter",
		Short:         "Copy and checksum byte streams in a single pass",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unknown command %q: %w", args[0], apperrors.ErrUsage)
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.initConfig(cmd)
		},
	}
	r.root.SetOut(out)
	r.root.SetErr(errOut)
	r.root.SetIn(in)
	r.root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", err, apperrors.ErrUsage)
	})

	flags := r.root.PersistentFlags()
	flags.StringVar(&r.cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.StringP(config.OptionNameAlgorithm, "a", string(hash.Default), "hash algorithm")
	flags.String(config.OptionNameVerbosity, "info", "log verbosity: debug, info, warn, error")
	flags.Int(config.OptionNameBufferSize, config.DefaultBufferSize, "write buffer size in bytes")

	r.root.AddCommand(
		r.newSumCmd(),
		r.newCopyCmd(),
		r.newVerifyCmd(),
		r.newAlgorithmsCmd(),
		newVersionCmd(out),
	)
	return r
}

// SetArgs sets command arguments.
func (r *RootCommand) SetArgs(args []string) { r.root.SetArgs(args) }

// Commands returns configured subcommands.
func (r *RootCommand) Commands() []*cobra.Command { return r.root.Commands() }

// Execute parses and runs commands.
func (r *RootCommand) Execute() error { return r.root.Execute() }

func (r *RootCommand) initConfig(cmd *cobra.Command) error {
	v, err := config.New(r.cfgFile)
	if err != nil {
		return fmt.Errorf("%w: %w", err, apperrors.ErrUsage)
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	r.config = cfg
	r.logger = logging.New(r.errOut, cfg.LogLevel)
	r.logger.Debug("configuration loaded", "algorithm", cfg.Algorithm, "buffer_size", cfg.BufferSize)
	return nil
}

// exactArgs is cobra.ExactArgs with usage classification.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", err, apperrors.ErrUsage)
		}
		return nil
	}
}

func minimumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", err, apperrors.ErrUsage)
		}
		return nil
	}
}

// NewOSRootCommand creates a command wired to process standard streams.
func NewOSRootCommand() *RootCommand {
	return NewRootCommand(os.Stdout, os.Stderr, os.Stdin)
}
