package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	apperrors "hashwriter/internal/errors"
	"hashwriter/internal/hash"
	"hashwriter/internal/hashwriter"
	"hashwriter/internal/progress"
	"hashwriter/internal/sidecar"
	"hashwriter/internal/sink"
)

const (
	optionNameOverwrite    = "overwrite"
	optionNameSidecar      = "sidecar"
	optionNameProgress     = "progress"
	optionNameAcceptedOnly = "accepted-only"
)

func (r *RootCommand) newCopyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy <src> <dst>",
		Short: "Copy a file and print the digest of the bytes written",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			overwrite, err := flags.GetBool(optionNameOverwrite)
			if err != nil {
				return fmt.Errorf("get overwrite: %w", err)
			}
			writeSidecar, err := flags.GetBool(optionNameSidecar)
			if err != nil {
				return fmt.Errorf("get sidecar: %w", err)
			}
			showProgress, err := flags.GetBool(optionNameProgress)
			if err != nil {
				return fmt.Errorf("get progress: %w", err)
			}
			acceptedOnly, err := flags.GetBool(optionNameAcceptedOnly)
			if err != nil {
				return fmt.Errorf("get accepted-only: %w", err)
			}
			policy := hashwriter.HashAttempted
			if acceptedOnly {
				policy = hashwriter.HashAccepted
			}
			return r.copyFile(args[0], args[1], copyOptions{
				overwrite: overwrite,
				sidecar:   writeSidecar,
				progress:  showProgress,
				policy:    policy,
			})
		},
	}
	cmd.Flags().Bool(optionNameOverwrite, false, "replace an existing destination")
	cmd.Flags().Bool(optionNameSidecar, false, "write <dst>"+sidecar.Ext+" with the digest")
	cmd.Flags().Bool(optionNameProgress, false, "report progress on stderr")
	cmd.Flags().Bool(optionNameAcceptedOnly, false, "hash only bytes the destination accepted")
	return cmd
}

type copyOptions struct {
	overwrite bool
	sidecar   bool
	progress  bool
	policy    hashwriter.Policy
}

func (r *RootCommand) copyFile(srcPath, dstPath string, opts copyOptions) (err error) {
	src, err := r.fs.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open source: %w: %w", err, apperrors.ErrIO)
	}
	defer func() { _ = src.Close() }()
	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w: %w", err, apperrors.ErrIO)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("source is not a regular file: %w", apperrors.ErrUsage)
	}

	if r.sameFile(srcPath, dstPath, info) {
		return fmt.Errorf("source and destination are the same file: %s: %w", dstPath, apperrors.ErrUsage)
	}

	file, err := sink.Create(r.fs, dstPath, opts.overwrite)
	if err != nil {
		return fmt.Errorf("%w: %w", err, apperrors.ErrIO)
	}
	committed := false
	defer func() {
		if err != nil && !committed {
			_ = r.fs.Remove(dstPath)
		}
	}()

	out := sink.Buffered(file, r.config.BufferSize)
	var reporter *progress.Writer
	if opts.progress {
		reporter = progress.NewWriter(out, progress.NewReporter(r.errOut, "copying", uint64(info.Size())))
		out = reporter
	}

	h, err := r.config.Algorithm.New()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: %w", err, apperrors.ErrUnsupportedAlgorithm)
	}
	w := hashwriter.New(h, out, hashwriter.WithPolicy(opts.policy))

	var merr *multierror.Error
	n, copyErr := io.Copy(w, src)
	if copyErr != nil {
		merr = multierror.Append(merr, fmt.Errorf("copy: %w: %w", copyErr, apperrors.ErrIO))
	} else if flushErr := w.Flush(); flushErr != nil {
		merr = multierror.Append(merr, fmt.Errorf("flush destination: %w: %w", flushErr, apperrors.ErrIO))
	}
	sum, _, finErr := w.Finalize()
	if finErr != nil {
		merr = multierror.Append(merr, finErr)
	}
	if closeErr := file.Close(); closeErr != nil {
		merr = multierror.Append(merr, fmt.Errorf("close destination: %w: %w", closeErr, apperrors.ErrIO))
	}
	if err = merr.ErrorOrNil(); err != nil {
		return err
	}
	if reporter != nil {
		reporter.Done()
	}

	d := hash.Format(h.Algorithm(), sum)
	r.logger.Debug("copied", "src", srcPath, "dst", dstPath, "bytes", n, "hashed", w.Hashed(), "policy", opts.policy, "digest", d)
	if opts.sidecar {
		entry := sidecar.Entry{Algorithm: h.Algorithm(), Sum: sum, Name: filepath.Base(dstPath)}
		if err = sidecar.Write(r.fs, sidecar.Path(dstPath), entry); err != nil {
			return fmt.Errorf("%w: %w", err, apperrors.ErrIO)
		}
	}
	committed = true
	if _, err := fmt.Fprintf(r.out, "%s  %s\n", d, dstPath); err != nil {
		return fmt.Errorf("write copy output: %w", err)
	}
	return nil
}

// sameFile reports whether dstPath names the already opened source.
func (r *RootCommand) sameFile(srcPath, dstPath string, srcInfo os.FileInfo) bool {
	if filepath.Clean(srcPath) == filepath.Clean(dstPath) {
		return true
	}
	dstInfo, err := r.fs.Stat(dstPath)
	if err != nil {
		return false
	}
	return os.SameFile(srcInfo, dstInfo)
}
