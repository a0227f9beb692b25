package cli

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	apperrors "hashwriter/internal/errors"
	"hashwriter/internal/hash"
	"hashwriter/internal/hashwriter"
	"hashwriter/internal/sink"
)

const stdinName = "-"

func (r *RootCommand) newSumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sum [file...]",
		Short: "Print the digest of each file, or of standard input",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{stdinName}
			}
			var merr *multierror.Error
			for _, name := range args {
				d, err := r.sumOne(name)
				if err != nil {
					r.logger.Error("sum failed", "file", name, "error", err)
					merr = multierror.Append(merr, fmt.Errorf("%s: %w", name, err))
					continue
				}
				if _, err := fmt.Fprintf(r.out, "%s  %s\n", d, name); err != nil {
					return fmt.Errorf("write sum output: %w", err)
				}
			}
			return merr.ErrorOrNil()
		},
	}
}

func (r *RootCommand) sumOne(name string) (string, error) {
	var src io.Reader = r.in
	if name != stdinName {
		f, err := r.fs.Open(name)
		if err != nil {
			return "", fmt.Errorf("open: %w: %w", err, apperrors.ErrIO)
		}
		defer func() { _ = f.Close() }()
		src = f
	}

	h, err := r.config.Algorithm.New()
	if err != nil {
		return "", fmt.Errorf("%w: %w", err, apperrors.ErrUnsupportedAlgorithm)
	}
	w := hashwriter.New(h, sink.Discard())
	n, err := io.Copy(w, src)
	if err != nil {
		return "", fmt.Errorf("read: %w: %w", err, apperrors.ErrIO)
	}
	sum, _, err := w.Finalize()
	if err != nil {
		return "", err
	}
	r.logger.Debug("hashed", "file", name, "bytes", n)
	return hash.Format(h.Algorithm(), sum).String(), nil
}
