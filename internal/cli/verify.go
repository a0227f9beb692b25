package cli

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	apperrors "hashwriter/internal/errors"
	"hashwriter/internal/hash"
	"hashwriter/internal/sidecar"
)

func (r *RootCommand) newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file...>",
		Short: "Check files against their " + sidecar.Ext + " sidecars",
		Args:  minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var merr *multierror.Error
			for _, name := range args {
				res, err := sidecar.Verify(r.fs, name)
				if err != nil {
					r.logger.Error("verify failed", "file", name, "error", err)
					class := apperrors.ErrIO
					if errors.Is(err, sidecar.ErrMalformed) {
						class = apperrors.ErrIntegrity
					}
					merr = multierror.Append(merr, fmt.Errorf("%s: %w: %w", name, err, class))
					continue
				}
				status := "OK"
				if !res.OK {
					status = "FAILED"
					r.logger.Warn("digest mismatch", "file", name,
						"expected", hash.Format(res.Entry.Algorithm, res.Entry.Sum),
						"actual", hash.Format(res.Entry.Algorithm, res.Actual))
					merr = multierror.Append(merr, fmt.Errorf("%s: %w", name, apperrors.ErrIntegrity))
				}
				if _, err := fmt.Fprintf(r.out, "%s: %s\n", name, status); err != nil {
					return fmt.Errorf("write verify output: %w", err)
				}
			}
			return merr.ErrorOrNil()
		},
	}
}
