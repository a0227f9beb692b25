package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"hashwriter/internal/hash"
)

func (r *RootCommand) newAlgorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List supported hash algorithms",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range hash.Algorithms() {
				marker := ""
				if a == r.config.Algorithm {
					marker = " *"
				}
				if _, err := fmt.Fprintf(r.out, "%-12s %3d bytes%s\n", a, a.Size(), marker); err != nil {
					return fmt.Errorf("write algorithms output: %w", err)
				}
			}
			return nil
		},
	}
}
