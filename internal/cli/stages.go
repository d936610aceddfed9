package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radbatch/radbatch/internal/stage"
)

// NewStagesCommand creates the stages command.
func NewStagesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stages",
		Short: "List available stage kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := stage.DefaultRegistry().Kinds()
			if rootOpts.Format == "json" {
				formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return formatter.JSON(map[string]any{"kinds": kinds})
			}
			for _, k := range kinds {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
	return cmd
}
