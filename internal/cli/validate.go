package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/radbatch/radbatch/internal/config"
)

// ValidationResult holds validation results for JSON output.
type ValidationResult struct {
	Valid  bool                     `json:"valid"`
	Errors []config.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Validate a run manifest without running it",
		Long: `Validate a run manifest against the manifest schema.

Checks field types, required fields, and the stage list without
touching the cohort or building any stage.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, manifestPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if formatter.Format == "json" {
			_ = formatter.JSONError(err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "failed to read manifest", err)
	}

	formatter.VerboseLog("validating %s", manifestPath)
	errs := config.Validate(data)

	if formatter.Format == "json" {
		result := ValidationResult{Valid: len(errs) == 0, Errors: errs}
		if len(errs) == 0 {
			if err := formatter.JSON(result); err != nil {
				return WrapExitError(ExitCommandError, "failed to encode result", err)
			}
			return nil
		}
		_ = formatter.JSONError("validation failed", result)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	if len(errs) == 0 {
		fmt.Fprintln(formatter.Writer, "✓ manifest valid")
		return nil
	}

	fmt.Fprintln(formatter.Writer, "✗ validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		if e.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", e.Field, e.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s\n", e.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
