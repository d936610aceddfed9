package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radbatch/radbatch/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <run-id>",
		Short: "Show all phase results of a persisted run",
		Long: `Show every phase result of one persisted run, in execution order.

Example:
  radbatch trace 0190cbb3-... --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to report database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, runID string, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rep, err := st.ReadReport(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("run %s not found", runID), err)
		}
		return WrapExitError(ExitCommandError, "failed to read report", err)
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.JSON(rep)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s (%d phases)\n", rep.RunID, len(rep.Records))
	for _, rec := range rep.Records {
		locator := "-"
		if rec.Locator != "" {
			locator = rec.Locator
		}
		line := fmt.Sprintf("%-8s %-10s %-30s %s", rec.Phase, rec.Stage, locator, rec.Result.Status)
		if rec.Result.Message != "" {
			line += "  " + rec.Result.Message
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
