package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/radbatch/radbatch/internal/config"
	"github.com/radbatch/radbatch/internal/driver"
	"github.com/radbatch/radbatch/internal/patient"
	"github.com/radbatch/radbatch/internal/report"
	"github.com/radbatch/radbatch/internal/stage"
	"github.com/radbatch/radbatch/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// Registry allows overriding the stage registry (for testing
	// custom stages). Nil means the builtin registry.
	Registry *stage.Registry

	// RunIDs allows overriding the run ID generator (for testing).
	// Nil means UUIDv7.
	RunIDs report.Generator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}
	return newRunCommand(opts)
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <manifest>",
		Short: "Run the configured stages over a cohort",
		Long: `Run every configured stage over every patient folder in the cohort.

The manifest names the cohort root, the loader options, the stage list,
and (optionally) a SQLite database the run report is saved to.

Exit status is 0 only when no stage produced a failed phase result
anywhere in the run.

Example:
  radbatch run cohort.yaml
  radbatch run cohort.yaml --verbose --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCohort(opts, args[0], cmd)
		},
	}
	return cmd
}

func runCohort(opts *RunOptions, manifestPath string, cmd *cobra.Command) error {
	cfg, err := config.Load(manifestPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	locators, err := patient.EnumerateCohort(cfg.Cohort.Root, cfg.Cohort.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to enumerate cohort", err)
	}
	slog.Info("cohort enumerated", "root", cfg.Cohort.Root, "filter", cfg.Cohort.Filter, "patients", len(locators))

	registry := opts.Registry
	if registry == nil {
		registry = stage.DefaultRegistry()
	}
	stages, err := buildStages(registry, cfg.Stages)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build stages", err)
	}

	loader := patient.NewLoader(patient.Options{UnsortedDICOM: cfg.Loader.UnsortedDICOM})

	var drvOpts []driver.Option
	if opts.RunIDs != nil {
		drvOpts = append(drvOpts, driver.WithRunIDGenerator(opts.RunIDs))
	}
	drv := driver.New(loader, drvOpts...)

	rep := drv.Run(stages, locators)
	rep.Cohort = cfg.Cohort.Root

	if cfg.Report.Database != "" {
		if err := saveReport(cmd.Context(), cfg.Report.Database, rep); err != nil {
			// Persistence failure never invalidates the completed run;
			// report it and carry on to the summary.
			slog.Error("failed to persist run report", "db", cfg.Report.Database, "error", err)
		}
	}

	summary := rep.Summarize()
	if opts.Format == "json" {
		formatter := &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		}
		if err := formatter.JSON(summary); err != nil {
			return WrapExitError(ExitCommandError, "failed to encode summary", err)
		}
	} else {
		summary.WriteText(cmd.OutOrStdout())
	}

	if rep.HasFailures() {
		return NewExitError(ExitFailure, fmt.Sprintf("run completed with %d failed phase(s)", len(rep.Failed())))
	}
	return nil
}

// buildStages constructs one stage instance per manifest entry, in
// manifest order. The stage list is fixed for the duration of the run.
func buildStages(registry *stage.Registry, configs []config.StageConfig) ([]driver.Stage, error) {
	stages := make([]driver.Stage, 0, len(configs))
	for _, sc := range configs {
		st, err := registry.Build(sc.Kind, sc.Name, stage.Settings{Output: sc.Output})
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, nil
}

func saveReport(ctx context.Context, dbPath string, rep *report.RunReport) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	return st.SaveReport(ctx, rep)
}
