package driver

import (
	"fmt"
	"log/slog"

	"github.com/radbatch/radbatch/internal/patient"
	"github.com/radbatch/radbatch/internal/report"
)

// Stage is a unit of per-entity processing with a three-phase
// lifecycle. A stage owns arbitrary mutable state accumulated across
// Step calls; the driver only sees phase results.
//
// Contract enforced by the driver:
//   - Setup runs exactly once, before any Step
//   - Step runs once per resolved entity, in locator order, and stops
//     for this stage after its first failure
//   - Teardown runs exactly once, after all entities, even when Setup
//     or a Step failed (accumulated partial results may still be worth
//     persisting)
type Stage interface {
	Name() string
	Setup() report.PhaseResult
	Step(p *patient.Patient) report.PhaseResult
	Teardown() report.PhaseResult
}

// Loader resolves an entity locator into a Patient record.
// Implemented by patient.Loader (production) and scripted fakes in
// tests.
type Loader interface {
	Resolve(locator string) (*patient.Patient, error)
}

// Driver runs a fixed list of stages over a list of entity locators,
// entity-major: each locator is resolved once and the entity is handed
// to every enabled stage before the next locator is touched. Entity
// loads are the expensive part (folder scans), so the resolution is
// shared across stages.
//
// The driver is single-threaded and holds no state across Run calls.
// Failures are isolated per stage: one stage failing never blocks
// another stage or another entity, and nothing a stage does can escape
// the run as an unhandled fault.
type Driver struct {
	loader Loader
	runIDs report.Generator
}

// Option configures a Driver.
type Option func(*Driver)

// WithRunIDGenerator overrides the run ID generator. Tests use a fixed
// generator for deterministic reports.
func WithRunIDGenerator(gen report.Generator) Option {
	return func(d *Driver) {
		d.runIDs = gen
	}
}

// New creates a Driver using the given loader. Run IDs default to
// UUIDv7.
func New(loader Loader, opts ...Option) *Driver {
	d := &Driver{
		loader: loader,
		runIDs: report.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes all stages over all locators and returns the assembled
// report.
//
// Phase order: every stage's Setup first (a failed Setup disables that
// stage's steps but not its Teardown), then the entity-major loop,
// then every stage's Teardown. The stage list and locator order are
// fixed for the duration of the run.
//
// A locator the loader cannot resolve is recorded as a failed step for
// every stage still enabled at that point, and the run continues with
// the next locator.
func (d *Driver) Run(stages []Stage, locators []string) *report.RunReport {
	rep := report.New(d.runIDs.Generate())
	slog.Info("run starting", "run_id", rep.RunID, "stages", len(stages), "entities", len(locators))

	enabled := make([]bool, len(stages))
	for i, st := range stages {
		res := capture(st.Name(), string(report.PhaseSetup), st.Setup)
		rep.Append(report.Record{Stage: st.Name(), Phase: report.PhaseSetup, Result: res})
		enabled[i] = res.Status == report.StatusOK
		if !enabled[i] {
			slog.Warn("stage setup failed, steps disabled for this run",
				"stage", st.Name(),
				"message", res.Message,
			)
		}
	}

	for _, locator := range locators {
		p, err := d.loader.Resolve(locator)
		if err != nil {
			slog.Warn("entity resolution failed, skipping", "locator", locator, "error", err)
			for i, st := range stages {
				if !enabled[i] {
					continue
				}
				rep.Append(report.Record{
					Stage:   st.Name(),
					Phase:   report.PhaseStep,
					Locator: locator,
					Result:  report.Failedf("resolution error: %v", err),
				})
			}
			continue
		}

		for i, st := range stages {
			if !enabled[i] {
				continue
			}
			res := capture(st.Name(), string(report.PhaseStep), func() report.PhaseResult {
				return st.Step(p)
			})
			rep.Append(report.Record{
				Stage:   st.Name(),
				Phase:   report.PhaseStep,
				Locator: locator,
				Result:  res,
			})
			if res.Status == report.StatusFailed {
				// Fail-stop per stage: no further steps, teardown still runs.
				enabled[i] = false
				slog.Warn("stage step failed, disabling for remaining entities",
					"stage", st.Name(),
					"locator", locator,
					"message", res.Message,
				)
			}
		}
	}

	for _, st := range stages {
		res := capture(st.Name(), string(report.PhaseTeardown), st.Teardown)
		rep.Append(report.Record{Stage: st.Name(), Phase: report.PhaseTeardown, Result: res})
	}

	rep.Finish()
	slog.Info("run finished",
		"run_id", rep.RunID,
		"phases", len(rep.Records),
		"steps", rep.StepCount(),
		"failed", len(rep.Failed()),
	)
	return rep
}

// capture invokes a phase and converts a panic into a failed result.
// A single stage's internal bug must not abort processing of the
// remaining population.
func capture(stage, phase string, fn func() report.PhaseResult) (res report.PhaseResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("stage panicked", "stage", stage, "phase", phase, "panic", fmt.Sprint(r))
			res = report.Failedf("panic: %v", r)
		}
	}()
	return fn()
}
