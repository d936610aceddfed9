package driver

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radbatch/radbatch/internal/patient"
	"github.com/radbatch/radbatch/internal/report"
	"github.com/radbatch/radbatch/internal/testutil"
)

// scriptedStage records its lifecycle calls and fails on demand.
type scriptedStage struct {
	name         string
	failSetup    bool
	failStepAt   int // 1-based step ordinal to fail at; 0 = never
	panicStepAt  int // 1-based step ordinal to panic at; 0 = never
	failTeardown bool

	setupCalls    int
	teardownCalls int
	stepped       []string // patient IDs in call order
}

func (s *scriptedStage) Name() string { return s.name }

func (s *scriptedStage) Setup() report.PhaseResult {
	s.setupCalls++
	if s.failSetup {
		return report.Failed("setup exploded")
	}
	return report.OK()
}

func (s *scriptedStage) Step(p *patient.Patient) report.PhaseResult {
	s.stepped = append(s.stepped, p.ID)
	if s.panicStepAt == len(s.stepped) {
		panic("step blew up")
	}
	if s.failStepAt == len(s.stepped) {
		return report.Failed("step exploded")
	}
	return report.OK()
}

func (s *scriptedStage) Teardown() report.PhaseResult {
	s.teardownCalls++
	if s.failTeardown {
		return report.Failed("teardown exploded")
	}
	return report.OK()
}

// scriptedLoader resolves every locator into a one-image patient,
// failing the configured ones.
type scriptedLoader struct {
	fail     map[string]bool
	resolved []string
}

func (l *scriptedLoader) Resolve(locator string) (*patient.Patient, error) {
	l.resolved = append(l.resolved, locator)
	if l.fail[locator] {
		return nil, &patient.ResolutionError{Locator: locator, Reason: "no images found"}
	}
	return &patient.Patient{
		ID:         filepath.Base(locator),
		Path:       locator,
		Modalities: map[string]int{"ct": 1},
	}, nil
}

func newTestDriver(loader Loader) *Driver {
	return New(loader, WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-1")))
}

func TestRun_AllOK_EntityMajorOrder(t *testing.T) {
	a := &scriptedStage{name: "a"}
	b := &scriptedStage{name: "b"}
	loader := &scriptedLoader{}
	locators := []string{"p1", "p2", "p3"}

	rep := newTestDriver(loader).Run([]Stage{a, b}, locators)

	// |L| x |enabled stages| step records
	assert.Equal(t, 6, rep.StepCount())
	assert.False(t, rep.HasFailures())

	// Each locator resolved exactly once, shared across stages
	assert.Equal(t, locators, loader.resolved)

	// Entities visited in the exact order given
	assert.Equal(t, []string{"p1", "p2", "p3"}, a.stepped)
	assert.Equal(t, []string{"p1", "p2", "p3"}, b.stepped)

	// Entity-major record order: both setups, then both stages per
	// entity, then both teardowns
	var seq []string
	for _, rec := range rep.Records {
		seq = append(seq, string(rec.Phase)+":"+rec.Stage+":"+rec.Locator)
	}
	assert.Equal(t, []string{
		"setup:a:", "setup:b:",
		"step:a:p1", "step:b:p1",
		"step:a:p2", "step:b:p2",
		"step:a:p3", "step:b:p3",
		"teardown:a:", "teardown:b:",
	}, seq)
}

func TestRun_StepFailureDisablesStage(t *testing.T) {
	a := &scriptedStage{name: "a", failStepAt: 2}
	b := &scriptedStage{name: "b"}
	loader := &scriptedLoader{}
	locators := []string{"p1", "p2", "p3", "p4"}

	rep := newTestDriver(loader).Run([]Stage{a, b}, locators)

	// a stops after the failure on p2; b is unaffected
	assert.Equal(t, []string{"p1", "p2"}, a.stepped)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, b.stepped)

	aSteps := rep.StepsFor("a")
	require.Len(t, aSteps, 2)
	assert.Equal(t, report.StatusOK, aSteps[0].Result.Status)
	assert.Equal(t, report.StatusFailed, aSteps[1].Result.Status)

	// Teardown still runs exactly once for both stages
	assert.Equal(t, 1, a.teardownCalls)
	assert.Equal(t, 1, b.teardownCalls)
}

func TestRun_SetupFailureDisablesStepsButNotTeardown(t *testing.T) {
	a := &scriptedStage{name: "a", failSetup: true}
	b := &scriptedStage{name: "b"}
	loader := &scriptedLoader{}

	rep := newTestDriver(loader).Run([]Stage{a, b}, []string{"p1", "p2"})

	// Setup failure disables steps only; teardown is still attempted
	// so partial state accumulated before the failure can be flushed.
	assert.Empty(t, a.stepped)
	assert.Equal(t, 1, a.teardownCalls)
	assert.Equal(t, []string{"p1", "p2"}, b.stepped)

	var aPhases []report.Phase
	for _, rec := range rep.Records {
		if rec.Stage == "a" {
			aPhases = append(aPhases, rec.Phase)
		}
	}
	assert.Equal(t, []report.Phase{report.PhaseSetup, report.PhaseTeardown}, aPhases)
}

func TestRun_LoaderFailureSkipsEntityForAllStages(t *testing.T) {
	counter := &scriptedStage{name: "count"}
	loader := &scriptedLoader{fail: map[string]bool{"p2": true}}

	rep := newTestDriver(loader).Run([]Stage{counter}, []string{"p1", "p2", "p3"})

	steps := rep.StepsFor("count")
	require.Len(t, steps, 3)
	assert.Equal(t, report.StatusOK, steps[0].Result.Status)
	assert.Equal(t, "p1", steps[0].Locator)
	assert.Equal(t, report.StatusFailed, steps[1].Result.Status)
	assert.Equal(t, "p2", steps[1].Locator)
	assert.Contains(t, steps[1].Result.Message, "resolution error")
	assert.Equal(t, report.StatusOK, steps[2].Result.Status)
	assert.Equal(t, "p3", steps[2].Locator)

	// The failed entity was never handed to the stage
	assert.Equal(t, []string{"p1", "p3"}, counter.stepped)
}

func TestRun_TwoStagesAccumulateIndependently(t *testing.T) {
	a := &scriptedStage{name: "a", failStepAt: 2}
	b := &scriptedStage{name: "b"}
	loader := &scriptedLoader{}

	rep := newTestDriver(loader).Run([]Stage{a, b}, []string{"p1", "p2", "p3", "p4"})

	// a accumulated one successful record before failing; b all four
	aSteps := rep.StepsFor("a")
	okCount := 0
	for _, rec := range aSteps {
		if rec.Result.Status == report.StatusOK {
			okCount++
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Len(t, rep.StepsFor("b"), 4)

	assert.Equal(t, 1, a.teardownCalls)
	assert.Equal(t, 1, b.teardownCalls)
}

func TestRun_EmptyLocatorList(t *testing.T) {
	a := &scriptedStage{name: "a"}
	b := &scriptedStage{name: "b"}
	loader := &scriptedLoader{}

	rep := newTestDriver(loader).Run([]Stage{a, b}, nil)

	assert.Equal(t, 0, rep.StepCount())
	// Setup and teardown still run so stages can emit empty-but-valid
	// output rather than no output at all.
	require.Len(t, rep.Records, 4)
	assert.Equal(t, 1, a.setupCalls)
	assert.Equal(t, 1, a.teardownCalls)
	assert.Equal(t, 1, b.setupCalls)
	assert.Equal(t, 1, b.teardownCalls)
}

func TestRun_StepPanicBecomesFailedResult(t *testing.T) {
	a := &scriptedStage{name: "a", panicStepAt: 1}
	b := &scriptedStage{name: "b"}
	loader := &scriptedLoader{}

	rep := newTestDriver(loader).Run([]Stage{a, b}, []string{"p1", "p2"})

	aSteps := rep.StepsFor("a")
	require.Len(t, aSteps, 1)
	assert.Equal(t, report.StatusFailed, aSteps[0].Result.Status)
	assert.Contains(t, aSteps[0].Result.Message, "panic")

	// The panic disabled a but left b untouched
	assert.Equal(t, []string{"p1", "p2"}, b.stepped)
	assert.Equal(t, 1, a.teardownCalls)
}

func TestRun_TeardownFailureRecorded(t *testing.T) {
	a := &scriptedStage{name: "a", failTeardown: true}
	loader := &scriptedLoader{}

	rep := newTestDriver(loader).Run([]Stage{a}, []string{"p1"})

	require.True(t, rep.HasFailures())
	failed := rep.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, report.PhaseTeardown, failed[0].Phase)
}

func TestRun_FixedRunID(t *testing.T) {
	loader := &scriptedLoader{}
	drv := New(loader, WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-42")))

	rep := drv.Run(nil, nil)
	assert.Equal(t, "run-42", rep.RunID)
	assert.Empty(t, rep.Records)
}
