package report

import (
	"fmt"
	"time"
)

// Status is the tagged outcome of a single phase invocation.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Phase identifies which lifecycle operation a record belongs to.
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhaseStep     Phase = "step"
	PhaseTeardown Phase = "teardown"
)

// PhaseResult is the outcome of one phase invocation: a status plus an
// optional human-readable message. Messages are only meaningful for
// failed results but are preserved verbatim either way.
type PhaseResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK returns a successful phase result.
func OK() PhaseResult {
	return PhaseResult{Status: StatusOK}
}

// Failed returns a failed phase result with the given message.
func Failed(message string) PhaseResult {
	return PhaseResult{Status: StatusFailed, Message: message}
}

// Failedf returns a failed phase result with a formatted message.
func Failedf(format string, args ...any) PhaseResult {
	return PhaseResult{Status: StatusFailed, Message: fmt.Sprintf(format, args...)}
}

// Record is one entry in a run report: which stage, which phase, which
// entity locator (empty for setup/teardown), and the result.
type Record struct {
	Stage   string      `json:"stage"`
	Phase   Phase       `json:"phase"`
	Locator string      `json:"locator,omitempty"`
	Result  PhaseResult `json:"result"`
}

// RunReport is the complete ordered record of all phase outcomes for
// one driver run. Records appear in the exact order the driver invoked
// the corresponding phases.
type RunReport struct {
	RunID      string    `json:"run_id"`
	Cohort     string    `json:"cohort,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Records    []Record  `json:"records"`
}

// New creates an empty report with the given run ID and marks the
// start time.
func New(runID string) *RunReport {
	return &RunReport{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Records:   []Record{},
	}
}

// Append adds a record to the report.
func (r *RunReport) Append(rec Record) {
	r.Records = append(r.Records, rec)
}

// Finish marks the end time of the run.
func (r *RunReport) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// Failed returns all records with a failed result, in report order.
func (r *RunReport) Failed() []Record {
	var failed []Record
	for _, rec := range r.Records {
		if rec.Result.Status == StatusFailed {
			failed = append(failed, rec)
		}
	}
	return failed
}

// HasFailures reports whether any phase in the run failed.
func (r *RunReport) HasFailures() bool {
	for _, rec := range r.Records {
		if rec.Result.Status == StatusFailed {
			return true
		}
	}
	return false
}

// StepCount returns the number of step records in the report,
// including failed ones.
func (r *RunReport) StepCount() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Phase == PhaseStep {
			n++
		}
	}
	return n
}

// StepsFor returns the step records for a single stage, in order.
func (r *RunReport) StepsFor(stage string) []Record {
	var steps []Record
	for _, rec := range r.Records {
		if rec.Phase == PhaseStep && rec.Stage == stage {
			steps = append(steps, rec)
		}
	}
	return steps
}
