package report

import (
	"fmt"
	"io"
)

// Summary aggregates a report into per-status counts plus the list of
// failed phases. It is producible from any RunReport independent of
// logging configuration.
type Summary struct {
	RunID    string   `json:"run_id"`
	Cohort   string   `json:"cohort,omitempty"`
	Phases   int      `json:"phases"`
	Steps    int      `json:"steps"`
	Failures []Record `json:"failures,omitempty"`
}

// Summarize builds a Summary from the report.
func (r *RunReport) Summarize() Summary {
	return Summary{
		RunID:    r.RunID,
		Cohort:   r.Cohort,
		Phases:   len(r.Records),
		Steps:    r.StepCount(),
		Failures: r.Failed(),
	}
}

// WriteText renders the summary in human-readable form.
func (s Summary) WriteText(w io.Writer) {
	fmt.Fprintf(w, "run %s: %d phases, %d steps\n", s.RunID, s.Phases, s.Steps)
	if len(s.Failures) == 0 {
		fmt.Fprintln(w, "all phases ok")
		return
	}
	fmt.Fprintf(w, "%d failed phase(s):\n", len(s.Failures))
	for _, rec := range s.Failures {
		if rec.Locator != "" {
			fmt.Fprintf(w, "  %s %s [%s]: %s\n", rec.Stage, rec.Phase, rec.Locator, rec.Result.Message)
		} else {
			fmt.Fprintf(w, "  %s %s: %s\n", rec.Stage, rec.Phase, rec.Result.Message)
		}
	}
}
