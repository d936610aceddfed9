package stage

import (
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/radbatch/radbatch/internal/patient"
	"github.com/radbatch/radbatch/internal/report"
	"github.com/radbatch/radbatch/internal/sink"
)

var statsColumns = []string{"metric", "n", "mean", "stddev", "min", "max", "median"}

// Stats accumulates per-patient image counts and byte totals, then
// emits cohort-level summary rows at teardown.
type Stats struct {
	name   string
	out    *sink.CSV
	images []float64
	bytes  []float64
}

// NewStats creates a stats stage flushing to out.
func NewStats(name string, out *sink.CSV) *Stats {
	return &Stats{name: name, out: out}
}

func (s *Stats) Name() string {
	return s.name
}

func (s *Stats) Setup() report.PhaseResult {
	s.images = nil
	s.bytes = nil
	return report.OK()
}

func (s *Stats) Step(p *patient.Patient) report.PhaseResult {
	s.images = append(s.images, float64(p.ImageCount()))
	s.bytes = append(s.bytes, float64(p.TotalBytes))
	return report.OK()
}

func (s *Stats) Teardown() report.PhaseResult {
	var rows []sink.Record
	if len(s.images) > 0 {
		rows = append(rows, summarize("images", s.images), summarize("bytes", s.bytes))
	}
	if err := s.out.Write(rows, statsColumns); err != nil {
		return report.Failedf("flush stats: %v", err)
	}
	return report.OK()
}

// summarize computes one summary row over the samples. Samples are
// copied before sorting so accumulation order is untouched.
func summarize(metric string, samples []float64) sink.Record {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	stddev := 0.0
	if len(sorted) > 1 {
		stddev = stat.StdDev(sorted, nil)
	}

	return sink.Record{
		"metric": metric,
		"n":      strconv.Itoa(len(sorted)),
		"mean":   formatFloat(stat.Mean(sorted, nil)),
		"stddev": formatFloat(stddev),
		"min":    formatFloat(sorted[0]),
		"max":    formatFloat(sorted[len(sorted)-1]),
		"median": formatFloat(stat.Quantile(0.5, stat.Empirical, sorted, nil)),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
