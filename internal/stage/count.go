package stage

import (
	"sort"
	"strconv"

	"github.com/radbatch/radbatch/internal/patient"
	"github.com/radbatch/radbatch/internal/report"
	"github.com/radbatch/radbatch/internal/sink"
)

var countColumns = []string{"modality", "images"}

// Count tallies images per modality across the whole cohort. One row
// per modality is written at teardown.
type Count struct {
	name     string
	out      *sink.CSV
	perMod   map[string]int
	total    int
	patients int
}

// NewCount creates a count stage flushing to out.
func NewCount(name string, out *sink.CSV) *Count {
	return &Count{name: name, out: out}
}

func (s *Count) Name() string {
	return s.name
}

func (s *Count) Setup() report.PhaseResult {
	s.perMod = make(map[string]int)
	s.total = 0
	s.patients = 0
	return report.OK()
}

func (s *Count) Step(p *patient.Patient) report.PhaseResult {
	for mod, n := range p.Modalities {
		s.perMod[mod] += n
		s.total += n
	}
	s.patients++
	return report.OK()
}

func (s *Count) Teardown() report.PhaseResult {
	mods := make([]string, 0, len(s.perMod))
	for m := range s.perMod {
		mods = append(mods, m)
	}
	sort.Strings(mods)

	rows := make([]sink.Record, 0, len(mods))
	for _, m := range mods {
		rows = append(rows, sink.Record{
			"modality": m,
			"images":   strconv.Itoa(s.perMod[m]),
		})
	}
	if err := s.out.Write(rows, countColumns); err != nil {
		return report.Failedf("flush counts: %v", err)
	}
	return report.OK()
}

// Total returns the running image count across all stepped patients.
func (s *Count) Total() int {
	return s.total
}

// Patients returns how many patients have been stepped.
func (s *Count) Patients() int {
	return s.patients
}
