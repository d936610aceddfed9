package stage

import (
	"strconv"
	"strings"

	"github.com/radbatch/radbatch/internal/patient"
	"github.com/radbatch/radbatch/internal/report"
	"github.com/radbatch/radbatch/internal/sink"
)

// inventoryColumns is the declared schema; the sink appends any extra
// keys after these.
var inventoryColumns = []string{"patient", "path", "modalities", "images", "total_bytes"}

// Inventory accumulates one row per patient (ID, path, modalities,
// image count, byte total) and flushes them to its sink at teardown.
type Inventory struct {
	name string
	out  *sink.CSV
	rows []sink.Record
}

// NewInventory creates an inventory stage flushing to out.
func NewInventory(name string, out *sink.CSV) *Inventory {
	return &Inventory{name: name, out: out}
}

func (s *Inventory) Name() string {
	return s.name
}

func (s *Inventory) Setup() report.PhaseResult {
	s.rows = []sink.Record{}
	return report.OK()
}

func (s *Inventory) Step(p *patient.Patient) report.PhaseResult {
	s.rows = append(s.rows, sink.Record{
		"patient":     p.ID,
		"path":        p.Path,
		"modalities":  strings.Join(p.ModalityNames(), ";"),
		"images":      strconv.Itoa(p.ImageCount()),
		"total_bytes": strconv.FormatInt(p.TotalBytes, 10),
	})
	return report.OK()
}

func (s *Inventory) Teardown() report.PhaseResult {
	if err := s.out.Write(s.rows, inventoryColumns); err != nil {
		return report.Failedf("flush inventory: %v", err)
	}
	return report.OK()
}

// Rows exposes the accumulated records for tests and report tooling.
func (s *Inventory) Rows() []sink.Record {
	return s.rows
}
