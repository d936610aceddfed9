package patient

import "sort"

// FileInfo describes one recognized image file inside a patient folder.
type FileInfo struct {
	RelPath  string
	Modality string
	Size     int64
}

// Patient is the in-memory record produced from a locator: a scan
// folder resolved into per-modality image counts and file metadata.
// The driver treats it as opaque; stages read whatever they need.
type Patient struct {
	ID         string // base name of the patient folder
	Path       string // absolute or as-given folder path
	Files      []FileInfo
	Modalities map[string]int // modality -> image count
	TotalBytes int64
}

// ImageCount returns the total number of recognized images across all
// modalities.
func (p *Patient) ImageCount() int {
	n := 0
	for _, c := range p.Modalities {
		n += c
	}
	return n
}

// ModalityNames returns the modalities present, sorted.
func (p *Patient) ModalityNames() []string {
	names := make([]string, 0, len(p.Modalities))
	for m := range p.Modalities {
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}
