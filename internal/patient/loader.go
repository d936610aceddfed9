package patient

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// dicomPreambleSize is the fixed preamble before the "DICM" magic in a
// DICOM Part 10 file.
const dicomPreambleSize = 128

// UnsortedModality is the synthetic modality used when the input
// layout is unsorted rather than pre-organized by data type.
const UnsortedModality = "unsorted"

// Options configures how a Loader resolves patient folders. It is an
// explicit value threaded at construction; there is no process-wide
// default object.
type Options struct {
	// UnsortedDICOM indicates the input layout is a flat dump rather
	// than pre-organized into per-modality subdirectories. All
	// recognized images are counted under UnsortedModality.
	UnsortedDICOM bool
}

// Loader resolves entity locators (patient folder paths) into Patient
// records by scanning for DICOM files.
type Loader struct {
	opts Options
}

// NewLoader creates a Loader with the given options.
func NewLoader(opts Options) *Loader {
	return &Loader{opts: opts}
}

// Resolve scans the folder at the locator and builds a Patient.
//
// A file counts as an image when it carries the "DICM" magic at byte
// 128 or, failing that, a DICOM file extension. In the pre-sorted
// layout the modality is the lowercased name of the top-level
// subdirectory the file lives under; files directly in the patient
// root fall under "unknown". With Options.UnsortedDICOM the layout is
// ignored and everything counts under UnsortedModality.
//
// Returns a *ResolutionError when the locator is missing, not a
// directory, or contains no recognized images.
func (l *Loader) Resolve(locator string) (*Patient, error) {
	info, err := os.Stat(locator)
	if err != nil {
		return nil, &ResolutionError{Locator: locator, Reason: "stat failed", Err: err}
	}
	if !info.IsDir() {
		return nil, &ResolutionError{Locator: locator, Reason: "not a directory"}
	}

	p := &Patient{
		ID:         filepath.Base(locator),
		Path:       locator,
		Modalities: make(map[string]int),
	}

	walkErr := filepath.WalkDir(locator, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isDICOMFile(path) {
			slog.Debug("skipping non-image file", "path", path)
			return nil
		}

		rel, err := filepath.Rel(locator, path)
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}

		modality := l.modalityFor(rel)
		p.Files = append(p.Files, FileInfo{RelPath: rel, Modality: modality, Size: fi.Size()})
		p.Modalities[modality]++
		p.TotalBytes += fi.Size()
		return nil
	})
	if walkErr != nil {
		return nil, &ResolutionError{Locator: locator, Reason: "scan failed", Err: walkErr}
	}

	if len(p.Files) == 0 {
		return nil, &ResolutionError{Locator: locator, Reason: "no images found"}
	}

	slog.Debug("patient resolved",
		"patient", p.ID,
		"images", p.ImageCount(),
		"modalities", len(p.Modalities),
	)
	return p, nil
}

// modalityFor derives the modality from a file's path relative to the
// patient root.
func (l *Loader) modalityFor(rel string) string {
	if l.opts.UnsortedDICOM {
		return UnsortedModality
	}
	dir, _, found := strings.Cut(filepath.ToSlash(rel), "/")
	if !found {
		return "unknown"
	}
	return strings.ToLower(dir)
}

// isDICOMFile reports whether the file looks like a DICOM image.
// Checks the Part 10 magic first; extension matching is the fallback
// for headerless files written by older toolkits.
func isDICOMFile(path string) bool {
	f, err := os.Open(path)
	if err == nil {
		var header [dicomPreambleSize + 4]byte
		n, _ := f.Read(header[:])
		f.Close()
		if n == len(header) && string(header[dicomPreambleSize:]) == "DICM" {
			return true
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".dcm", ".dicom":
		return true
	}
	return false
}
