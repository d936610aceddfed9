package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// dicomPreambleSize matches the Part 10 preamble length checked by the
// loader.
const dicomPreambleSize = 128

// DICOMFile returns the bytes of a minimal file the loader recognizes
// as DICOM: a zeroed 128-byte preamble, the "DICM" magic, and payload
// padding up to size bytes.
func DICOMFile(size int) []byte {
	if size < dicomPreambleSize+4 {
		size = dicomPreambleSize + 4
	}
	b := make([]byte, size)
	copy(b[dicomPreambleSize:], "DICM")
	return b
}

// WritePatient creates a patient folder under root with the given
// per-modality image counts. Each image is a minimal DICOM file of
// 256 bytes. Returns the patient folder path.
func WritePatient(t *testing.T, root, id string, modalities map[string]int) string {
	t.Helper()

	dir := filepath.Join(root, id)
	for mod, n := range modalities {
		modDir := filepath.Join(dir, mod)
		if err := os.MkdirAll(modDir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", modDir, err)
		}
		for i := 0; i < n; i++ {
			name := filepath.Join(modDir, fmt.Sprintf("img%03d.dcm", i))
			if err := os.WriteFile(name, DICOMFile(256), 0o644); err != nil {
				t.Fatalf("write %s: %v", name, err)
			}
		}
	}
	if len(modalities) == 0 {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return dir
}
