package patient

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// EnumerateCohort lists the patient folders under root whose base
// names match the glob filter, sorted by name. The returned paths are
// the run's entity locators; order is preserved for the whole run.
//
// An empty filter matches everything. A root with no matching
// subdirectories yields an empty (non-nil) slice, which the driver
// treats as a valid zero-entity run.
func EnumerateCohort(root, filter string) ([]string, error) {
	if filter == "" {
		filter = "*"
	}
	// Validate the pattern up front so a bad filter fails the run
	// instead of silently matching nothing.
	if _, err := filepath.Match(filter, ""); err != nil {
		return nil, fmt.Errorf("invalid cohort filter %q: %w", filter, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read cohort root %s: %w", root, err)
	}

	locators := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		matched, _ := filepath.Match(filter, e.Name())
		if matched {
			locators = append(locators, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(locators)
	return locators, nil
}
