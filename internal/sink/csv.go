// Package sink persists ordered flat key-value records as delimited
// tabular files. Stage teardowns flush their accumulated records here;
// the driver itself never touches a sink.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
)

// Record is one flat row: column name -> value. Missing columns render
// as empty fields.
type Record map[string]string

// WriteError reports a persistence failure during teardown. It is
// surfaced in the run report; in-memory accumulated state is not
// rolled back.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// CSV writes records to a single CSV file. The target is truncated on
// every Write, so rerunning with identical inputs produces
// byte-identical output.
type CSV struct {
	path string
}

// NewCSV creates a sink targeting the given path. The file is not
// touched until Write.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Path returns the target file path.
func (c *CSV) Path() string {
	return c.path
}

// Write persists the records. The header is the given column order
// followed by any extra keys seen across records, sorted; columns is
// the schema the producing stage knows up front, extras cover ad-hoc
// keys. Zero records still produce a header-only file: an
// empty-but-valid output rather than no output at all.
func (c *CSV) Write(records []Record, columns []string) error {
	header := unionColumns(records, columns)

	f, err := os.Create(c.path)
	if err != nil {
		return &WriteError{Path: c.path, Err: err}
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return &WriteError{Path: c.path, Err: err}
	}
	for _, rec := range records {
		row := make([]string, len(header))
		for i, col := range header {
			row[i] = rec[col]
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return &WriteError{Path: c.path, Err: err}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return &WriteError{Path: c.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: c.path, Err: err}
	}
	return nil
}

// unionColumns returns the declared columns followed by any other keys
// present in the records, sorted for determinism.
func unionColumns(records []Record, columns []string) []string {
	seen := make(map[string]bool, len(columns))
	header := make([]string, 0, len(columns))
	for _, col := range columns {
		if !seen[col] {
			seen[col] = true
			header = append(header, col)
		}
	}

	var extras []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				extras = append(extras, k)
			}
		}
	}
	sort.Strings(extras)
	return append(header, extras...)
}
