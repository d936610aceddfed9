package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_DeclaredColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	c := NewCSV(path)

	records := []Record{
		{"patient": "p1", "images": "3"},
		{"patient": "p2", "images": "5"},
	}
	require.NoError(t, c.Write(records, []string{"patient", "images"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "patient,images\np1,3\np2,5\n", string(data))
}

func TestWrite_UnionOfKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	c := NewCSV(path)

	// p2 carries an ad-hoc key not in the declared schema; p1 misses it
	records := []Record{
		{"patient": "p1"},
		{"patient": "p2", "note": "rescan"},
	}
	require.NoError(t, c.Write(records, []string{"patient"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "patient,note\np1,\np2,rescan\n", string(data))
}

func TestWrite_ZeroRecordsHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	c := NewCSV(path)

	require.NoError(t, c.Write(nil, []string{"patient", "images"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "patient,images\n", string(data))
}

func TestWrite_OverwriteIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	c := NewCSV(path)
	records := []Record{{"patient": "p1", "images": "3"}}
	columns := []string{"patient", "images"}

	require.NoError(t, c.Write(records, columns))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, c.Write(records, columns))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	// Truncate-on-write: identical inputs produce byte-identical output
	assert.Equal(t, first, second)
}

func TestWrite_UnwritablePath(t *testing.T) {
	c := NewCSV(filepath.Join(t.TempDir(), "missing", "out.csv"))

	err := c.Write([]Record{{"a": "1"}}, []string{"a"})
	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Contains(t, writeErr.Path, "out.csv")
}

func TestUnionColumns_ExtrasSorted(t *testing.T) {
	records := []Record{
		{"z": "1", "a": "2"},
		{"m": "3"},
	}
	header := unionColumns(records, []string{"m"})
	assert.Equal(t, []string{"m", "a", "z"}, header)
}
