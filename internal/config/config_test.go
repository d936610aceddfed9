package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifest = `
cohort:
  root: ./data
  filter: "VSPRT_*"
loader:
  unsorted_dicom: true
stages:
  - name: inv
    kind: inventory
    output: inventory.csv
  - name: counts
    kind: count
    output: counts.csv
report:
  database: runs.db
`

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(validManifest))
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.Cohort.Root)
	assert.Equal(t, "VSPRT_*", cfg.Cohort.Filter)
	assert.True(t, cfg.Loader.UnsortedDICOM)
	require.Len(t, cfg.Stages, 2)
	assert.Equal(t, "inv", cfg.Stages[0].Name)
	assert.Equal(t, "inventory", cfg.Stages[0].Kind)
	assert.Equal(t, "runs.db", cfg.Report.Database)
}

func TestParse_FilterDefault(t *testing.T) {
	cfg, err := Parse([]byte(`
cohort:
  root: ./data
stages:
  - name: inv
    kind: inventory
    output: inventory.csv
`))
	require.NoError(t, err)
	assert.Equal(t, "*", cfg.Cohort.Filter)
	assert.False(t, cfg.Loader.UnsortedDICOM)
	assert.Empty(t, cfg.Report.Database)
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	_, err := Parse([]byte(`
cohort:
  root: ./data
  colour: blue
stages:
  - name: inv
    kind: inventory
    output: inventory.csv
`))
	assert.ErrorContains(t, err, "decode manifest")
}

func TestParse_DuplicateStageNames(t *testing.T) {
	_, err := Parse([]byte(`
cohort:
  root: ./data
stages:
  - name: inv
    kind: inventory
    output: a.csv
  - name: inv
    kind: count
    output: b.csv
`))
	assert.ErrorContains(t, err, "duplicate stage name")
}

func TestValidate_MissingRoot(t *testing.T) {
	errs := Validate([]byte(`
stages:
  - name: inv
    kind: inventory
    output: inventory.csv
`))
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if e.Field == "cohort.root" {
			found = true
		}
	}
	assert.True(t, found, "expected an error for cohort.root, got %v", errs)
}

func TestValidate_NoStages(t *testing.T) {
	errs := Validate([]byte(`
cohort:
  root: ./data
`))
	assert.NotEmpty(t, errs)
}

func TestValidate_EmptyStageName(t *testing.T) {
	errs := Validate([]byte(`
cohort:
  root: ./data
stages:
  - name: ""
    kind: inventory
    output: inventory.csv
`))
	assert.NotEmpty(t, errs)
}

func TestValidate_EmptyManifest(t *testing.T) {
	errs := Validate([]byte(""))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "empty manifest")
}

func TestValidate_Valid(t *testing.T) {
	assert.Nil(t, Validate([]byte(validManifest)))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read manifest")
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validManifest), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.Cohort.Root)
}
