// Package config loads and validates the YAML run manifest. The
// manifest is an explicit value threaded into run construction; there
// is no process-wide configuration object, so concurrent or repeated
// runs cannot interfere with each other.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StageConfig selects and configures one stage of the run.
type StageConfig struct {
	// Name labels the stage instance in reports and logs.
	Name string `yaml:"name"`

	// Kind picks the factory from the stage registry.
	Kind string `yaml:"kind"`

	// Output is the CSV path the stage flushes to at teardown.
	Output string `yaml:"output"`
}

// Config is the full run manifest.
type Config struct {
	Cohort struct {
		// Root is the directory holding one subdirectory per patient.
		Root string `yaml:"root"`

		// Filter is a glob matched against patient folder names.
		Filter string `yaml:"filter"`
	} `yaml:"cohort"`

	Loader struct {
		// UnsortedDICOM marks the input layout as a flat dump rather
		// than pre-organized per-modality subdirectories.
		UnsortedDICOM bool `yaml:"unsorted_dicom"`
	} `yaml:"loader"`

	Stages []StageConfig `yaml:"stages"`

	Report struct {
		// Database is the SQLite path run reports are saved to.
		// Empty disables persistence.
		Database string `yaml:"database"`
	} `yaml:"report"`
}

// Load reads, decodes, and validates a manifest file.
//
// Decoding is strict (unknown YAML fields are an error), then the raw
// document is checked against the embedded CUE schema. Validation
// errors are returned joined into a single error; use Validate
// directly for the per-field breakdown.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates manifest bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	if errs := Validate(data); len(errs) > 0 {
		return nil, fmt.Errorf("invalid manifest: %w", errs[0])
	}

	seen := make(map[string]bool, len(cfg.Stages))
	for _, st := range cfg.Stages {
		if seen[st.Name] {
			return nil, fmt.Errorf("invalid manifest: duplicate stage name: %s", st.Name)
		}
		seen[st.Name] = true
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults mirrors the schema defaults onto the decoded struct.
func applyDefaults(cfg *Config) {
	if cfg.Cohort.Filter == "" {
		cfg.Cohort.Filter = "*"
	}
}
