// Package testutil provides deterministic helpers for tests: fixed
// run ID generation and on-disk cohort fixtures.
package testutil

// FixedRunIDGenerator generates the same run ID every time.
//
// This enables deterministic test execution and golden snapshot
// comparison: the same cohort with the same generator produces
// byte-identical report snapshots.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for
// concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator returning id. An empty id
// falls back to "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run ID.
//
// Implements report.Generator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
