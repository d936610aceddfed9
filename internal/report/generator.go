package report

import "github.com/google/uuid"

// Generator produces run identifiers for new reports.
// Implemented by UUIDv7Generator (production) and the fixed generator
// in testutil (deterministic tests and golden comparison).
type Generator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run identifiers.
//
// UUIDv7 embeds a timestamp in the most significant bits, so run IDs
// sort by creation time. This keeps `radbatch history` output in
// chronological order without a secondary sort key.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
