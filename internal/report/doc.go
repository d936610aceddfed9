// Package report defines the vocabulary of a driver run: phase
// results, ordered run records, summaries, and the canonical JSON
// serialization used for run digests and golden tests.
//
// The types here are plain values with no behavior beyond aggregation.
// The driver appends records as it executes; everything else (CLI
// output, persistence, digests) derives from the finished RunReport.
package report
