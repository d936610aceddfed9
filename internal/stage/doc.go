// Package stage provides the builtin processing stages and the
// value-based registry that selects them at run construction time.
//
// Stages are independent variant types implementing driver.Stage.
// Each owns its accumulated state and its output sink; nothing is
// shared between stages or across runs.
package stage
