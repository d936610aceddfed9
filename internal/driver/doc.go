// Package driver implements the sequential batch driver: a fixed list
// of stages executed entity-major over a list of patient folder
// locators, with per-stage failure isolation and an ordered run
// report.
//
// All execution is single-threaded. There is no cancellation or
// timeout primitive inside the driver; callers needing bounded
// execution time wrap the loader or stages externally. Scaling across
// machines is done by running independent drivers over disjoint
// locator subsets and merging reports afterward.
package driver
