// Package runner orchestrates one bounded-duration throughput test: it owns
// the run's byte counter and cancellation, starts the worker pool and the
// sampler, waits out the duration, joins everything, and freezes the result.
package runner
