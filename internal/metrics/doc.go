// Package metrics holds the per-run measurement state: the shared byte
// counter written by download workers and the throughput/latency time
// series recorded by the sampler.
package metrics
