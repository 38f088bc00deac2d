package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector accumulates the two time series for a single run. Only the
// run's sampler appends; progress reporters and the final report read
// snapshots. A Collector is never shared between runs.
type Collector struct {
	mu        sync.Mutex
	samples   []Sample
	latencies []LatencySample
	hist      *hdrhistogram.Histogram
}

// LatencyPercentiles summarizes the probe latency distribution.
type LatencyPercentiles struct {
	P50Ms float64 `json:"p50_ms" yaml:"p50_ms"`
	P90Ms float64 `json:"p90_ms" yaml:"p90_ms"`
	P99Ms float64 `json:"p99_ms" yaml:"p99_ms"`
}

func NewCollector() *Collector {
	// Track probe round trips from 1µs up to 60s with 3 significant figures.
	return &Collector{
		hist: hdrhistogram.New(1, 60_000_000, 3),
	}
}

// RecordSample appends one throughput observation.
func (c *Collector) RecordSample(ts time.Time, throughputMBps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, Sample{Timestamp: ts, ThroughputMBps: throughputMBps})
}

// RecordLatency appends one successful probe measurement.
func (c *Collector) RecordLatency(ts time.Time, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latencies = append(c.latencies, LatencySample{
		Timestamp: ts,
		LatencyMs: float64(latency) / float64(time.Millisecond),
	})

	us := latency.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)
}

// Samples returns a copy of the throughput series.
func (c *Collector) Samples() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sample(nil), c.samples...)
}

// Latencies returns a copy of the latency series.
func (c *Collector) Latencies() []LatencySample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LatencySample(nil), c.latencies...)
}

// Percentiles returns P50/P90/P99 of the recorded probe latencies and false
// when no latency was ever recorded.
func (c *Collector) Percentiles() (LatencyPercentiles, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hist.TotalCount() == 0 {
		return LatencyPercentiles{}, false
	}
	toMs := func(q float64) float64 {
		return float64(time.Duration(c.hist.ValueAtQuantile(q))*time.Microsecond) / float64(time.Millisecond)
	}
	return LatencyPercentiles{
		P50Ms: toMs(50),
		P90Ms: toMs(90),
		P99Ms: toMs(99),
	}, true
}
