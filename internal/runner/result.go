package runner

import (
	"time"

	"github.com/oklog/ulid/v2"

	"saturate/internal/metrics"
)

// Result is the frozen outcome of one run. It is built after every task has
// joined and is safe to share and serialize.
type Result struct {
	ID              string    `json:"id" yaml:"id"`
	TargetURL       string    `json:"target" yaml:"target"`
	AddressOverride string    `json:"address_override,omitempty" yaml:"address_override,omitempty"`
	Workers         int       `json:"workers" yaml:"workers"`
	StartedAt       time.Time `json:"started_at" yaml:"started_at"`
	DurationSeconds float64   `json:"duration_seconds" yaml:"duration_seconds"`

	TotalBytes        int64   `json:"total_bytes" yaml:"total_bytes"`
	TotalMB           float64 `json:"total_mb" yaml:"total_mb"`
	AvgThroughputMBps float64 `json:"avg_throughput_mbps" yaml:"avg_throughput_mbps"`
	// nil means no samples; a 0.0 minimum from a stalled sample is valid.
	MinThroughputMBps *float64 `json:"min_throughput_mbps,omitempty" yaml:"min_throughput_mbps,omitempty"`
	MaxThroughputMBps *float64 `json:"max_throughput_mbps,omitempty" yaml:"max_throughput_mbps,omitempty"`
	AvgLatencyMs      float64  `json:"avg_latency_ms,omitempty" yaml:"avg_latency_ms,omitempty"`

	LatencyPercentiles *metrics.LatencyPercentiles `json:"latency_percentiles,omitempty" yaml:"latency_percentiles,omitempty"`

	Samples        []metrics.Sample        `json:"samples" yaml:"samples"`
	LatencySamples []metrics.LatencySample `json:"latency_samples" yaml:"latency_samples"`
}

// buildResult computes the final aggregates. Average throughput is derived
// from the byte total rather than averaging samples, which would be biased
// when the sample count is small.
func buildResult(opt Options, startedAt time.Time, durationSeconds float64, totalBytes int64, collector *metrics.Collector) *Result {
	res := &Result{
		ID:              ulid.Make().String(),
		TargetURL:       opt.TargetURL,
		AddressOverride: opt.AddressOverride,
		Workers:         opt.Workers,
		StartedAt:       startedAt,
		DurationSeconds: durationSeconds,
		TotalBytes:      totalBytes,
		TotalMB:         float64(totalBytes) / bytesPerMB,
		Samples:         collector.Samples(),
		LatencySamples:  collector.Latencies(),
	}

	if durationSeconds > 0 {
		res.AvgThroughputMBps = res.TotalMB / durationSeconds
	}

	if len(res.Samples) > 0 {
		minT := res.Samples[0].ThroughputMBps
		maxT := minT
		for _, s := range res.Samples[1:] {
			if s.ThroughputMBps < minT {
				minT = s.ThroughputMBps
			}
			if s.ThroughputMBps > maxT {
				maxT = s.ThroughputMBps
			}
		}
		res.MinThroughputMBps = &minT
		res.MaxThroughputMBps = &maxT
	}

	if len(res.LatencySamples) > 0 {
		var sum float64
		for _, l := range res.LatencySamples {
			sum += l.LatencyMs
		}
		res.AvgLatencyMs = sum / float64(len(res.LatencySamples))
	}

	if p, ok := collector.Percentiles(); ok {
		res.LatencyPercentiles = &p
	}

	return res
}
