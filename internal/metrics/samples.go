package metrics

import "time"

// Sample is one throughput observation: bytes received since the previous
// tick converted to MB/s.
type Sample struct {
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	ThroughputMBps float64   `json:"throughput_mbps" yaml:"throughput_mbps"`
}

// LatencySample is one successful round-trip measurement. Ticks whose probe
// failed or timed out produce no LatencySample at all.
type LatencySample struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	LatencyMs float64   `json:"latency_ms" yaml:"latency_ms"`
}
