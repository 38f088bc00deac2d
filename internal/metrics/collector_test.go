package metrics_test

import (
	"testing"
	"time"

	"saturate/internal/metrics"
)

func TestCollectorSeriesOrdering(t *testing.T) {
	c := metrics.NewCollector()
	base := time.Now()
	for i := 0; i < 5; i++ {
		c.RecordSample(base.Add(time.Duration(i)*time.Second), float64(i))
	}

	samples := c.Samples()
	if len(samples) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(samples))
	}
	for i := 1; i < len(samples); i++ {
		if !samples[i].Timestamp.After(samples[i-1].Timestamp) {
			t.Fatalf("timestamps not strictly increasing at index %d", i)
		}
	}
}

func TestCollectorSnapshotIsCopy(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordSample(time.Now(), 1.0)

	snap := c.Samples()
	snap[0].ThroughputMBps = 99

	if got := c.Samples()[0].ThroughputMBps; got != 1.0 {
		t.Fatalf("snapshot mutation leaked into collector: %v", got)
	}
}

func TestCollectorPercentiles(t *testing.T) {
	c := metrics.NewCollector()
	now := time.Now()
	for i := 1; i <= 100; i++ {
		c.RecordLatency(now.Add(time.Duration(i)*time.Second), time.Duration(i)*time.Millisecond)
	}

	p, ok := c.Percentiles()
	if !ok {
		t.Fatal("expected percentiles to be available")
	}
	if p.P50Ms < 45 || p.P50Ms > 55 {
		t.Fatalf("p50 out of range: %v", p.P50Ms)
	}
	if p.P99Ms < 95 || p.P99Ms > 101 {
		t.Fatalf("p99 out of range: %v", p.P99Ms)
	}
}

func TestCollectorPercentilesEmpty(t *testing.T) {
	c := metrics.NewCollector()
	if _, ok := c.Percentiles(); ok {
		t.Fatal("expected no percentiles for empty collector")
	}
}

func TestCollectorLatencyConversion(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordLatency(time.Now(), 250*time.Millisecond)

	lats := c.Latencies()
	if len(lats) != 1 {
		t.Fatalf("expected 1 latency sample, got %d", len(lats))
	}
	if lats[0].LatencyMs != 250 {
		t.Fatalf("expected 250ms, got %v", lats[0].LatencyMs)
	}
}
