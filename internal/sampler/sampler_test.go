package sampler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"saturate/internal/metrics"
	"saturate/internal/sampler"
)

type fixedProbe struct {
	latency time.Duration
	ok      bool
	calls   int
	mu      sync.Mutex
}

func (f *fixedProbe) Measure(ctx context.Context) (time.Duration, bool) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.latency, f.ok
}

func (f *fixedProbe) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingEmitter struct {
	mu    sync.Mutex
	stats []sampler.LiveStats
}

func (r *recordingEmitter) Emit(stats sampler.LiveStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, stats)
}

func (r *recordingEmitter) snapshot() []sampler.LiveStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sampler.LiveStats(nil), r.stats...)
}

func TestSamplerRecordsThroughputDeltas(t *testing.T) {
	var counter metrics.ByteCounter
	collector := metrics.NewCollector()

	s := sampler.New(sampler.Options{
		Counter:   &counter,
		Collector: collector,
		Interval:  20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	// Feed bytes while the sampler ticks.
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		for i := 0; i < 10; i++ {
			counter.Add(1024 * 1024)
			time.Sleep(10 * time.Millisecond)
		}
	}()
	<-feedDone

	cancel()
	s.Join()

	samples := collector.Samples()
	if len(samples) == 0 {
		t.Fatal("expected throughput samples")
	}
	for i := 1; i < len(samples); i++ {
		if !samples[i].Timestamp.After(samples[i-1].Timestamp) {
			t.Fatalf("timestamps not strictly increasing at %d", i)
		}
	}

	// The deltas must account for everything fed in: total MB across samples
	// times their intervals approximates 10 MB.
	if counter.Value() != 10*1024*1024 {
		t.Fatalf("counter total unexpected: %d", counter.Value())
	}
}

func TestSamplerFinalFlush(t *testing.T) {
	var counter metrics.ByteCounter
	collector := metrics.NewCollector()

	s := sampler.New(sampler.Options{
		Counter:   &counter,
		Collector: collector,
		Interval:  time.Hour, // ticker never fires; only the flush records
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	counter.Add(2 * 1024 * 1024)
	time.Sleep(50 * time.Millisecond)
	cancel()
	s.Join()

	samples := collector.Samples()
	if len(samples) != 1 {
		t.Fatalf("expected exactly the flush sample, got %d", len(samples))
	}
	if samples[0].ThroughputMBps <= 0 {
		t.Fatalf("flush sample lost the remaining delta: %+v", samples[0])
	}
}

func TestSamplerSkipsFailedProbes(t *testing.T) {
	var counter metrics.ByteCounter
	collector := metrics.NewCollector()
	p := &fixedProbe{ok: false}

	s := sampler.New(sampler.Options{
		Counter:   &counter,
		Collector: collector,
		Interval:  15 * time.Millisecond,
		Probe:     p,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(80 * time.Millisecond)
	cancel()
	s.Join()

	if p.callCount() == 0 {
		t.Fatal("probe was never invoked")
	}
	if got := collector.Latencies(); len(got) != 0 {
		t.Fatalf("failed probes must not be recorded, got %d samples", len(got))
	}
	if got := collector.Samples(); len(got) == 0 {
		t.Fatal("throughput sampling must continue despite probe failures")
	}
}

func TestSamplerRecordsLatencyAndEmits(t *testing.T) {
	var counter metrics.ByteCounter
	collector := metrics.NewCollector()
	p := &fixedProbe{latency: 30 * time.Millisecond, ok: true}
	emitter := &recordingEmitter{}

	s := sampler.New(sampler.Options{
		Counter:   &counter,
		Collector: collector,
		Interval:  15 * time.Millisecond,
		Probe:     p,
		Emitter:   emitter,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	counter.Add(512 * 1024)
	time.Sleep(80 * time.Millisecond)
	cancel()
	s.Join()

	lats := collector.Latencies()
	if len(lats) == 0 {
		t.Fatal("expected latency samples")
	}
	if lats[0].LatencyMs != 30 {
		t.Fatalf("expected 30ms, got %v", lats[0].LatencyMs)
	}

	stats := emitter.snapshot()
	if len(stats) == 0 {
		t.Fatal("expected live emissions")
	}
	if !stats[0].LatencyOK || stats[0].LatencyMs != 30 {
		t.Fatalf("live stats missing latency: %+v", stats[0])
	}
	if stats[0].TotalBytes != 512*1024 {
		t.Fatalf("live stats missing byte total: %+v", stats[0])
	}
}

func TestSamplerTickCadence(t *testing.T) {
	var counter metrics.ByteCounter
	collector := metrics.NewCollector()

	s := sampler.New(sampler.Options{
		Counter:   &counter,
		Collector: collector,
		Interval:  25 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(200 * time.Millisecond)
	cancel()
	s.Join()

	// floor(200/25) = 8 ticks plus the final flush, with scheduling slack.
	n := len(collector.Samples())
	if n < 5 || n > 11 {
		t.Fatalf("unexpected sample count %d for 200ms at 25ms interval", n)
	}
}
