// Package sampler converts the raw byte counter into throughput and latency
// time series on a fixed tick.
package sampler

import (
	"context"
	"time"

	"saturate/internal/metrics"
)

const bytesPerMB = 1024 * 1024

// Prober measures one round trip; false means the probe failed or timed out.
type Prober interface {
	Measure(ctx context.Context) (time.Duration, bool)
}

// Emitter receives a live snapshot after every tick. Emissions are side
// effects only and never feed back into the recorded series.
type Emitter interface {
	Emit(stats LiveStats)
}

// LiveStats is one progress snapshot.
type LiveStats struct {
	Elapsed    time.Duration
	TotalBytes int64
	InstMBps   float64
	AvgMBps    float64
	LatencyMs  float64
	LatencyOK  bool
}

// Options configure a Sampler.
type Options struct {
	Counter   *metrics.ByteCounter // required
	Collector *metrics.Collector   // required
	Interval  time.Duration        // defaults to 1s
	Probe     Prober               // optional; nil disables latency sampling
	Emitter   Emitter              // optional
}

// Sampler ticks at a fixed interval, recording throughput from counter
// deltas and latency from the probe. Exactly one Sampler runs per test run.
type Sampler struct {
	opt  Options
	done chan struct{}
}

func New(opt Options) *Sampler {
	if opt.Interval <= 0 {
		opt.Interval = time.Second
	}
	return &Sampler{
		opt:  opt,
		done: make(chan struct{}),
	}
}

// Start launches the sampling loop. It returns immediately; use Join to
// wait for the final flush after cancellation.
func (s *Sampler) Start(ctx context.Context) {
	go s.run(ctx)
}

// Join blocks until the sampler has flushed and exited.
func (s *Sampler) Join() {
	<-s.done
}

func (s *Sampler) run(ctx context.Context) {
	defer close(s.done)

	start := time.Now()
	last := start
	var lastBytes int64

	ticker := time.NewTicker(s.opt.Interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			last, lastBytes = s.tick(ctx, start, now, last, lastBytes, true)
			if ctx.Err() != nil {
				return
			}
		case <-ctx.Done():
			// One final tick flushes whatever arrived since the last one.
			s.tick(ctx, start, time.Now(), last, lastBytes, false)
			return
		}
	}
}

// tick records one throughput sample and, when probing is enabled, at most
// one latency sample. It returns the new baseline for the next delta.
func (s *Sampler) tick(ctx context.Context, start, now, last time.Time, lastBytes int64, probeLatency bool) (time.Time, int64) {
	elapsed := now.Sub(last)
	if elapsed <= 0 {
		return last, lastBytes
	}

	total := s.opt.Counter.Value()
	delta := total - lastBytes
	instMBps := float64(delta) / elapsed.Seconds() / bytesPerMB
	s.opt.Collector.RecordSample(now, instMBps)

	stats := LiveStats{
		Elapsed:    now.Sub(start),
		TotalBytes: total,
		InstMBps:   instMBps,
	}
	if sinceStart := stats.Elapsed.Seconds(); sinceStart > 0 {
		stats.AvgMBps = float64(total) / sinceStart / bytesPerMB
	}

	// A cancelled run skips the probe; the flush tick only settles bytes.
	if probeLatency && s.opt.Probe != nil && ctx.Err() == nil {
		if latency, ok := s.opt.Probe.Measure(ctx); ok {
			s.opt.Collector.RecordLatency(now, latency)
			stats.LatencyMs = float64(latency) / float64(time.Millisecond)
			stats.LatencyOK = true
		}
	}

	if s.opt.Emitter != nil {
		s.opt.Emitter.Emit(stats)
	}

	return now, total
}
