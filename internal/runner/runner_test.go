package runner_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"saturate/internal/runner"
)

// fixedRateHandler streams chunkSize bytes every interval on each connection.
func fixedRateHandler(chunkSize int, interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		chunk := make([]byte, chunkSize)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				if _, err := w.Write(chunk); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

type silentProbe struct{}

func (silentProbe) Measure(ctx context.Context) (time.Duration, bool) { return 0, false }

type stuckProbe struct {
	release chan struct{}
}

func (s *stuckProbe) Measure(ctx context.Context) (time.Duration, bool) {
	<-s.release
	return 0, false
}

func TestRunRejectsZeroWorkers(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	r := runner.New(runner.Options{
		TargetURL: srv.URL,
		Workers:   0,
		Duration:  time.Second,
	})
	_, err := r.Run(context.Background())

	var cfgErr *runner.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatal("refused run must perform no I/O")
	}
}

func TestRunRejectsZeroDuration(t *testing.T) {
	r := runner.New(runner.Options{
		TargetURL: "http://example.com/file",
		Workers:   4,
		Duration:  0,
	})
	_, err := r.Run(context.Background())
	var cfgErr *runner.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestRunRejectsMalformedTarget(t *testing.T) {
	r := runner.New(runner.Options{
		TargetURL: "not a url",
		Workers:   1,
		Duration:  time.Second,
	})
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestRunAggregates(t *testing.T) {
	// ~2 MB/s per connection: 10 KiB every 5ms.
	srv := httptest.NewServer(fixedRateHandler(10*1024, 5*time.Millisecond))
	defer srv.Close()

	r := runner.New(runner.Options{
		TargetURL:      srv.URL,
		Workers:        1,
		Duration:       1200 * time.Millisecond,
		SampleInterval: 200 * time.Millisecond,
		Client:         srv.Client(),
		Probe:          silentProbe{},
	})

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// The average must be derived from the byte total, not the samples.
	want := res.TotalMB / res.DurationSeconds
	if math.Abs(res.AvgThroughputMBps-want) > 1e-9 {
		t.Fatalf("avg %v inconsistent with total %v over %vs", res.AvgThroughputMBps, res.TotalMB, res.DurationSeconds)
	}

	// ~2 MB/s nominal; generous bounds for CI scheduling.
	if res.AvgThroughputMBps < 0.5 || res.AvgThroughputMBps > 4.0 {
		t.Fatalf("throughput far from the server's fixed rate: %v MB/s", res.AvgThroughputMBps)
	}

	// floor(1200/200) = 6 ticks plus the flush, within slack.
	if n := len(res.Samples); n < 4 || n > 8 {
		t.Fatalf("unexpected sample count %d", n)
	}
	for i := 1; i < len(res.Samples); i++ {
		if !res.Samples[i].Timestamp.After(res.Samples[i-1].Timestamp) {
			t.Fatalf("sample timestamps not strictly increasing at %d", i)
		}
	}

	if res.MinThroughputMBps == nil || res.MaxThroughputMBps == nil {
		t.Fatal("expected min/max aggregates with samples present")
	}
	if *res.MinThroughputMBps > *res.MaxThroughputMBps {
		t.Fatalf("min %v exceeds max %v", *res.MinThroughputMBps, *res.MaxThroughputMBps)
	}
	if res.ID == "" {
		t.Fatal("result ID missing")
	}
	if len(res.LatencySamples) != 0 || res.AvgLatencyMs != 0 {
		t.Fatalf("silent probe must leave latency empty: %+v", res.LatencySamples)
	}
}

func TestResultKeepsZeroMinimumInJSON(t *testing.T) {
	zero := 0.0
	peak := 4.2
	res := runner.Result{
		MinThroughputMBps: &zero,
		MaxThroughputMBps: &peak,
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"min_throughput_mbps":0`) {
		t.Fatalf("a 0.0 minimum from a stalled sample must serialize: %s", data)
	}

	empty, err := json.Marshal(runner.Result{})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(empty), "min_throughput_mbps") {
		t.Fatalf("a run without samples must omit min/max: %s", empty)
	}
}

func TestRunRecordsLatency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 4096))
	}))
	defer srv.Close()

	r := runner.New(runner.Options{
		TargetURL:      srv.URL,
		Workers:        2,
		Duration:       300 * time.Millisecond,
		SampleInterval: 50 * time.Millisecond,
		Client:         srv.Client(),
		ProbeClient:    srv.Client(),
	})

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.LatencySamples) == 0 {
		t.Fatal("expected latency samples against live server")
	}
	if res.AvgLatencyMs <= 0 {
		t.Fatalf("expected positive average latency, got %v", res.AvgLatencyMs)
	}
	if res.LatencyPercentiles == nil {
		t.Fatal("expected latency percentiles")
	}
}

func TestRunEndsEarlyOnCancel(t *testing.T) {
	srv := httptest.NewServer(fixedRateHandler(1024, 5*time.Millisecond))
	defer srv.Close()

	r := runner.New(runner.Options{
		TargetURL:      srv.URL,
		Workers:        2,
		Duration:       10 * time.Second,
		SampleInterval: 50 * time.Millisecond,
		Client:         srv.Client(),
		Probe:          silentProbe{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("cancelled run took too long: %s", elapsed)
	}
	if res.DurationSeconds > 2 {
		t.Fatalf("cancelled run should report elapsed time, got %vs", res.DurationSeconds)
	}
}

func TestRunJoinTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 1024))
	}))
	defer srv.Close()

	stuck := &stuckProbe{release: make(chan struct{})}
	defer close(stuck.release)

	r := runner.New(runner.Options{
		TargetURL:      srv.URL,
		Workers:        1,
		Duration:       100 * time.Millisecond,
		SampleInterval: 20 * time.Millisecond,
		JoinGrace:      200 * time.Millisecond,
		Client:         srv.Client(),
		Probe:          stuck,
	})

	_, err := r.Run(context.Background())
	var joinErr *runner.JoinTimeoutError
	if !errors.As(err, &joinErr) {
		t.Fatalf("expected JoinTimeoutError, got %v", err)
	}
}
