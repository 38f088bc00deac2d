package runner

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"saturate/internal/httpclient"
	"saturate/internal/metrics"
	"saturate/internal/probe"
	"saturate/internal/sampler"
	"saturate/internal/worker"
)

const bytesPerMB = 1024 * 1024

// defaultJoinGrace bounds how long Run waits for workers and the sampler
// after cancellation before declaring the run stuck.
const defaultJoinGrace = 30 * time.Second

// Options configure one run. The struct is copied at Run time; callers can
// reuse it across runs with different worker counts.
type Options struct {
	TargetURL       string
	AddressOverride string
	Workers         int
	Duration        time.Duration
	SampleInterval  time.Duration // defaults to 1s
	RequestTimeout  time.Duration // defaults to 10s
	LatencyTimeout  time.Duration // defaults to 5s
	RetryBackoff    time.Duration // defaults to 1s
	RatePerSecond   int           // 0 means unlimited
	Headers         http.Header
	JoinGrace       time.Duration // defaults to 30s

	Emitter sampler.Emitter // optional live progress sink
	Logger  worker.FailureLogger

	// Injection points for tests.
	Client      *http.Client
	ProbeClient *http.Client
	Probe       sampler.Prober
}

func (o *Options) normalize() {
	if o.SampleInterval <= 0 {
		o.SampleInterval = time.Second
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.LatencyTimeout <= 0 {
		o.LatencyTimeout = 5 * time.Second
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = time.Second
	}
	if o.JoinGrace <= 0 {
		o.JoinGrace = defaultJoinGrace
	}
}

func (o *Options) validate() error {
	var issues []string

	target := strings.TrimSpace(o.TargetURL)
	if target == "" {
		issues = append(issues, "target is required")
	} else if u, err := url.Parse(target); err != nil || u.Hostname() == "" || (u.Scheme != "http" && u.Scheme != "https") {
		issues = append(issues, "target must be a valid http(s) URL")
	}
	if o.Workers < 1 {
		issues = append(issues, "workers must be >= 1")
	}
	if o.Duration <= 0 {
		issues = append(issues, "duration must be > 0")
	}

	if len(issues) > 0 {
		return &ConfigError{issues: issues}
	}
	return nil
}

// Runner executes bounded-duration runs.
type Runner struct {
	opt Options
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// Run performs one run: fresh counter, one worker pool, one sampler. When it
// returns, no task it started is still running. Cancelling ctx ends the run
// early; the result then covers the elapsed wall time.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.opt.validate(); err != nil {
		return nil, err
	}

	client := r.opt.Client
	if client == nil {
		client = httpclient.NewClient(httpclient.Options{
			Timeout:         r.opt.RequestTimeout,
			AddressOverride: r.opt.AddressOverride,
			MaxConnsPerHost: r.opt.Workers,
		})
	}

	prober := r.opt.Probe
	if prober == nil {
		probeClient := r.opt.ProbeClient
		if probeClient == nil {
			probeClient = httpclient.NewClient(httpclient.Options{
				Timeout:         r.opt.LatencyTimeout,
				AddressOverride: r.opt.AddressOverride,
			})
		}
		prober = probe.New(r.opt.TargetURL, probeClient, r.opt.LatencyTimeout, r.opt.Headers)
	}

	var limiter *rate.Limiter
	if r.opt.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.opt.RatePerSecond), r.opt.RatePerSecond)
	}

	// Per-run state: never shared with another run.
	counter := &metrics.ByteCounter{}
	collector := metrics.NewCollector()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := worker.NewPool(worker.Options{
		Workers:      r.opt.Workers,
		Target:       r.opt.TargetURL,
		Client:       client,
		Headers:      r.opt.Headers,
		Counter:      counter,
		RetryBackoff: r.opt.RetryBackoff,
		Limiter:      limiter,
		Logger:       r.opt.Logger,
	})

	smp := sampler.New(sampler.Options{
		Counter:   counter,
		Collector: collector,
		Interval:  r.opt.SampleInterval,
		Probe:     prober,
		Emitter:   r.opt.Emitter,
	})

	startedAt := time.Now()
	pool.Start(runCtx)
	smp.Start(runCtx)

	select {
	case <-time.After(r.opt.Duration):
	case <-ctx.Done():
	}
	elapsed := time.Since(startedAt)
	cancel()

	if err := joinWithGrace(pool, smp, r.opt.JoinGrace); err != nil {
		return nil, err
	}

	durationSeconds := r.opt.Duration.Seconds()
	if ctx.Err() != nil && elapsed < r.opt.Duration {
		durationSeconds = elapsed.Seconds()
	}

	return buildResult(r.opt, startedAt, durationSeconds, counter.Value(), collector), nil
}

func joinWithGrace(pool *worker.Pool, smp *sampler.Sampler, grace time.Duration) error {
	done := make(chan struct{})
	go func() {
		pool.Join()
		smp.Join()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(grace):
		return &JoinTimeoutError{Grace: grace}
	}
}
