package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"saturate/internal/config"
	"saturate/internal/dashboard"
	"saturate/internal/output"
	"saturate/internal/resolver"
	"saturate/internal/runner"
	"saturate/internal/sweep"
	"saturate/internal/threshold"
	"saturate/internal/tracing"
)

type stderrFailureLogger struct {
	mu sync.Mutex
}

func (l *stderrFailureLogger) LogFailure(err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(os.Stderr, "[saturate] request failed: %v\n", err)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Asserts)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer provider.Shutdown(context.Background())

	endpoint, err := resolver.Resolve(ctx, cfg.TargetURL, cfg.AddressOverride)
	if err != nil {
		return fmt.Errorf("resolve target: %w", err)
	}
	if !cfg.JSONOutput && !cfg.Dashboard {
		fmt.Printf("Target: %s\n", endpoint)
	}

	opts := runner.Options{
		TargetURL:       cfg.TargetURL,
		AddressOverride: cfg.AddressOverride,
		Workers:         cfg.Workers,
		Duration:        cfg.Duration,
		SampleInterval:  cfg.SampleInterval,
		RequestTimeout:  cfg.RequestTimeout,
		LatencyTimeout:  cfg.LatencyTimeout,
		RetryBackoff:    cfg.RetryBackoff,
		RatePerSecond:   cfg.Rate,
		Headers:         toHTTPHeaders(cfg.Headers),
	}
	if cfg.LogErrors {
		opts.Logger = &stderrFailureLogger{}
	}

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(dashboard.TestConfig{
			TargetURL:       cfg.TargetURL,
			AddressOverride: cfg.AddressOverride,
			Workers:         cfg.Workers,
			Duration:        cfg.Duration,
			Rate:            cfg.Rate,
			Timeout:         cfg.RequestTimeout,
			ConfigFile:      cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		opts.Emitter = dash
		dash.Start()
		defer dash.Stop()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(os.Stdout)
		opts.Emitter = progress
		defer progress.Finish()
	}

	if cfg.Sweep.Enabled {
		return runSweep(ctx, cfg, opts, provider, progress, thresholds)
	}
	return runSingle(ctx, cfg, opts, provider, progress, thresholds)
}

func runSingle(ctx context.Context, cfg *config.Config, opts runner.Options, provider *tracing.Provider, progress *output.ProgressReporter, thresholds []threshold.Threshold) error {
	runCtx, span := tracing.StartRunSpan(ctx, provider.Tracer(), cfg.TargetURL, cfg.Workers)
	result, err := runner.New(opts).Run(runCtx)
	tracing.EndRunSpan(span, result, err)
	if err != nil {
		return err
	}
	if progress != nil {
		progress.Finish()
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, result); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, result)
	}

	if err := writeArtifacts(cfg, result, nil); err != nil {
		return err
	}
	return checkThresholds(cfg, result, thresholds)
}

func runSweep(ctx context.Context, cfg *config.Config, opts runner.Options, provider *tracing.Provider, progress *output.ProgressReporter, thresholds []threshold.Threshold) error {
	sweepCtx, span := tracing.StartSweepSpan(ctx, provider.Tracer(), cfg.TargetURL, cfg.Sweep.Start, cfg.Sweep.Max, cfg.Sweep.Step)

	ctl := sweep.New(sweep.Options{
		Base:         opts,
		Start:        cfg.Sweep.Start,
		Max:          cfg.Sweep.Max,
		Step:         cfg.Sweep.Step,
		StepDuration: cfg.Sweep.StepDuration,
		OnStep: func(pt sweep.Point, _ *runner.Result) {
			if progress != nil {
				progress.Finish()
				fmt.Printf("step done: %d workers -> %.2f MB/s\n", pt.Workers, pt.ThroughputMBps)
			}
		},
	})

	result, err := ctl.Run(sweepCtx)
	tracing.EndSweepSpan(span, result, err)
	if err != nil {
		return err
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, result); err != nil {
			return err
		}
	} else {
		output.PrintSweepReport(os.Stdout, result)
	}

	// Threshold checks and the HTML run section use the best step's run.
	best := bestRun(result)
	if err := writeArtifacts(cfg, best, result); err != nil {
		return err
	}
	return checkThresholds(cfg, best, thresholds)
}

// bestRun returns the sub-run whose worker count won the sweep.
func bestRun(res *sweep.Result) *runner.Result {
	for _, run := range res.Runs {
		if run != nil && run.Workers == res.BestWorkers {
			return run
		}
	}
	if len(res.Runs) > 0 {
		return res.Runs[len(res.Runs)-1]
	}
	return nil
}

func writeArtifacts(cfg *config.Config, run *runner.Result, swp *sweep.Result) error {
	if cfg.ResultsFile != "" {
		var payload any = run
		if swp != nil {
			payload = swp
		}
		if err := output.WriteResults(cfg.ResultsFile, payload); err != nil {
			return err
		}
		if !cfg.JSONOutput {
			fmt.Printf("Results written to %s\n", cfg.ResultsFile)
		}
	}

	if cfg.HTMLOutput != "" && run != nil {
		f, err := os.Create(cfg.HTMLOutput)
		if err != nil {
			return fmt.Errorf("create html report: %w", err)
		}
		defer f.Close()
		if err := output.GenerateHTMLReport(f, run, swp); err != nil {
			return err
		}
		if !cfg.JSONOutput {
			fmt.Printf("HTML report written to %s\n", cfg.HTMLOutput)
		}
	}
	return nil
}

func checkThresholds(cfg *config.Config, run *runner.Result, thresholds []threshold.Threshold) error {
	if len(thresholds) == 0 {
		return nil
	}
	if run == nil {
		return fmt.Errorf("no run result to evaluate thresholds against")
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(run)
	if !cfg.JSONOutput {
		fmt.Println("\nThresholds:")
		for _, r := range results {
			fmt.Printf("  %s\n", r.Message)
		}
	}
	if !threshold.AllPassed(results) {
		return fmt.Errorf("threshold check failed")
	}
	return nil
}

func toHTTPHeaders(headers map[string]string) http.Header {
	if len(headers) == 0 {
		return nil
	}
	h := make(http.Header, len(headers))
	for k, v := range headers {
		h.Set(k, v)
	}
	return h
}
