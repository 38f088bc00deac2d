package sweep

import (
	"context"
	"fmt"
	"time"

	"saturate/internal/runner"
)

// DegradationWindow is how many trailing points the stop heuristic inspects.
// DegradationFraction is the minimum decline across that window, as a
// fraction of the best throughput seen so far, for the sweep to stop early.
// The values are carried over from field tuning, not derived.
const (
	DegradationWindow   = 3
	DegradationFraction = 0.1
)

// StopReason says why a sweep terminated.
type StopReason string

const (
	StopReasonDegradation    StopReason = "degradation detected"
	StopReasonRangeExhausted StopReason = "range exhausted"
)

// Point records the average throughput one sub-run achieved.
type Point struct {
	Workers        int     `json:"workers" yaml:"workers"`
	ThroughputMBps float64 `json:"throughput_mbps" yaml:"throughput_mbps"`
}

// Result is the frozen outcome of a sweep.
type Result struct {
	BestWorkers        int              `json:"best_workers" yaml:"best_workers"`
	BestThroughputMBps float64          `json:"best_throughput_mbps" yaml:"best_throughput_mbps"`
	Points             []Point          `json:"points" yaml:"points"`
	StopReason         StopReason       `json:"stop_reason" yaml:"stop_reason"`
	Runs               []*runner.Result `json:"runs,omitempty" yaml:"runs,omitempty"`
}

// runFunc executes one sub-run; tests swap it for a synthetic sequence.
type runFunc func(ctx context.Context, opt runner.Options) (*runner.Result, error)

// Options configure a sweep. Base carries everything but the worker count and
// duration, which the controller sets per step.
type Options struct {
	Base         runner.Options
	Start        int           // first worker count, defaults to 1
	Max          int           // inclusive upper bound on worker counts
	Step         int           // worker count increment, defaults to 1
	StepDuration time.Duration // duration of each sub-run

	// OnStep is called after each completed sub-run, before the stop
	// heuristic. Optional.
	OnStep func(Point, *runner.Result)

	run runFunc
}

// Controller runs the sweep. Sub-runs execute strictly sequentially so their
// throughput figures are comparable.
type Controller struct {
	opt Options
}

func New(opt Options) *Controller {
	if opt.Start < 1 {
		opt.Start = 1
	}
	if opt.Step < 1 {
		opt.Step = 1
	}
	if opt.run == nil {
		opt.run = func(ctx context.Context, ro runner.Options) (*runner.Result, error) {
			return runner.New(ro).Run(ctx)
		}
	}
	return &Controller{opt: opt}
}

// Run executes sub-runs at Start, Start+Step, ... up to Max. Any sub-run
// error aborts the sweep; cancelling ctx stops it between steps.
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	if c.opt.Max < c.opt.Start {
		return nil, fmt.Errorf("sweep max %d is below start %d", c.opt.Max, c.opt.Start)
	}
	if c.opt.StepDuration <= 0 {
		return nil, fmt.Errorf("sweep step duration must be > 0")
	}

	res := &Result{StopReason: StopReasonRangeExhausted}

	for workers := c.opt.Start; workers <= c.opt.Max; workers += c.opt.Step {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		opt := c.opt.Base
		opt.Workers = workers
		opt.Duration = c.opt.StepDuration

		run, err := c.opt.run(ctx, opt)
		if err != nil {
			return nil, fmt.Errorf("sweep step at %d workers: %w", workers, err)
		}

		pt := Point{Workers: workers, ThroughputMBps: run.AvgThroughputMBps}
		res.Points = append(res.Points, pt)
		res.Runs = append(res.Runs, run)

		// Ties keep the earlier, smaller worker count.
		if pt.ThroughputMBps > res.BestThroughputMBps || len(res.Points) == 1 {
			res.BestThroughputMBps = pt.ThroughputMBps
			res.BestWorkers = pt.Workers
		}

		if c.opt.OnStep != nil {
			c.opt.OnStep(pt, run)
		}

		if degraded(res.Points, res.BestThroughputMBps) {
			res.StopReason = StopReasonDegradation
			return res, nil
		}
	}

	return res, nil
}

// degraded reports whether the last DegradationWindow points are
// non-increasing and the decline across them exceeds
// DegradationFraction of the best throughput.
func degraded(points []Point, best float64) bool {
	if len(points) < DegradationWindow {
		return false
	}
	window := points[len(points)-DegradationWindow:]
	for i := 1; i < len(window); i++ {
		if window[i].ThroughputMBps > window[i-1].ThroughputMBps {
			return false
		}
	}
	decline := window[0].ThroughputMBps - window[len(window)-1].ThroughputMBps
	return decline > DegradationFraction*best
}
