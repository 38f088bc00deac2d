// Package threshold evaluates pass/fail assertions against a finished run,
// for CI-style gating of throughput tests.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"saturate/internal/runner"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric   string  // e.g., "avg_throughput_mbps", "p99_latency_ms"
	Operator string  // e.g., "<", "<=", ">", ">=", "=="
	Value    float64 // The threshold value to compare against
	Raw      string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against a run result.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the run result.
func (e *Evaluator) Evaluate(res *runner.Result) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, res))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, res *runner.Result) Result {
	actual, err := extractMetricValue(t.Metric, res)
	if err != nil {
		return Result{
			Threshold: t,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "PASS"
	if !pass {
		status = "FAIL"
	}

	message := fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value)
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
//   - "avg_throughput_mbps >= 50"
//   - "min_throughput_mbps > 10"
//   - "total_mb >= 1000"
//   - "avg_latency_ms < 30"
//   - "p99_latency_ms < 200"
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	pattern := regexp.MustCompile(`^([a-z0-9_]+)\s*([<>=!]+)\s*([0-9.]+)$`)
	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected: metric operator value, e.g., 'avg_throughput_mbps >= 50')", s)
	}

	metric := matches[1]
	operator := matches[2]
	valueStr := matches[3]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !isValidMetric(metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: %s)", metric, strings.Join(validMetrics, ", "))
	}
	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:   metric,
		Operator: operator,
		Value:    value,
		Raw:      s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}

	return result, nil
}

var validMetrics = []string{
	"avg_throughput_mbps",
	"min_throughput_mbps",
	"max_throughput_mbps",
	"total_mb",
	"avg_latency_ms",
	"p50_latency_ms",
	"p90_latency_ms",
	"p99_latency_ms",
}

func isValidMetric(metric string) bool {
	for _, v := range validMetrics {
		if metric == v {
			return true
		}
	}
	return false
}

func isValidOperator(operator string) bool {
	valid := []string{"<", "<=", ">", ">=", "=="}
	for _, v := range valid {
		if operator == v {
			return true
		}
	}
	return false
}

func extractMetricValue(metric string, res *runner.Result) (float64, error) {
	switch metric {
	case "avg_throughput_mbps":
		return res.AvgThroughputMBps, nil
	case "min_throughput_mbps":
		if res.MinThroughputMBps == nil {
			return 0, fmt.Errorf("no throughput samples recorded")
		}
		return *res.MinThroughputMBps, nil
	case "max_throughput_mbps":
		if res.MaxThroughputMBps == nil {
			return 0, fmt.Errorf("no throughput samples recorded")
		}
		return *res.MaxThroughputMBps, nil
	case "total_mb":
		return res.TotalMB, nil
	case "avg_latency_ms":
		if len(res.LatencySamples) == 0 {
			return 0, fmt.Errorf("no latency samples recorded")
		}
		return res.AvgLatencyMs, nil
	case "p50_latency_ms", "p90_latency_ms", "p99_latency_ms":
		p := res.LatencyPercentiles
		if p == nil {
			return 0, fmt.Errorf("no latency percentiles recorded")
		}
		switch metric {
		case "p50_latency_ms":
			return p.P50Ms, nil
		case "p90_latency_ms":
			return p.P90Ms, nil
		default:
			return p.P99Ms, nil
		}
	default:
		return 0, fmt.Errorf("unknown metric: %s", metric)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
