package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// Config carries everything a single invocation needs: the target, the run
// shape, sweep settings, and output options. It is assembled by the loader
// and frozen before the first run starts.
type Config struct {
	TargetURL       string            `mapstructure:"target"`
	AddressOverride string            `mapstructure:"ip"`
	Workers         int               `mapstructure:"workers"`
	Duration        time.Duration     `mapstructure:"duration"`
	SampleInterval  time.Duration     `mapstructure:"sample_interval"`
	RequestTimeout  time.Duration     `mapstructure:"request_timeout"`
	LatencyTimeout  time.Duration     `mapstructure:"latency_timeout"`
	RetryBackoff    time.Duration     `mapstructure:"retry_backoff"`
	Rate            int               `mapstructure:"rate"`
	Headers         map[string]string `mapstructure:"headers"`
	Sweep           SweepConfig       `mapstructure:"sweep"`
	Asserts         []string          `mapstructure:"asserts"`
	JSONOutput      bool              `mapstructure:"json_output"`
	Dashboard       bool              `mapstructure:"dashboard"`
	LogErrors       bool              `mapstructure:"log_errors"`
	HTMLOutput      string            `mapstructure:"html_output"`
	ResultsFile     string            `mapstructure:"results_file"`
	Tracing         TracingConfig     `mapstructure:"tracing"`
	ConfigFile      string            `mapstructure:"-"`
}

// SweepConfig controls the concurrency sweep: successive runs at
// Start, Start+Step, ... up to Max workers, each lasting StepDuration.
type SweepConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Start        int           `mapstructure:"start"`
	Max          int           `mapstructure:"max"`
	Step         int           `mapstructure:"step"`
	StepDuration time.Duration `mapstructure:"step_duration"`
}

// TracingConfig configures the optional OTLP trace exporter.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Enabled reports whether an exporter endpoint was configured.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// Defaults mirrors the flag defaults so config structs built in code (tests,
// library use) start from the same baseline as the CLI.
func Defaults() *Config {
	return &Config{
		Workers:        32,
		Duration:       60 * time.Second,
		SampleInterval: time.Second,
		RequestTimeout: 10 * time.Second,
		LatencyTimeout: 5 * time.Second,
		RetryBackoff:   time.Second,
		Headers:        map[string]string{},
		Sweep: SweepConfig{
			Start:        1,
			Max:          200,
			Step:         10,
			StepDuration: 10 * time.Second,
		},
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// NewValidationError builds a ValidationError from explicit issues.
func NewValidationError(issues ...string) ValidationError {
	return ValidationError{issues: issues}
}

func (c Config) Validate() error {
	var issues []string

	target := strings.TrimSpace(c.TargetURL)
	if target == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	} else if issue := validateTarget(target); issue != "" {
		issues = append(issues, issue)
	}

	if c.AddressOverride != "" && net.ParseIP(c.AddressOverride) == nil {
		issues = append(issues, fmt.Sprintf("ip %q is not a valid address", c.AddressOverride))
	}
	if c.Workers < 1 {
		issues = append(issues, "workers must be >= 1")
	}
	if c.Duration <= 0 {
		issues = append(issues, "duration must be > 0")
	}
	if c.SampleInterval <= 0 {
		issues = append(issues, "sample-interval must be > 0")
	}
	if c.RequestTimeout <= 0 {
		issues = append(issues, "request-timeout must be > 0")
	}
	if c.LatencyTimeout <= 0 {
		issues = append(issues, "latency-timeout must be > 0")
	}
	if c.RetryBackoff < 0 {
		issues = append(issues, "retry-backoff must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}

	if c.Sweep.Enabled {
		issues = append(issues, validateSweepConfig(c.Sweep)...)
	}

	if c.Tracing.Enabled() {
		issues = append(issues, validateTracingConfig(c.Tracing)...)
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTarget(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Sprintf("target %q is not a valid URL", target)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("target scheme must be http or https, got %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "target host is required"
	}
	return ""
}

func validateSweepConfig(s SweepConfig) []string {
	var issues []string
	if s.Start < 1 {
		issues = append(issues, "sweep: start must be >= 1")
	}
	if s.Max < s.Start {
		issues = append(issues, "sweep: max must be >= start")
	}
	if s.Step < 1 {
		issues = append(issues, "sweep: step must be >= 1")
	}
	if s.StepDuration <= 0 {
		issues = append(issues, "sweep: step-duration must be > 0")
	}
	return issues
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
