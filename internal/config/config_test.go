package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := Defaults()
	cfg.TargetURL = "https://speed.example.com/file.bin"
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsMissingTarget(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "target is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateIssues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers must be >= 1"},
		{"zero duration", func(c *Config) { c.Duration = 0 }, "duration must be > 0"},
		{"negative duration", func(c *Config) { c.Duration = -time.Second }, "duration must be > 0"},
		{"zero sample interval", func(c *Config) { c.SampleInterval = 0 }, "sample-interval must be > 0"},
		{"bad scheme", func(c *Config) { c.TargetURL = "ftp://example.com/file" }, "scheme must be http or https"},
		{"bad ip", func(c *Config) { c.AddressOverride = "not-an-ip" }, "not a valid address"},
		{"negative rate", func(c *Config) { c.Rate = -1 }, "rate must be >= 0"},
		{"dashboard and json", func(c *Config) { c.Dashboard = true; c.JSONOutput = true }, "mutually exclusive"},
		{"sweep max below start", func(c *Config) { c.Sweep.Enabled = true; c.Sweep.Start = 10; c.Sweep.Max = 5 }, "max must be >= start"},
		{"sweep zero step", func(c *Config) { c.Sweep.Enabled = true; c.Sweep.Step = 0 }, "step must be >= 1"},
		{"sweep zero duration", func(c *Config) { c.Sweep.Enabled = true; c.Sweep.StepDuration = 0 }, "step-duration must be > 0"},
		{"bad tracing protocol", func(c *Config) { c.Tracing.Endpoint = "localhost:4317"; c.Tracing.Protocol = "udp" }, "protocol must be"},
		{"bad sample rate", func(c *Config) { c.Tracing.Endpoint = "localhost:4317"; c.Tracing.SampleRate = 1.5 }, "sample_rate"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestValidationErrorIssues(t *testing.T) {
	cfg := Defaults()
	cfg.Workers = 0
	cfg.Duration = 0

	err := cfg.Validate()
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Issues()) != 3 { // missing target, workers, duration
		t.Fatalf("expected 3 issues, got %d: %v", len(verr.Issues()), verr.Issues())
	}
}

func TestIPOverrideAccepted(t *testing.T) {
	cfg := validConfig()
	cfg.AddressOverride = "203.0.113.7"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	cfg.AddressOverride = "2001:db8::1"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error for IPv6: %v", err)
	}
}
