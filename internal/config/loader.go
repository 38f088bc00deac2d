package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// If no arguments provided and no config file, show help/usage
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	cfg.AddressOverride = strings.TrimSpace(cfg.AddressOverride)

	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "target"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "ip", "address_override", "address-override"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("ip: %w", err)
		}
		cfg.AddressOverride = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "headers"); ok {
		hdrs, err := asStringMap(raw)
		if err != nil {
			return fmt.Errorf("headers: %w", err)
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range hdrs {
			cfg.Headers[http.CanonicalHeaderKey(k)] = v
		}
	}

	if raw, ok := lookupSetting(settings, "workers"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("workers: %w", err)
		}
		cfg.Workers = val
	}

	if raw, ok := lookupSetting(settings, "duration"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		cfg.Duration = dur
	}

	if raw, ok := lookupSetting(settings, "sampleinterval", "sample_interval", "sample-interval"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("sampleInterval: %w", err)
		}
		cfg.SampleInterval = dur
	}

	if raw, ok := lookupSetting(settings, "requesttimeout", "request_timeout", "request-timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("requestTimeout: %w", err)
		}
		cfg.RequestTimeout = dur
	}

	if raw, ok := lookupSetting(settings, "latencytimeout", "latency_timeout", "latency-timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("latencyTimeout: %w", err)
		}
		cfg.LatencyTimeout = dur
	}

	if raw, ok := lookupSetting(settings, "retrybackoff", "retry_backoff", "retry-backoff"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("retryBackoff: %w", err)
		}
		cfg.RetryBackoff = dur
	}

	if raw, ok := lookupSetting(settings, "rate"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}
		cfg.Rate = val
	}

	if raw, ok := lookupSetting(settings, "sweep"); ok {
		sweep, err := parseSweep(raw)
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		mergeSweep(&cfg.Sweep, sweep)
	}

	if raw, ok := lookupSetting(settings, "asserts", "assert"); ok {
		asserts, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("asserts: %w", err)
		}
		cfg.Asserts = asserts
	}

	if raw, ok := lookupSetting(settings, "jsonoutput", "json_output", "json-output"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("jsonOutput: %w", err)
		}
		cfg.JSONOutput = val
	}

	if raw, ok := lookupSetting(settings, "dashboard"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		cfg.Dashboard = val
	}

	if raw, ok := lookupSetting(settings, "logerrors", "log_errors", "log-errors"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("logErrors: %w", err)
		}
		cfg.LogErrors = val
	}

	if raw, ok := lookupSetting(settings, "htmloutput", "html_output", "html-output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("htmlOutput: %w", err)
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "resultsfile", "results_file", "results-file", "results"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("resultsFile: %w", err)
		}
		cfg.ResultsFile = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tracing, err := parseTracing(raw)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tracing
	}

	return nil
}

func parseSweep(value interface{}) (SweepConfig, error) {
	if value == nil {
		return SweepConfig{}, nil
	}
	entry, err := toStringKeyMap(value)
	if err != nil {
		return SweepConfig{}, err
	}

	var sweep SweepConfig
	sweepSet := false
	if raw, ok := lookupSetting(entry, "enabled"); ok {
		val, err := asBool(raw)
		if err != nil {
			return SweepConfig{}, fmt.Errorf("enabled: %w", err)
		}
		sweep.Enabled = val
		sweepSet = true
	}
	if raw, ok := lookupSetting(entry, "start"); ok {
		val, err := asInt(raw)
		if err != nil {
			return SweepConfig{}, fmt.Errorf("start: %w", err)
		}
		sweep.Start = val
	}
	if raw, ok := lookupSetting(entry, "max"); ok {
		val, err := asInt(raw)
		if err != nil {
			return SweepConfig{}, fmt.Errorf("max: %w", err)
		}
		sweep.Max = val
	}
	if raw, ok := lookupSetting(entry, "step"); ok {
		val, err := asInt(raw)
		if err != nil {
			return SweepConfig{}, fmt.Errorf("step: %w", err)
		}
		sweep.Step = val
	}
	if raw, ok := lookupSetting(entry, "stepduration", "step_duration", "step-duration"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return SweepConfig{}, fmt.Errorf("step_duration: %w", err)
		}
		sweep.StepDuration = dur
	}
	// A sweep block without an explicit enabled key implies enabled.
	if !sweepSet {
		sweep.Enabled = true
	}
	return sweep, nil
}

func mergeSweep(dst *SweepConfig, src SweepConfig) {
	dst.Enabled = src.Enabled
	if src.Start > 0 {
		dst.Start = src.Start
	}
	if src.Max > 0 {
		dst.Max = src.Max
	}
	if src.Step > 0 {
		dst.Step = src.Step
	}
	if src.StepDuration > 0 {
		dst.StepDuration = src.StepDuration
	}
}

func parseTracing(value interface{}) (TracingConfig, error) {
	if value == nil {
		return TracingConfig{}, nil
	}
	entry, err := toStringKeyMap(value)
	if err != nil {
		return TracingConfig{}, err
	}

	var tracing TracingConfig
	if raw, ok := lookupSetting(entry, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("endpoint: %w", err)
		}
		tracing.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("protocol: %w", err)
		}
		tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(entry, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("service_name: %w", err)
		}
		tracing.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("insecure: %w", err)
		}
		tracing.Insecure = val
	}
	if raw, ok := lookupSetting(entry, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("sample_rate: %w", err)
		}
		tracing.SampleRate = val
	}
	return tracing, nil
}
