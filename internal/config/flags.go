package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "saturate",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Target flags
	flags.String("target", "", "Download URL to test against")
	flags.String("ip", "", "Literal IP to connect to instead of resolving the target host")
	flags.StringSlice("header", nil, "Additional request header in key=value form")

	// Run shape flags
	flags.IntP("workers", "w", 32, "Number of concurrent download workers")
	flags.DurationP("duration", "d", 60*time.Second, "How long to run the test (e.g. 30s, 1m)")
	flags.Duration("sample-interval", time.Second, "Throughput sampling interval")
	flags.Duration("request-timeout", 10*time.Second, "Per-download-request timeout")
	flags.Duration("latency-timeout", 5*time.Second, "Latency probe timeout")
	flags.Duration("retry-backoff", time.Second, "Pause after a failed download attempt")
	flags.IntP("rate", "r", 0, "Download request starts per second across all workers (0 means unlimited)")

	// Sweep flags
	flags.Bool("sweep", false, "Sweep worker counts to find the throughput-optimal concurrency")
	flags.Int("sweep-start", 1, "Worker count for the first sweep step")
	flags.Int("sweep-max", 200, "Maximum worker count to try")
	flags.Int("sweep-step", 10, "Worker count increment between steps")
	flags.Duration("sweep-duration", 10*time.Second, "Duration of each sweep step")

	// Output flags
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.Bool("dashboard", false, "Show live terminal dashboard")
	flags.Bool("log-errors", false, "Log each failed download attempt to stderr")
	flags.String("html-output", "", "Generate HTML report to the specified file path")
	flags.String("results", "", "Write results to a JSON or YAML file")
	flags.StringSlice("assert", nil, "Result assertion (repeatable, e.g. 'avg_throughput >= 50')")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing flags
	flags.String("trace-endpoint", "", "OTLP endpoint for trace export (empty disables tracing)")
	flags.String("trace-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.Bool("trace-insecure", false, "Skip TLS for OTLP export")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config,
// overriding values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("target") {
		val, err := fs.GetString("target")
		if err != nil {
			return err
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}
	if fs.Changed("ip") {
		val, err := fs.GetString("ip")
		if err != nil {
			return err
		}
		cfg.AddressOverride = strings.TrimSpace(val)
	}
	if fs.Changed("workers") {
		val, err := fs.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = val
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Duration = val
	}
	if fs.Changed("sample-interval") {
		val, err := fs.GetDuration("sample-interval")
		if err != nil {
			return err
		}
		cfg.SampleInterval = val
	}
	if fs.Changed("request-timeout") {
		val, err := fs.GetDuration("request-timeout")
		if err != nil {
			return err
		}
		cfg.RequestTimeout = val
	}
	if fs.Changed("latency-timeout") {
		val, err := fs.GetDuration("latency-timeout")
		if err != nil {
			return err
		}
		cfg.LatencyTimeout = val
	}
	if fs.Changed("retry-backoff") {
		val, err := fs.GetDuration("retry-backoff")
		if err != nil {
			return err
		}
		cfg.RetryBackoff = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("sweep") {
		val, err := fs.GetBool("sweep")
		if err != nil {
			return err
		}
		cfg.Sweep.Enabled = val
	}
	if fs.Changed("sweep-start") {
		val, err := fs.GetInt("sweep-start")
		if err != nil {
			return err
		}
		cfg.Sweep.Start = val
	}
	if fs.Changed("sweep-max") {
		val, err := fs.GetInt("sweep-max")
		if err != nil {
			return err
		}
		cfg.Sweep.Max = val
	}
	if fs.Changed("sweep-step") {
		val, err := fs.GetInt("sweep-step")
		if err != nil {
			return err
		}
		cfg.Sweep.Step = val
	}
	if fs.Changed("sweep-duration") {
		val, err := fs.GetDuration("sweep-duration")
		if err != nil {
			return err
		}
		cfg.Sweep.StepDuration = val
	}
	if fs.Changed("json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}
	if fs.Changed("html-output") {
		val, err := fs.GetString("html-output")
		if err != nil {
			return err
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}
	if fs.Changed("results") {
		val, err := fs.GetString("results")
		if err != nil {
			return err
		}
		cfg.ResultsFile = strings.TrimSpace(val)
	}
	if fs.Changed("assert") {
		val, err := fs.GetStringSlice("assert")
		if err != nil {
			return err
		}
		cfg.Asserts = val
	}
	if fs.Changed("trace-endpoint") {
		val, err := fs.GetString("trace-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("trace-protocol") {
		val, err := fs.GetString("trace-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("trace-insecure") {
		val, err := fs.GetBool("trace-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}

	vals, err := fs.GetStringSlice("header")
	if err != nil {
		return err
	}
	if len(vals) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for _, entry := range vals {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("header must be in key=value format: %s", entry)
			}
			key := http.CanonicalHeaderKey(strings.TrimSpace(parts[0]))
			if key == "" {
				return fmt.Errorf("header key cannot be empty")
			}
			cfg.Headers[key] = strings.TrimSpace(parts[1])
		}
	}

	return nil
}
