package output

import (
	"encoding/json"
	"fmt"
	"io"

	"saturate/internal/runner"
	"saturate/internal/sweep"
)

// PrintReport outputs a human-readable summary of one run.
func PrintReport(w io.Writer, res *runner.Result) {
	fmt.Fprintln(w, "\n--- Throughput Test Results ---")
	fmt.Fprintf(w, "Target:            %s\n", res.TargetURL)
	if res.AddressOverride != "" {
		fmt.Fprintf(w, "Address Override:  %s\n", res.AddressOverride)
	}
	fmt.Fprintf(w, "Workers:           %d\n", res.Workers)
	fmt.Fprintf(w, "Duration:          %.1fs\n", res.DurationSeconds)
	fmt.Fprintf(w, "Total Transferred: %.2f MB (%d bytes)\n", res.TotalMB, res.TotalBytes)
	fmt.Fprintf(w, "Avg Throughput:    %.2f MB/s\n", res.AvgThroughputMBps)
	if res.MinThroughputMBps != nil && res.MaxThroughputMBps != nil {
		fmt.Fprintf(w, "Min Throughput:    %.2f MB/s\n", *res.MinThroughputMBps)
		fmt.Fprintf(w, "Max Throughput:    %.2f MB/s\n", *res.MaxThroughputMBps)
	}

	if len(res.LatencySamples) > 0 {
		fmt.Fprintln(w, "\nLatency:")
		fmt.Fprintf(w, "  Mean:            %.1fms\n", res.AvgLatencyMs)
		if p := res.LatencyPercentiles; p != nil {
			fmt.Fprintf(w, "  P50:             %.1fms\n", p.P50Ms)
			fmt.Fprintf(w, "  P90:             %.1fms\n", p.P90Ms)
			fmt.Fprintf(w, "  P99:             %.1fms\n", p.P99Ms)
		}
	} else {
		fmt.Fprintln(w, "\nLatency:           unavailable")
	}
}

// PrintSweepReport outputs a human-readable summary of a concurrency sweep.
func PrintSweepReport(w io.Writer, res *sweep.Result) {
	fmt.Fprintln(w, "\n--- Concurrency Sweep Results ---")
	fmt.Fprintf(w, "Steps:             %d\n", len(res.Points))
	fmt.Fprintf(w, "Stop Reason:       %s\n", res.StopReason)
	fmt.Fprintf(w, "Best Workers:      %d\n", res.BestWorkers)
	fmt.Fprintf(w, "Best Throughput:   %.2f MB/s\n", res.BestThroughputMBps)
	if len(res.Points) > 0 {
		fmt.Fprintln(w, "\nPoints:")
		for _, pt := range res.Points {
			marker := ""
			if pt.Workers == res.BestWorkers {
				marker = "  <- best"
			}
			fmt.Fprintf(w, "  %4d workers: %8.2f MB/s%s\n", pt.Workers, pt.ThroughputMBps, marker)
		}
	}
}

// PrintJSONReport outputs v as indented JSON. v is a *runner.Result or a
// *sweep.Result.
func PrintJSONReport(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
