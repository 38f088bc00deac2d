package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"saturate/internal/runner"
	"saturate/internal/sweep"
)

// HTMLReportData carries everything the report template renders. Sweep is nil
// for single-run reports.
type HTMLReportData struct {
	GeneratedAt string
	Run         *runner.Result
	Sweep       *sweep.Result
	SamplesJSON string
	LatencyJSON string
	SweepJSON   string
}

// GenerateHTMLReport writes a standalone HTML report with embedded charts.
// run is required; swp may be nil.
func GenerateHTMLReport(w io.Writer, run *runner.Result, swp *sweep.Result) error {
	if run == nil {
		return fmt.Errorf("html report requires a run result")
	}

	samplesJSON, err := json.Marshal(run.Samples)
	if err != nil {
		return fmt.Errorf("marshal samples: %w", err)
	}
	latencyJSON, err := json.Marshal(run.LatencySamples)
	if err != nil {
		return fmt.Errorf("marshal latency samples: %w", err)
	}
	sweepJSON := []byte("null")
	if swp != nil {
		if sweepJSON, err = json.Marshal(swp.Points); err != nil {
			return fmt.Errorf("marshal sweep points: %w", err)
		}
	}

	data := HTMLReportData{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Run:         run,
		Sweep:       swp,
		SamplesJSON: string(samplesJSON),
		LatencyJSON: string(latencyJSON),
		SweepJSON:   string(sweepJSON),
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatFloatPtr": func(f *float64) string {
			if f == nil {
				return "n/a"
			}
			return fmt.Sprintf("%.2f", *f)
		},
		"formatMs": func(f float64) string {
			return fmt.Sprintf("%.1f", f)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Saturate Throughput Report</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #0ea5e9 0%, #2563eb 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 {
            font-size: 2rem;
            margin-bottom: 10px;
        }
        header .meta {
            opacity: 0.9;
            font-size: 0.9rem;
        }
        .content {
            padding: 40px;
        }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #2563eb;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value {
            font-size: 2rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .card .subvalue {
            font-size: 0.85rem;
            color: #6c757d;
            margin-top: 5px;
        }
        .card.best {
            border-left-color: #10b981;
        }
        .section {
            margin-bottom: 40px;
        }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        .chart-container {
            background: white;
            border-radius: 8px;
            padding: 20px;
            margin-bottom: 30px;
            border: 1px solid #e5e7eb;
        }
        .chart-container h3 {
            font-size: 1.1rem;
            margin-bottom: 15px;
            color: #4b5563;
        }
        .chart {
            width: 100%;
            height: 300px;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            background: white;
        }
        th, td {
            text-align: left;
            padding: 12px;
            border-bottom: 1px solid #e5e7eb;
        }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        tr:hover {
            background: #f8f9fa;
        }
        .badge {
            display: inline-block;
            padding: 4px 12px;
            border-radius: 12px;
            font-size: 0.85rem;
            font-weight: 600;
            background: #d1fae5;
            color: #065f46;
        }
        .latency-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
            gap: 15px;
            margin-top: 20px;
        }
        .latency-item {
            background: #f8f9fa;
            padding: 15px;
            border-radius: 6px;
            text-align: center;
        }
        .latency-item .label {
            font-size: 0.85rem;
            color: #6c757d;
            margin-bottom: 5px;
        }
        .latency-item .value {
            font-size: 1.3rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .no-data {
            text-align: center;
            padding: 40px;
            color: #6c757d;
            font-style: italic;
        }
    </style>
    <script src="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.iife.min.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.min.css">
</head>
<body>
    <div class="container">
        <header>
            <h1>Saturate Throughput Report</h1>
            <div class="meta" style="margin-top: 5px;">Target: <a href="{{.Run.TargetURL}}" style="color: white; text-decoration: underline;">{{.Run.TargetURL}}</a></div>
            {{if .Run.AddressOverride}}<div class="meta">Address override: {{.Run.AddressOverride}}</div>{{end}}
            <div class="meta">Generated: {{.GeneratedAt}} | Run: {{.Run.ID}}</div>
        </header>

        <div class="content">
            <!-- Summary Cards -->
            <div class="grid">
                <div class="card">
                    <h3>Workers</h3>
                    <div class="value">{{.Run.Workers}}</div>
                </div>
                <div class="card">
                    <h3>Duration</h3>
                    <div class="value">{{formatFloat .Run.DurationSeconds}}s</div>
                </div>
                <div class="card">
                    <h3>Transferred</h3>
                    <div class="value">{{formatFloat .Run.TotalMB}} MB</div>
                </div>
                <div class="card best">
                    <h3>Avg Throughput</h3>
                    <div class="value">{{formatFloat .Run.AvgThroughputMBps}} MB/s</div>
                    {{if .Run.MinThroughputMBps}}<div class="subvalue">min {{formatFloatPtr .Run.MinThroughputMBps}} / max {{formatFloatPtr .Run.MaxThroughputMBps}}</div>{{end}}
                </div>
            </div>

            <!-- Charts Section -->
            {{if .Run.Samples}}
            <div class="section">
                <h2>Performance Over Time</h2>

                <div class="chart-container">
                    <h3>Throughput (MB/s)</h3>
                    <div id="throughput-chart" class="chart"></div>
                </div>

                {{if .Run.LatencySamples}}
                <div class="chart-container">
                    <h3>Latency (ms)</h3>
                    <div id="latency-chart" class="chart"></div>
                </div>
                {{end}}
            </div>
            {{end}}

            <!-- Latency Statistics -->
            <div class="section">
                <h2>Latency</h2>
                {{if .Run.LatencySamples}}
                <div class="latency-grid">
                    <div class="latency-item">
                        <div class="label">Mean</div>
                        <div class="value">{{formatMs .Run.AvgLatencyMs}} ms</div>
                    </div>
                    {{if .Run.LatencyPercentiles}}
                    <div class="latency-item">
                        <div class="label">P50</div>
                        <div class="value">{{formatMs .Run.LatencyPercentiles.P50Ms}} ms</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P90</div>
                        <div class="value">{{formatMs .Run.LatencyPercentiles.P90Ms}} ms</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P99</div>
                        <div class="value">{{formatMs .Run.LatencyPercentiles.P99Ms}} ms</div>
                    </div>
                    {{end}}
                </div>
                {{else}}
                <div class="no-data">No latency probes completed during this run.</div>
                {{end}}
            </div>

            <!-- Sweep -->
            {{if .Sweep}}
            <div class="section">
                <h2>Concurrency Sweep</h2>
                <div class="grid">
                    <div class="card best">
                        <h3>Best Workers</h3>
                        <div class="value">{{.Sweep.BestWorkers}}</div>
                        <div class="subvalue">{{formatFloat .Sweep.BestThroughputMBps}} MB/s</div>
                    </div>
                    <div class="card">
                        <h3>Stop Reason</h3>
                        <div class="value" style="font-size: 1.2rem;">{{.Sweep.StopReason}}</div>
                    </div>
                </div>

                <div class="chart-container">
                    <h3>Throughput vs. Workers</h3>
                    <div id="sweep-chart" class="chart"></div>
                </div>

                <table>
                    <thead>
                        <tr>
                            <th>Workers</th>
                            <th>Avg Throughput</th>
                            <th></th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Sweep.Points}}
                        <tr>
                            <td>{{.Workers}}</td>
                            <td>{{formatFloat .ThroughputMBps}} MB/s</td>
                            <td>{{if eq .Workers $.Sweep.BestWorkers}}<span class="badge">BEST</span>{{end}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>

    <script>
        const samples = JSON.parse({{.SamplesJSON}});
        const latency = JSON.parse({{.LatencyJSON}});
        const sweepPoints = JSON.parse({{.SweepJSON}});

        function secondsFromStart(points) {
            const start = new Date(points[0].timestamp).getTime();
            return points.map(p => (new Date(p.timestamp).getTime() - start) / 1000);
        }

        if (samples && samples.length > 0) {
            new uPlot({
                width: document.getElementById('throughput-chart').offsetWidth,
                height: 300,
                scales: { x: { time: false } },
                series: [
                    { label: "Time (s)" },
                    {
                        label: "MB/s",
                        stroke: "#2563eb",
                        fill: "rgba(37, 99, 235, 0.1)",
                        width: 2
                    }
                ],
                axes: [
                    { label: "Time (seconds)" },
                    { label: "MB/s" }
                ]
            }, [secondsFromStart(samples), samples.map(s => s.throughput_mbps)],
               document.getElementById('throughput-chart'));
        }

        if (latency && latency.length > 0 && document.getElementById('latency-chart')) {
            new uPlot({
                width: document.getElementById('latency-chart').offsetWidth,
                height: 300,
                scales: { x: { time: false } },
                series: [
                    { label: "Time (s)" },
                    {
                        label: "Latency (ms)",
                        stroke: "#10b981",
                        width: 2
                    }
                ],
                axes: [
                    { label: "Time (seconds)" },
                    { label: "ms" }
                ]
            }, [secondsFromStart(latency), latency.map(s => s.latency_ms)],
               document.getElementById('latency-chart'));
        }

        if (sweepPoints && sweepPoints.length > 0) {
            new uPlot({
                width: document.getElementById('sweep-chart').offsetWidth,
                height: 300,
                scales: { x: { time: false } },
                series: [
                    { label: "Workers" },
                    {
                        label: "MB/s",
                        stroke: "#f59e0b",
                        width: 2,
                        points: { show: true, size: 8 }
                    }
                ],
                axes: [
                    { label: "Workers" },
                    { label: "MB/s" }
                ]
            }, [sweepPoints.map(p => p.workers), sweepPoints.map(p => p.throughput_mbps)],
               document.getElementById('sweep-chart'));
        }
    </script>
</body>
</html>
`
