// Package dashboard renders a live terminal UI for a running throughput test.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"saturate/internal/sampler"
)

// TestConfig holds run configuration parameters for display.
type TestConfig struct {
	TargetURL       string
	AddressOverride string
	Workers         int
	Duration        time.Duration
	Rate            int // download requests per second (0 = unlimited)
	Timeout         time.Duration
	ConfigFile      string
}

// Dashboard renders live run metrics. It implements sampler.Emitter; the
// sampler pushes a LiveStats snapshot every tick and the dashboard redraws on
// its own refresh cadence.
type Dashboard struct {
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid              *ui.Grid
	throughputSparkle *widgets.SparklineGroup
	latencySparkle    *widgets.SparklineGroup
	progressGauge     *widgets.Gauge
	summaryPara       *widgets.Paragraph
	metricsPara       *widgets.Paragraph

	throughputHistory []float64
	latencyHistory    []float64
	latest            sampler.LiveStats
	haveStats         bool
	startTime         time.Time
	testConfig        TestConfig
}

// New creates a new Dashboard. shutdownFunc is invoked when the user quits
// from the UI.
func New(cfg TestConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		ctx:               ctx,
		cancel:            cancel,
		shutdownFunc:      shutdownFunc,
		throughputHistory: make([]float64, 0, 100),
		latencyHistory:    make([]float64, 0, 100),
		startTime:         time.Now(),
		testConfig:        cfg,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	// Throughput Sparkline
	tput := widgets.NewSparkline()
	tput.Title = "MB/s"
	tput.LineColor = ui.ColorBlue
	tput.Data = []float64{0}

	d.throughputSparkle = widgets.NewSparklineGroup(tput)
	d.throughputSparkle.Title = "Throughput"
	d.throughputSparkle.BorderStyle.Fg = ui.ColorCyan

	// Latency Sparkline
	lat := widgets.NewSparkline()
	lat.Title = "Latency (ms)"
	lat.LineColor = ui.ColorGreen
	lat.Data = []float64{0}

	d.latencySparkle = widgets.NewSparklineGroup(lat)
	d.latencySparkle.Title = "Latency"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	// Run Progress Gauge
	d.progressGauge = widgets.NewGauge()
	d.progressGauge.Title = "Run Progress"
	d.progressGauge.Percent = 0
	d.progressGauge.BarColor = ui.ColorBlue
	d.progressGauge.BorderStyle.Fg = ui.ColorCyan
	d.progressGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	// Summary Paragraph
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Test Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	// Metrics Paragraph
	d.metricsPara = widgets.NewParagraph()
	d.metricsPara.Title = "Metrics"
	d.metricsPara.Text = "Waiting for data..."
	d.metricsPara.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.18,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.progressGauge),
		),
		ui.NewRow(0.33,
			ui.NewCol(0.6, d.throughputSparkle),
			ui.NewCol(0.4, d.metricsPara),
		),
		ui.NewRow(0.33,
			ui.NewCol(1.0, d.latencySparkle),
		),
	)
}

// Emit implements sampler.Emitter.
func (d *Dashboard) Emit(st sampler.LiveStats) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.latest = st
	d.haveStats = true

	d.throughputHistory = append(d.throughputHistory, st.InstMBps)
	if len(d.throughputHistory) > 100 {
		d.throughputHistory = d.throughputHistory[1:]
	}
	if st.LatencyOK {
		d.latencyHistory = append(d.latencyHistory, st.LatencyMs)
		if len(d.latencyHistory) > 100 {
			d.latencyHistory = d.latencyHistory[1:]
		}
	}
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			// Drain any remaining events
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Do not return here; wait for Stop() to cancel context
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the latest sampler snapshot.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.haveStats {
		return
	}
	st := d.latest

	if len(d.throughputHistory) > 0 {
		d.throughputSparkle.Sparklines[0].Data = d.throughputHistory
		d.throughputSparkle.Title = fmt.Sprintf(
			"Throughput | Now: %.2f MB/s | Avg: %.2f MB/s",
			st.InstMBps,
			st.AvgMBps,
		)
	}

	if len(d.latencyHistory) > 0 {
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		latest := "n/a"
		if st.LatencyOK {
			latest = fmt.Sprintf("%.1fms", st.LatencyMs)
		}
		d.latencySparkle.Title = fmt.Sprintf("Latency | Latest: %s", latest)
	}

	percent := 0
	if d.testConfig.Duration > 0 {
		percent = int((st.Elapsed.Seconds() / d.testConfig.Duration.Seconds()) * 100)
		if percent > 100 {
			percent = 100
		}
	}
	d.progressGauge.Percent = percent
	d.progressGauge.Label = fmt.Sprintf("%s / %s", st.Elapsed.Round(time.Second), d.testConfig.Duration)

	d.summaryPara.Text = fmt.Sprintf(
		"Target: %s\n%s\nElapsed: %s",
		d.testConfig.TargetURL,
		d.formatTestParams(),
		st.Elapsed.Round(time.Second),
	)

	latency := "n/a"
	if st.LatencyOK {
		latency = fmt.Sprintf("%.1fms", st.LatencyMs)
	}
	d.metricsPara.Text = fmt.Sprintf(
		"Transferred:       %.1f MB\nCurrent:           %.2f MB/s\nAverage:           %.2f MB/s\nLatency:           %s",
		float64(st.TotalBytes)/(1024*1024),
		st.InstMBps,
		st.AvgMBps,
		latency,
	)
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

// formatTestParams formats the run configuration parameters for display.
func (d *Dashboard) formatTestParams() string {
	var parts []string

	if d.testConfig.Workers > 0 {
		parts = append(parts, fmt.Sprintf("Workers: %d", d.testConfig.Workers))
	}
	if d.testConfig.AddressOverride != "" {
		parts = append(parts, fmt.Sprintf("IP: %s", d.testConfig.AddressOverride))
	}
	if d.testConfig.Rate > 0 {
		parts = append(parts, fmt.Sprintf("Rate: %d/s", d.testConfig.Rate))
	} else {
		parts = append(parts, "Rate: unlimited")
	}
	if d.testConfig.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %s", d.testConfig.Duration))
	}
	if d.testConfig.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", d.testConfig.Timeout))
	}
	if d.testConfig.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", d.testConfig.ConfigFile))
	}

	if len(parts) == 0 {
		return ""
	}

	return strings.Join(parts, " | ")
}
