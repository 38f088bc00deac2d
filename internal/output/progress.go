package output

import (
	"fmt"
	"io"
	"sync"

	"saturate/internal/sampler"
)

// ProgressReporter renders live run stats as a single rewritten console line.
// It receives updates from the sampler on each tick.
type ProgressReporter struct {
	mu     sync.Mutex
	writer io.Writer
	wrote  bool
}

// NewProgressReporter writes progress lines to w.
func NewProgressReporter(w io.Writer) *ProgressReporter {
	if w == nil {
		w = io.Discard
	}
	return &ProgressReporter{writer: w}
}

// Emit implements sampler.Emitter.
func (p *ProgressReporter) Emit(st sampler.LiveStats) {
	latency := "n/a"
	if st.LatencyOK {
		latency = fmt.Sprintf("%.1fms", st.LatencyMs)
	}
	line := fmt.Sprintf("\r[%5.1fs] total %.1f MB | now %.2f MB/s | avg %.2f MB/s | latency %s",
		st.Elapsed.Seconds(),
		float64(st.TotalBytes)/(1024*1024),
		st.InstMBps,
		st.AvgMBps,
		latency,
	)

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.writer, line)
	p.wrote = true
}

// Finish terminates the progress line so later output starts on a fresh one.
func (p *ProgressReporter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.wrote {
		fmt.Fprintln(p.writer)
		p.wrote = false
	}
}
