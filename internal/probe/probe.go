// Package probe measures single round-trip latency to the target with a
// lightweight HEAD request. One call is one probe; there are no retries.
package probe

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Probe issues latency checks against a fixed target.
type Probe struct {
	client  *http.Client
	target  string
	headers http.Header
	timeout time.Duration
}

// New builds a probe. The client should carry the latency timeout; timeout
// additionally bounds each call via context so a stuck probe cannot outlive
// its tick.
func New(target string, client *http.Client, timeout time.Duration, headers http.Header) *Probe {
	if client == nil {
		client = http.DefaultClient
	}
	return &Probe{
		client:  client,
		target:  target,
		headers: headers,
		timeout: timeout,
	}
}

// Measure performs one HEAD round trip. It returns the elapsed time and true
// when the response completes with a 2xx status within the timeout, and
// zero and false otherwise.
func (p *Probe) Measure(ctx context.Context) (time.Duration, bool) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.target, nil)
	if err != nil {
		return 0, false
	}
	for key, values := range p.headers {
		for _, val := range values {
			req.Header.Add(key, val)
		}
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, false
	}
	elapsed := time.Since(start)

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, false
	}
	return elapsed, true
}
