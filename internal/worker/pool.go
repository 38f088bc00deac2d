// Package worker runs the download loops that generate load against the
// target. Workers stream response bodies, crediting every chunk to the
// shared byte counter, and retry transient failures until cancelled.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"saturate/internal/metrics"
)

const (
	defaultChunkSize    = 8192
	defaultRetryBackoff = time.Second
	maxErrorBodyBytes   = 1024
)

// HTTPError represents a download attempt rejected with a non-success status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// FailureLogger receives per-attempt transient errors.
type FailureLogger interface {
	LogFailure(err error)
}

// Options configure a Pool for one run.
type Options struct {
	Workers      int
	Target       string
	Client       *http.Client // carries the per-request timeout
	Headers      http.Header
	Counter      *metrics.ByteCounter // required; the only state workers mutate
	RetryBackoff time.Duration        // pause after a failed attempt
	ChunkSize    int                  // read buffer size per worker
	Limiter      *rate.Limiter        // optional cap on request starts
	Logger       FailureLogger        // optional
}

// Pool is a fixed-size set of download workers. Start launches them; Join
// blocks until every worker has observed cancellation and exited.
type Pool struct {
	opt Options
	wg  sync.WaitGroup
}

func NewPool(opt Options) *Pool {
	if opt.Workers < 1 {
		opt.Workers = 1
	}
	if opt.ChunkSize <= 0 {
		opt.ChunkSize = defaultChunkSize
	}
	if opt.RetryBackoff <= 0 {
		opt.RetryBackoff = defaultRetryBackoff
	}
	if opt.Client == nil {
		opt.Client = http.DefaultClient
	}
	return &Pool{opt: opt}
}

// Start launches all workers. Each worker loops until ctx is cancelled;
// no worker failure ever propagates out of the pool.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(p.opt.Workers)
	for i := 0; i < p.opt.Workers; i++ {
		go p.worker(ctx)
	}
}

// Join blocks until all workers have exited. The wait is bounded by one
// in-flight request timeout plus one backoff pause.
func (p *Pool) Join() {
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	buf := make([]byte, p.opt.ChunkSize)

	for {
		if ctx.Err() != nil {
			return
		}
		if p.opt.Limiter != nil {
			if err := p.opt.Limiter.Wait(ctx); err != nil {
				return
			}
		}

		err := p.download(ctx, buf)
		if err == nil || ctx.Err() != nil {
			continue
		}

		if p.opt.Logger != nil {
			p.opt.Logger.LogFailure(err)
		}
		select {
		case <-time.After(p.opt.RetryBackoff):
		case <-ctx.Done():
			return
		}
	}
}

// download performs one streaming GET, crediting each received chunk to the
// counter. Cancellation aborts the in-flight body read via the request
// context, so workers never block past one request's timeout.
func (p *Pool) download(ctx context.Context, buf []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opt.Target, nil)
	if err != nil {
		return err
	}
	for key, values := range p.opt.Headers {
		for _, val := range values {
			req.Header.Add(key, val)
		}
	}

	resp, err := p.opt.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Anything outside 2xx after redirects is a failed attempt. A 3xx that
	// was not followed carries no payload and must hit the backoff path.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		_, _ = io.Copy(io.Discard, resp.Body)
		if readErr != nil {
			return readErr
		}
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var delivered int64
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			delivered += int64(n)
			p.opt.Counter.Add(int64(n))
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			if ctx.Err() != nil {
				return nil // cancelled mid-stream, not a failure
			}
			if delivered > 0 && isTimeout(err) {
				// The request timeout cut a stream that was still
				// delivering. Reconnect immediately, no log or backoff.
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
