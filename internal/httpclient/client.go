package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Options shape a client for one run.
type Options struct {
	Timeout         time.Duration // bounds one request including body read
	AddressOverride string        // literal IP to dial instead of the URL host
	MaxConnsPerHost int           // 0 means the worker count should be passed
}

// NewClient returns an HTTP client tuned for many concurrent streaming
// downloads against a single host.
func NewClient(opt Options) *http.Client {
	if opt.Timeout < 0 {
		opt.Timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	dialCtx := dialer.DialContext
	if opt.AddressOverride != "" {
		dialCtx = overrideDialContext(dialer, opt.AddressOverride)
	}

	perHost := opt.MaxConnsPerHost
	if perHost <= 0 {
		perHost = 256
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialCtx,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   perHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   opt.Timeout,
		Transport: transport,
	}
}

// overrideDialContext rewrites the dial address to the override IP while
// keeping the original port. Name resolution is skipped entirely.
func overrideDialContext(dialer *net.Dialer, override string) func(context.Context, string, string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		_, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		return dialer.DialContext(ctx, network, net.JoinHostPort(override, port))
	}
}
