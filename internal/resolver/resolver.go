// Package resolver turns a target URL plus an optional address override
// into a concrete endpoint descriptor for display and reporting. The core
// run path never resolves anything itself; it receives the endpoint as
// opaque input.
package resolver

import (
	"context"
	"fmt"
	"net"
	"net/url"
)

// Source states where the endpoint address came from.
type Source string

const (
	SourceDNS      Source = "dns"
	SourceOverride Source = "override"
)

// Endpoint describes the resolved connection target.
type Endpoint struct {
	Hostname string `json:"hostname"`
	Port     string `json:"port"`
	IP       string `json:"ip"`
	Source   Source `json:"source"`
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s (%s, %s)", e.Hostname, e.IP, e.Source)
}

// Resolve parses the target URL and determines the address the test will
// connect to: the override when given, otherwise the first DNS answer.
func Resolve(ctx context.Context, target, override string) (Endpoint, error) {
	u, err := url.Parse(target)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse target: %w", err)
	}
	hostname := u.Hostname()
	if hostname == "" {
		return Endpoint{}, fmt.Errorf("target %q has no host", target)
	}

	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}

	if override != "" {
		if net.ParseIP(override) == nil {
			return Endpoint{}, fmt.Errorf("override %q is not a valid IP", override)
		}
		return Endpoint{Hostname: hostname, Port: port, IP: override, Source: SourceOverride}, nil
	}

	addrs, err := net.DefaultResolver.LookupHost(ctx, hostname)
	if err != nil {
		return Endpoint{Hostname: hostname, Port: port, Source: SourceDNS}, fmt.Errorf("resolve %s: %w", hostname, err)
	}
	return Endpoint{Hostname: hostname, Port: port, IP: addrs[0], Source: SourceDNS}, nil
}
