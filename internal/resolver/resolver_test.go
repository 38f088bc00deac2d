package resolver_test

import (
	"context"
	"testing"

	"saturate/internal/resolver"
)

func TestResolveOverride(t *testing.T) {
	ep, err := resolver.Resolve(context.Background(), "https://speed.example.com/file.bin", "203.0.113.4")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if ep.IP != "203.0.113.4" || ep.Source != resolver.SourceOverride {
		t.Fatalf("unexpected endpoint: %+v", ep)
	}
	if ep.Hostname != "speed.example.com" || ep.Port != "443" {
		t.Fatalf("unexpected host/port: %+v", ep)
	}
}

func TestResolveDefaultPorts(t *testing.T) {
	ep, err := resolver.Resolve(context.Background(), "http://speed.example.com/file.bin", "203.0.113.4")
	if err != nil {
		t.Fatal(err)
	}
	if ep.Port != "80" {
		t.Fatalf("expected port 80, got %s", ep.Port)
	}

	ep, err = resolver.Resolve(context.Background(), "http://speed.example.com:8080/f", "203.0.113.4")
	if err != nil {
		t.Fatal(err)
	}
	if ep.Port != "8080" {
		t.Fatalf("explicit port lost: %s", ep.Port)
	}
}

func TestResolveBadOverride(t *testing.T) {
	if _, err := resolver.Resolve(context.Background(), "http://example.com/", "not-an-ip"); err == nil {
		t.Fatal("expected error for invalid override")
	}
}

func TestResolveLocalhost(t *testing.T) {
	ep, err := resolver.Resolve(context.Background(), "http://localhost/", "")
	if err != nil {
		t.Skipf("localhost did not resolve: %v", err)
	}
	if ep.IP == "" || ep.Source != resolver.SourceDNS {
		t.Fatalf("unexpected endpoint: %+v", ep)
	}
}
