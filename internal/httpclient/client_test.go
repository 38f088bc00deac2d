package httpclient_test

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"saturate/internal/httpclient"
)

func TestClientTimeoutFloor(t *testing.T) {
	client := httpclient.NewClient(httpclient.Options{Timeout: -time.Second})
	if client.Timeout != 0 {
		t.Fatalf("negative timeout should be clamped to 0, got %s", client.Timeout)
	}
}

// The override dialer must connect to the override address while the request
// still carries the original URL host.
func TestAddressOverrideDialsOverride(t *testing.T) {
	var gotHost string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	host, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}

	client := httpclient.NewClient(httpclient.Options{
		Timeout:         2 * time.Second,
		AddressOverride: host,
	})

	// The URL names a host that does not resolve; only the override dialer
	// can make this request succeed.
	resp, err := client.Get("http://saturate-test.invalid:" + port + "/file")
	if err != nil {
		t.Fatalf("request through override failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if gotHost != "saturate-test.invalid:"+port {
		t.Fatalf("Host header lost original hostname: %q", gotHost)
	}
}

func TestPerHostConnectionCap(t *testing.T) {
	client := httpclient.NewClient(httpclient.Options{MaxConnsPerHost: 8})
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("unexpected transport type %T", client.Transport)
	}
	if transport.MaxIdleConnsPerHost != 8 {
		t.Fatalf("expected per-host cap 8, got %d", transport.MaxIdleConnsPerHost)
	}
}
