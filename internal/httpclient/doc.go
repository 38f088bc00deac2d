// Package httpclient builds the HTTP clients used by download workers and
// the latency probe. The address override is threaded through an explicit
// dialer rather than mutating any global connection factory, so the URL
// hostname keeps driving the Host header and TLS SNI while the TCP
// connection goes to the overridden address.
package httpclient
