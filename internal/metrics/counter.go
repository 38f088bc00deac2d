package metrics

import "sync/atomic"

// ByteCounter is a concurrency-safe running total of bytes received during
// one test run. All workers add to it; the sampler reads it. The value is
// monotonically non-decreasing for the lifetime of a run.
type ByteCounter struct {
	n atomic.Int64
}

// Add records n more received bytes. Negative deltas are ignored.
func (c *ByteCounter) Add(n int64) {
	if n <= 0 {
		return
	}
	c.n.Add(n)
}

// Value returns the current total.
func (c *ByteCounter) Value() int64 {
	return c.n.Load()
}

// Reset zeroes the counter. Only the owning runner calls this, before any
// worker starts.
func (c *ByteCounter) Reset() {
	c.n.Store(0)
}
