package sync

import "sync/atomic"

// Counter is a monotonically increasing counter safe for concurrent use.
// The zero value is ready to use.
type Counter struct {
	value atomic.Uint64
}

func (c *Counter) Get() uint64 {
	return c.value.Load()
}

func (c *Counter) Inc() uint64 {
	return c.value.Add(1)
}

func (c *Counter) Add(n uint64) uint64 {
	return c.value.Add(n)
}
