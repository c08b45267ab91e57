package tunnel

import "sync/atomic"

// CloseHandle is a cloneable, idempotent external-shutdown trigger (§4.C
// "Close handle", §9 "shared ownership of child + close flag"). Only the
// first call to Close actually kills the child; later calls are no-ops
// that report the handle was already closed.
type CloseHandle struct {
	closed *atomic.Bool
	kill   func()
}

func newCloseHandle(kill func()) *CloseHandle {
	return &CloseHandle{closed: new(atomic.Bool), kill: kill}
}

// Close sets closed := true atomically and returns whether this call was
// the one that transitioned it (i.e. whether it actually killed the
// child). Safe to call from any goroutine, any number of times.
func (c *CloseHandle) Close() (firstCall bool) {
	if c.closed.CompareAndSwap(false, true) {
		c.kill()
		return true
	}
	return false
}

// Closed reports whether Close has been called, regardless of by whom.
func (c *CloseHandle) Closed() bool {
	return c.closed.Load()
}
