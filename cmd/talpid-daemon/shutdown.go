package main

import "sync"

// ShutdownHandle is shared between the service host (internal/svchost, on
// platforms with an OS service dispatcher) and the top-level runner's main
// loop, so a Stop/Preshutdown control can unblock the main loop without
// svchost importing this package (SUPPLEMENTED FEATURES item 2). Signal is
// safe to call more than once and from more than one goroutine — the OS
// signal handler and the service control translator can both race to shut
// the daemon down.
type ShutdownHandle struct {
	once sync.Once
	ch   chan struct{}
}

// NewShutdownHandle returns a ready-to-use handle.
func NewShutdownHandle() *ShutdownHandle {
	return &ShutdownHandle{ch: make(chan struct{})}
}

// Signal requests shutdown. Idempotent.
func (h *ShutdownHandle) Signal() {
	h.once.Do(func() { close(h.ch) })
}

// Done returns a channel that closes once Signal has been called.
func (h *ShutdownHandle) Done() <-chan struct{} {
	return h.ch
}
