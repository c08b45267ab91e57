package svchost

import (
	"sync/atomic"
	"time"
)

// ControlKind is the subset of OS service-control requests the translator
// understands (§4.E "Service control translator").
type ControlKind int

const (
	ControlUnknown ControlKind = iota
	ControlInterrogate
	ControlRequestStop
	ControlRequestPreshutdown
	ControlRequestPowerEvent
	ControlRequestSessionChange
)

// RawControl is one inbound control request, with an OS-specific
// sub-event code for the two controls that carry one (PowerEvent,
// SessionChange).
type RawControl struct {
	Kind      ControlKind
	EventType uint32
}

// ControlEvent is what the translator forwards to the event monitor for
// Stop/Preshutdown and PowerEvent/SessionChange. Stop/Preshutdown are also
// handled inline before being forwarded, since they must synchronously
// drive the shutdown handle.
type ControlEvent struct {
	Kind      ControlKind
	EventType uint32
}

// stopPendingWaitHint is the 10s hint to the OS service manager (§6).
const stopPendingWaitHint = 10 * time.Second

// Translator accepts RawControl requests and forwards the ones the
// lifecycle core understands onto a bounded channel for the event
// monitor; anything else is NotImplemented.
type Translator struct {
	reporter      *Reporter
	shutdown      func()
	events        chan ControlEvent
	cleanShutdown atomic.Bool
}

// NewTranslator creates a Translator. shutdown is the daemon's shutdown
// handle, invoked synchronously every time Stop or Preshutdown arrives,
// so it must be idempotent.
func NewTranslator(reporter *Reporter, shutdown func()) *Translator {
	return &Translator{
		reporter: reporter,
		shutdown: shutdown,
		events:   make(chan ControlEvent, 16),
	}
}

// Events returns the channel Stop/Preshutdown and PowerEvent/SessionChange
// controls are forwarded on.
func (t *Translator) Events() <-chan ControlEvent {
	return t.events
}

// CleanShutdown reports whether shutdown was ever initiated by the OS via
// Stop or Preshutdown (§4.E "Exit code policy").
func (t *Translator) CleanShutdown() bool {
	return t.cleanShutdown.Load()
}

// Handle dispatches one control request. It returns false for controls
// the translator does not implement, so the caller can report
// NotImplemented to the OS.
func (t *Translator) Handle(ctrl RawControl) (handled bool) {
	switch ctrl.Kind {
	case ControlInterrogate:
		return true
	case ControlRequestStop, ControlRequestPreshutdown:
		t.reporter.StopPending(stopPendingWaitHint)
		t.cleanShutdown.Store(true)
		t.forward(ControlEvent{Kind: ctrl.Kind})
		t.shutdown()
		return true
	case ControlRequestPowerEvent, ControlRequestSessionChange:
		t.forward(ControlEvent{Kind: ctrl.Kind, EventType: ctrl.EventType})
		return true
	default:
		return false
	}
}

func (t *Translator) forward(ev ControlEvent) {
	select {
	case t.events <- ev:
	default:
		// Bounded channel full: the event monitor is falling behind: drop
		// rather than block the SCM callback.
	}
}
