// Package svchost implements the service lifecycle core (§4.E): it only
// does anything on host OSes with a service-dispatcher model (Windows);
// elsewhere IsHostedService always reports false and every other entry
// point is inert.
package svchost

import (
	"sync"
	"time"
)

// State is the lifecycle state a Reporter sequences through.
type State int

const (
	StateStartPending State = iota
	StateRunning
	StateStopPending
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStartPending:
		return "start_pending"
	case StateRunning:
		return "running"
	case StateStopPending:
		return "stop_pending"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Controls is a bitmask of controls a state accepts.
type Controls uint32

const (
	ControlStop Controls = 1 << iota
	ControlPreshutdown
	ControlPowerEvent
	ControlSessionChange
)

// acceptedControls returns which controls are valid to report as accepted
// for a given state: none during the pending phases, the full set while
// Running (§4.E "Service status reporter").
func acceptedControls(s State) Controls {
	if s == StateRunning {
		return ControlStop | ControlPreshutdown | ControlPowerEvent | ControlSessionChange
	}
	return 0
}

// Status is a platform-neutral snapshot the Reporter hands to whatever
// sink reports it to the real OS service dispatcher.
type Status struct {
	State      State
	Checkpoint uint32
	Accepts    Controls
	WaitHint   time.Duration
}

// Reporter sequences StartPending → Running → StopPending → Stopped. The
// checkpoint counter increments on every pending report and resets to 0 on
// a terminal (non-pending) report (§4.E, §8 "Service checkpoint
// monotonicity").
type Reporter struct {
	mu         sync.Mutex
	checkpoint uint32
	sink       func(Status)
}

// NewReporter creates a Reporter that calls sink for every status change.
func NewReporter(sink func(Status)) *Reporter {
	return &Reporter{sink: sink}
}

// StartPending reports StartPending with an incremented checkpoint.
func (r *Reporter) StartPending() {
	r.reportPending(StateStartPending, 0)
}

// Running reports Running and resets the checkpoint to 0.
func (r *Reporter) Running() {
	r.reportTerminal(StateRunning)
}

// StopPending reports StopPending with an incremented checkpoint and the
// given wait hint (§6 "Stop-pending hint to the OS: 10s").
func (r *Reporter) StopPending(waitHint time.Duration) {
	r.reportPending(StateStopPending, waitHint)
}

// Stopped reports Stopped and resets the checkpoint to 0.
func (r *Reporter) Stopped() {
	r.reportTerminal(StateStopped)
}

func (r *Reporter) reportPending(state State, waitHint time.Duration) {
	r.mu.Lock()
	r.checkpoint++
	cp := r.checkpoint
	r.mu.Unlock()
	r.sink(Status{State: state, Checkpoint: cp, Accepts: acceptedControls(state), WaitHint: waitHint})
}

func (r *Reporter) reportTerminal(state State) {
	r.mu.Lock()
	r.checkpoint = 0
	r.mu.Unlock()
	r.sink(Status{State: state, Checkpoint: 0, Accepts: acceptedControls(state)})
}
