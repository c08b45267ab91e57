package svchost

import (
	"sync"
	"time"
)

// logoffToSuspendWindow is the maximum gap between an interactive logoff
// and a Suspend event that still counts as a hibernation, per §4.E
// Rationale: a real hibernation fires the interactive session's logoff
// immediately before suspending session 0.
const logoffToSuspendWindow = 5 * time.Second

// HibernationDetector distinguishes a hibernate-then-resume from a plain
// sleep by watching for an interactive session logoff immediately
// preceding a Suspend power event (§4.E "Hibernation detector").
type HibernationDetector struct {
	restart func()

	mu                    sync.Mutex
	lastInteractiveLogoff time.Time
	haveLogoff            bool
	restartOnResume       bool
}

// NewHibernationDetector creates a detector that calls restart when it
// concludes the daemon should restart itself after a resume.
func NewHibernationDetector(restart func()) *HibernationDetector {
	return &HibernationDetector{restart: restart}
}

// Logoff records a session logoff. interactive reports whether the logoff
// counts as interactive. cmd/talpid-daemon passes
// HasInteractiveLogonSession(), which checks whether any LSA logon session
// is interactive; it does not match the specific session that logged off.
func (d *HibernationDetector) Logoff(interactive bool, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !interactive {
		d.haveLogoff = false
		return
	}
	d.lastInteractiveLogoff = at
	d.haveLogoff = true
}

// Suspend records a Suspend power event. If it falls within
// logoffToSuspendWindow of a just-recorded interactive logoff, the
// detector arms should_restart_on_resume.
func (d *HibernationDetector) Suspend(at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.haveLogoff && at.Sub(d.lastInteractiveLogoff) <= logoffToSuspendWindow {
		d.restartOnResume = true
	}
	d.haveLogoff = false
}

// Resume records a Resume power event. If should_restart_on_resume is
// armed, it invokes restart and disarms the flag.
func (d *HibernationDetector) Resume() {
	d.mu.Lock()
	shouldRestart := d.restartOnResume
	d.restartOnResume = false
	d.mu.Unlock()

	if shouldRestart {
		d.restart()
	}
}
