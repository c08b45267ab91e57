package svchost

import "time"

// Recovery actions configured at install time (§4.E "Recovery actions"):
// three restarts with increasing delay, then a 900s window after which the
// SCM's failure count resets.
var recoveryDelays = []time.Duration{
	3 * time.Second,
	30 * time.Second,
	600 * time.Second,
}

const failureResetWindow = 900 * time.Second
