//go:build windows

package tunnel

import "time"

// niceKillTimeout is 30s on Windows: the Windows tunnel driver needs more
// time to tear down (§5 "Timeouts").
func niceKillTimeout() time.Duration {
	return 30 * time.Second
}
