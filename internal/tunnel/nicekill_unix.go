//go:build !windows

package tunnel

import "time"

// niceKillTimeout is 4s on Unix (§5 "Timeouts").
func niceKillTimeout() time.Duration {
	return 4 * time.Second
}
