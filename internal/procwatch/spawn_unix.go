//go:build !windows

package procwatch

import "os/exec"

// PrepareGroup is a no-op on Unix: SIGTERM already targets the process
// directly without needing a process-group flag.
func PrepareGroup(cmd *exec.Cmd) {}
