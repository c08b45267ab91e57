//go:build windows

package procwatch

import (
	"os/exec"
	"syscall"
)

// PrepareGroup must be called on cmd before Start() for NiceKill's
// CTRL_BREAK_EVENT to be deliverable: CREATE_NEW_PROCESS_GROUP puts the
// child in its own process group so the console control event targets it
// and not this daemon's own process tree.
func PrepareGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= syscall.CREATE_NEW_PROCESS_GROUP
}
