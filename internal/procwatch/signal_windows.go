//go:build windows

package procwatch

import (
	"errors"
	"os"
	"os/exec"

	"golang.org/x/sys/windows"
)

// gracefulStop asks the process to exit via CTRL_BREAK_EVENT. Windows has
// no SIGTERM equivalent for an arbitrary process; CTRL_BREAK_EVENT is the
// nearest signal-like mechanism and only reaches a process that was
// started in its own process group (see PrepareGroup, which sets
// CREATE_NEW_PROCESS_GROUP for exactly this reason and which
// internal/tunnel calls before starting the child).
func gracefulStop(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(cmd.Process.Pid))
}

// killProcess force-terminates the process. Idempotent: terminating an
// already-exited process returns ERROR_ACCESS_DENIED, or os.ErrProcessDone
// once it has been waited on, which is swallowed since the desired end
// state already holds.
func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	err := cmd.Process.Kill()
	if err != nil && isAlreadyExited(err) {
		return nil
	}
	return err
}

func isAlreadyExited(err error) bool {
	return errors.Is(err, windows.ERROR_ACCESS_DENIED) || errors.Is(err, windows.ERROR_INVALID_HANDLE) || errors.Is(err, os.ErrProcessDone)
}
