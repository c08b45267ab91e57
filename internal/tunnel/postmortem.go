package tunnel

import (
	"os"
	"runtime"
	"strings"

	"github.com/mullvad/talpid-daemon/internal/taperr"
)

// These substrings are a wire contract with the OpenVPN binary's own log
// output on Windows when the TAP-Windows adapter is missing or disabled,
// not an implementation detail — carried over verbatim (§4.C postmortem).
const (
	logMissingTapAdapter = "There are no TAP-Windows adapters on this system"
	logDisabledTapAdapter = "CreateFile failed on TAP device"
)

// postmortem is invoked when the child exited with a non-zero status and
// was not closed by us (§4.C outcome table). On Windows it scans the
// configured log file for known TAP-adapter failure strings; elsewhere,
// and when no readable log is available, it reports a generic
// ChildProcessDied.
func postmortem(logPath string) error {
	if runtime.GOOS == "windows" && logPath != "" {
		if data, err := os.ReadFile(logPath); err == nil {
			text := string(data)
			switch {
			case strings.Contains(text, logMissingTapAdapter):
				return errMissingTapAdapter
			case strings.Contains(text, logDisabledTapAdapter):
				return errDisabledTapAdapter
			}
		}
	}
	return errChildProcessDied
}

var (
	errMissingTapAdapter  = taperr.Sentinel(taperr.KindRuntime, "missing TAP adapter")
	errDisabledTapAdapter = taperr.Sentinel(taperr.KindRuntime, "disabled TAP adapter")
	errChildProcessDied   = taperr.Sentinel(taperr.KindRuntime, "child process died")
)
