package svchost

// Windows service-specific exit codes: 0 signals a clean, OS-initiated
// stop; anything else induces the SCM's configured recovery actions.
const exitCodeServiceSpecificFailure = 1

// ExitCode implements §4.E "Exit code policy": if the daemon's main loop
// returned nil AND the OS itself requested the shutdown (Stop/Preshutdown
// ran and set CleanShutdown), exit 0; otherwise report a service-specific
// failure code so the SCM applies recovery actions.
func ExitCode(mainLoopErr error, cleanShutdown bool) int {
	if mainLoopErr == nil && cleanShutdown {
		return 0
	}
	return exitCodeServiceSpecificFailure
}
