package tunnel

import "github.com/mullvad/talpid-daemon/internal/taperr"

// childProcessError wraps an I/O failure from spawning or waiting on the
// child (§4.C step 7 and the child-watcher outcome table). op is either
// "Failed to start" (spawn) or "Error when waiting" (wait).
func childProcessError(op string, cause error) error {
	kind := taperr.KindRuntime
	if op == "Failed to start" {
		kind = taperr.KindSetup
	}
	return taperr.New(kind, "child process: "+op, cause)
}

// eventDispatcherError reports that the Event IPC Server failed to bind
// before posting ready (§4.C step 5).
func eventDispatcherError(cause error) error {
	return taperr.New(taperr.KindSetup, "event dispatcher", cause)
}

// errEventDispatcherExited is the terminal outcome when the IPC watcher
// wins the race (§4.C outcome table).
var errEventDispatcherExited = taperr.Sentinel(taperr.KindRuntime, "event dispatcher exited")

// proxyExited reports that the coupled proxy exited before the tunnel did
// (§4.C "Proxy coupling").
func proxyExited(detail string) error {
	return taperr.New(taperr.KindRuntime, "proxy exited: "+detail, nil)
}

// errMonitorProxyError reports a failure monitoring the proxy itself,
// distinct from the proxy exiting cleanly or uncleanly.
var errMonitorProxyError = taperr.Sentinel(taperr.KindRuntime, "monitor proxy error")
