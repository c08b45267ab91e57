package eventipc

import "runtime"

// EndpointPath derives the per-session IPC endpoint path from a session
// ID (§6): a Windows Named Pipe path or a Unix socket path, each seeded
// with the session ID so concurrent sessions never collide and a stale
// path from a previous run cannot be guessed.
func EndpointPath(sessionID string) string {
	if runtime.GOOS == "windows" {
		return `\\.\pipe\talpid-openvpn-` + sessionID
	}
	return "/tmp/talpid-openvpn-" + sessionID
}
