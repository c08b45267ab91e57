// Package tunnel implements the Tunnel Supervisor (§4.C): it runs one
// OpenVPN session end-to-end, combining internal/procwatch (the child
// process handle) and internal/eventipc (the event channel) and racing
// their lifetimes to produce exactly one terminal outcome.
package tunnel

import "github.com/mullvad/talpid-daemon/internal/proxy"

// Config assembles everything the supervisor needs to start one session.
// The caller (the daemon's state machine) is responsible for resolving
// all paths and credentials before calling Start.
type Config struct {
	// OpenVPNPath is the tunnel binary to execute.
	OpenVPNPath string
	// PluginPath is passed as --plugin <path> <ipc-endpoint>.
	PluginPath string

	RemoteHost string
	RemotePort int

	Username string
	Password string

	CACertPath string
	ExtraArgs  []string // tunnel options the caller has already resolved into flags
	EnableIPv6 bool

	// IPBinaryPath is passed to OpenVPN on Linux so it can invoke `ip`
	// without relying on $PATH inside a possibly-stripped environment.
	IPBinaryPath string
	// TapAlias names the TAP adapter to bind to on Windows.
	TapAlias string

	// LogPath, if set, is where OpenVPN writes its own log; used for
	// postmortem scanning on Windows when the process exits uncleanly.
	LogPath string

	// Proxy, if non-nil, is launched before the tunnel binary and its
	// bound local port is passed to OpenVPN as an HTTP/SOCKS proxy.
	Proxy *proxy.Config
	// ProxyUsername/ProxyPassword, if set, materialize a second
	// credentials file for proxy authentication (§4.C step 2).
	ProxyUsername string
	ProxyPassword string
}
