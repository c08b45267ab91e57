package tunnel

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/mullvad/talpid-daemon/internal/procwatch"
)

// buildCommand assembles the tunnel binary invocation (§6 "Tunnel command
// line"): remote endpoint, user-pass file, tunnel options, IPv6 enable,
// CA path, optional proxy settings, optional proxy-auth file, optional
// local proxy port, plugin with args [ipc_path], optional log path,
// Linux `ip` binary path, Windows TAP alias.
func buildCommand(cfg Config, credsPath string, proxyAuthPath string, proxyPort int, ipcPath string) *exec.Cmd {
	args := []string{
		"--remote", cfg.RemoteHost, fmt.Sprintf("%d", cfg.RemotePort),
		"--auth-user-pass", credsPath,
		"--ca", cfg.CACertPath,
	}

	if cfg.EnableIPv6 {
		args = append(args, "--tun-ipv6")
	}

	args = append(args, cfg.ExtraArgs...)

	if runtime.GOOS == "linux" && cfg.IPBinaryPath != "" {
		args = append(args, "--iproute", cfg.IPBinaryPath)
	}
	if runtime.GOOS == "windows" && cfg.TapAlias != "" {
		args = append(args, "--dev-node", cfg.TapAlias)
	}

	if proxyPort != 0 {
		args = append(args, "--http-proxy", "127.0.0.1", fmt.Sprintf("%d", proxyPort))
		if proxyAuthPath != "" {
			args = append(args, "--http-proxy-user-pass", proxyAuthPath)
		}
	}

	if cfg.LogPath != "" {
		args = append(args, "--log", cfg.LogPath)
	}

	args = append(args, "--plugin", cfg.PluginPath, ipcPath)

	cmd := exec.Command(cfg.OpenVPNPath, args...)
	cmd.Dir = filepath.Dir(cfg.OpenVPNPath)
	procwatch.PrepareGroup(cmd)
	return cmd
}
