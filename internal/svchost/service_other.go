//go:build !windows

package svchost

import "errors"

// errNoServiceDispatcher is returned by Install/Uninstall on platforms
// with no OS service dispatcher model (§4.E operates "only where the host
// OS model uses a service dispatcher"; launchd/systemd integration is a
// referenced collaborator, not part of this spec).
var errNoServiceDispatcher = errors.New("svchost: no service dispatcher on this platform")

// IsHostedService always reports false on platforms with no service
// dispatcher model.
func IsHostedService() bool { return false }

// Install always fails on this platform.
func Install(exePath string) error { return errNoServiceDispatcher }

// Uninstall always fails on this platform.
func Uninstall() error { return errNoServiceDispatcher }
