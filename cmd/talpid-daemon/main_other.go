//go:build !windows

package main

import (
	"context"

	"github.com/mullvad/talpid-daemon/internal/core"
)

// runEntrypoint on platforms without an OS service dispatcher always runs
// the daemon in the foreground; runAsService is accepted for flag-surface
// parity with Windows but has no effect here (§4.E scopes the SCM dispatch
// path to "host OS models that use a service dispatcher").
func runEntrypoint(opts Options, runAsService bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go waitForInterrupt(opts.Shutdown)

	core.Log.Infof("Core", "running in foreground, press Ctrl+C to stop")
	return runDaemon(ctx, opts)
}
