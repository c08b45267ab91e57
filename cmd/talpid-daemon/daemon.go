package main

import (
	"context"
	"net/http"
	"time"

	"github.com/mullvad/talpid-daemon/internal/core"
	"github.com/mullvad/talpid-daemon/internal/routemgr"
	"github.com/mullvad/talpid-daemon/internal/version"
)

// Options configures one run of the daemon's state machine. The
// management RPC surface that would populate RequiredRoutes and react to
// VersionInfoPayload/TunnelOutcomePayload events is out of scope (spec.md
// §1) — runDaemon wires the supervisory cores up and lets them run for
// the process lifetime, which is what every collaborator needs regardless
// of what eventually drives them.
type Options struct {
	ProductVersion   string
	VersionEndpoint  string
	CacheDir         string
	ShowBetaReleases bool
	RequiredRoutes   routemgr.RouteSet
	Shutdown         *ShutdownHandle
}

// runDaemon constructs the route manager and version updater, runs them
// until shutdown.Done() fires or ctx is cancelled, and tears them down in
// reverse order. The returned error is what svchost.ExitCode (on Windows)
// or the process exit code (elsewhere) is derived from.
func runDaemon(ctx context.Context, opts Options) error {
	bus := core.NewEventBus()
	bus.Subscribe(core.EventVersionInfo, func(e core.Event) {
		p := e.Payload.(core.VersionInfoPayload)
		if p.SuggestedUpgrade != "" {
			core.Log.Infof("Core", "update available: %s (current %s)", p.SuggestedUpgrade, p.Current)
		}
	})
	bus.Subscribe(core.EventRouteChanged, func(e core.Event) {
		p := e.Payload.(core.RouteChangedPayload)
		core.Log.Infof("Core", "default route changed: gateway=%s", p.NewGateway)
	})

	routeMgr, err := routemgr.New(opts.RequiredRoutes)
	if err != nil {
		return err
	}
	defer func() {
		if err := routeMgr.Stop(); err != nil {
			core.Log.Errorf("Core", "route manager stop: %v", err)
		}
	}()

	versionCtx, cancelVersion := context.WithCancel(ctx)
	defer cancelVersion()

	client := version.NewClient(opts.VersionEndpoint, &http.Client{Timeout: version.DownloadTimeout})
	// The returned Handle lets a management RPC toggle show_beta_releases
	// at runtime; that surface is out of scope here (spec.md §1), so the
	// handle has no caller in this binary.
	updater, _ := version.NewUpdater(client, opts.CacheDir, opts.ProductVersion, bus, opts.ShowBetaReleases)

	updaterDone := make(chan struct{})
	go func() {
		updater.Run(versionCtx)
		close(updaterDone)
	}()

	core.Log.Infof("Core", "talpid-daemon %s running", opts.ProductVersion)

	select {
	case <-opts.Shutdown.Done():
		core.Log.Infof("Core", "shutdown requested")
	case <-ctx.Done():
		core.Log.Infof("Core", "context cancelled")
	}

	cancelVersion()
	select {
	case <-updaterDone:
	case <-time.After(5 * time.Second):
		core.Log.Warnf("Core", "version updater did not exit promptly")
	}

	return nil
}
