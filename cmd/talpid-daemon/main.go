// Command talpid-daemon is the long-lived privileged VPN daemon described
// in spec.md: it wires together the process handle abstraction, event IPC
// server, tunnel supervisor, route manager, service lifecycle core, and
// version updater. The management RPC surface a CLI/GUI client would talk
// to is out of scope (spec.md §1) — this entrypoint hosts the supervisory
// cores for their own sake, the way a test harness or a minimal launcher
// would.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mullvad/talpid-daemon/internal/core"
	"github.com/mullvad/talpid-daemon/internal/routemgr"
	"github.com/mullvad/talpid-daemon/internal/svchost"
)

// productVersion is injected via -ldflags at build time; the dev default
// deliberately fails both the stable and beta regexes so a developer build
// never contacts the version-check endpoint (§4.F).
var productVersion = "dev-build"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "install":
			handleInstall()
			return
		case "uninstall":
			handleUninstall()
			return
		}
	}

	runAsService := flag.Bool("run-as-service", false, "run under the OS service dispatcher")
	verbose := flag.Bool("v", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	endpoint := flag.String("version-endpoint", "https://api.mullvad.net/app/v1/releases", "version-check REST endpoint (§6)")
	cacheDir := flag.String("cache-dir", defaultCacheDir(), "directory for the version-info cache")
	showBeta := flag.Bool("show-beta-releases", false, "include beta releases in suggested upgrades")
	flag.Parse()

	if *showVersion {
		fmt.Printf("talpid-daemon %s\n", productVersion)
		return
	}

	if *verbose {
		core.Log = core.NewLogger(core.LogConfig{Level: "debug"})
	}

	opts := Options{
		ProductVersion:   productVersion,
		VersionEndpoint:  *endpoint,
		CacheDir:         *cacheDir,
		ShowBetaReleases: *showBeta,
		RequiredRoutes:   routemgr.RouteSet{},
		Shutdown:         NewShutdownHandle(),
	}

	if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
		core.Log.Fatalf("Core", "cannot create cache dir %s: %v", opts.CacheDir, err)
	}

	if err := runEntrypoint(opts, *runAsService); err != nil {
		core.Log.Fatalf("Core", "%v", err)
	}
}

func handleInstall() {
	exePath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot determine executable path: %v\n", err)
		os.Exit(1)
	}
	if err := svchost.Install(exePath); err != nil {
		fmt.Fprintf(os.Stderr, "install failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("service installed")
}

func handleUninstall() {
	if err := svchost.Uninstall(); err != nil {
		fmt.Fprintf(os.Stderr, "uninstall failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("service uninstalled")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "talpid-daemon")
}
