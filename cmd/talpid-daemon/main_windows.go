//go:build windows

package main

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"golang.org/x/sys/windows"

	"github.com/mullvad/talpid-daemon/internal/core"
	"github.com/mullvad/talpid-daemon/internal/svchost"
)

// Session-change notification codes (WTS_SESSION_LOGOFF etc.) and power
// event codes (PBT_APMSUSPEND etc.) per the Windows SDK; x/sys/windows/svc
// forwards these as raw uint32s on ControlEvent.
const (
	wtsSessionLogoff      = 0x6
	pbtAPMSuspend         = 0x4
	pbtAPMResumeAutomatic = 0x12
	pbtAPMResumeSuspend   = 0x7
)

// runEntrypoint dispatches to the SCM when runAsService is set or the
// process was launched by the SCM directly (§4.E), otherwise runs the
// daemon in the foreground with Ctrl+C as the shutdown trigger.
func runEntrypoint(opts Options, runAsService bool) error {
	hibernation := svchost.NewHibernationDetector(func() {
		restartService(svchost.ServiceName)
	})

	onEvent := func(ev svchost.ControlEvent) {
		handleServiceEvent(hibernation, ev)
	}

	if runAsService || svchost.IsHostedService() {
		runFunc := func() error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			return runDaemon(ctx, opts)
		}
		return svchost.Run(runFunc, opts.Shutdown.Signal, onEvent)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go waitForInterrupt(opts.Shutdown)

	core.Log.Infof("Core", "running in foreground, press Ctrl+C to stop")
	return runDaemon(ctx, opts)
}

// handleServiceEvent feeds session-logoff / power-suspend-resume
// notifications into the hibernation detector (§4.E "Hibernation
// detector"). Session interactivity for a real logoff is resolved by
// walking LSA logon sessions; see internal/svchost/lsa_windows.go.
func handleServiceEvent(h *svchost.HibernationDetector, ev svchost.ControlEvent) {
	switch ev.Kind {
	case svchost.ControlRequestSessionChange:
		if ev.EventType == wtsSessionLogoff {
			h.Logoff(svchost.HasInteractiveLogonSession(), time.Now())
		}
	case svchost.ControlRequestPowerEvent:
		switch ev.EventType {
		case pbtAPMSuspend:
			h.Suspend(time.Now())
		case pbtAPMResumeAutomatic, pbtAPMResumeSuspend:
			h.Resume()
		}
	}
}

// restartService spawns `net stop <svc> & net start <svc>` via the
// absolute system directory (§4.E "Resume*"), mirroring the original
// daemon's restart-on-resume mechanism exactly.
func restartService(name string) {
	sysDir, err := windows.GetSystemDirectory()
	if err != nil {
		core.Log.Errorf("Service", "restart: cannot resolve system directory: %v", err)
		return
	}
	cmdExe := sysDir + `\cmd.exe`
	script := fmt.Sprintf("net stop %s & net start %s", name, name)
	cmd := exec.Command(cmdExe, "/C", script)
	if err := cmd.Start(); err != nil {
		core.Log.Errorf("Service", "restart: %v", err)
	}
}
