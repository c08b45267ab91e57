//go:build windows

package svchost

import (
	"time"

	"golang.org/x/sys/windows/svc"

	"github.com/mullvad/talpid-daemon/internal/core"
)

// ServiceName / ServiceDisplayName are the install parameters from §6.
const (
	ServiceName        = "MullvadVPN"
	ServiceDisplayName = "Mullvad VPN Service"
)

// IsHostedService reports whether the current process is running under the
// OS service dispatcher.
func IsHostedService() bool {
	is, err := svc.IsWindowsService()
	return err == nil && is
}

// Run dispatches the process to the SCM, driving runFunc as the daemon's
// main loop. It blocks until the service stops; the exit code computed by
// §4.E's policy is reported to the SCM, and the returned error is
// svc.Run's own. onEvent, if non-nil, receives every forwarded
// control event (PowerEvent/SessionChange) in order — the hibernation
// detector is wired this way from cmd/talpid-daemon, keeping this package
// free of any dependency on the top-level daemon.
func Run(runFunc func() error, shutdown func(), onEvent func(ControlEvent)) error {
	h := &handler{runFunc: runFunc, onEvent: onEvent}
	h.reporter = NewReporter(func(st Status) {
		h.pendingStatus = toSvcStatus(st)
	})
	h.translator = NewTranslator(h.reporter, shutdown)
	return svc.Run(ServiceName, h)
}

// handler adapts this package's platform-neutral Reporter/Translator pair
// to golang.org/x/sys/windows/svc.Handler, the same SCM binding the
// teacher's internal/winsvc/winsvc.go uses.
type handler struct {
	runFunc       func() error
	reporter      *Reporter
	translator    *Translator
	pendingStatus svc.Status
	onEvent       func(ControlEvent)
}

func (h *handler) Execute(args []string, r <-chan svc.ChangeRequest, s chan<- svc.Status) (bool, uint32) {
	h.reporter.StartPending()
	s <- h.pendingStatus

	errCh := make(chan error, 1)
	go func() { errCh <- h.runFunc() }()

	h.reporter.Running()
	s <- h.pendingStatus

	go h.drainEvents()

	var mainLoopErr error
	for {
		select {
		case cr := <-r:
			ctrl := fromChangeRequest(cr)
			if !h.translator.Handle(ctrl) {
				continue
			}
			s <- h.pendingStatus
			if ctrl.Kind == ControlRequestStop || ctrl.Kind == ControlRequestPreshutdown {
				mainLoopErr = <-errCh
				h.reporter.Stopped()
				s <- h.pendingStatus
				code := ExitCode(mainLoopErr, h.translator.CleanShutdown())
				return code != 0, uint32(code)
			}
		case mainLoopErr = <-errCh:
			h.reporter.Stopped()
			s <- h.pendingStatus
			code := ExitCode(mainLoopErr, h.translator.CleanShutdown())
			return code != 0, uint32(code)
		}
	}
}

// drainEvents logs PowerEvent/SessionChange notifications forwarded by the
// translator and, if set, forwards them to onEvent (the hibernation
// detector, wired in cmd/talpid-daemon).
func (h *handler) drainEvents() {
	for ev := range h.translator.Events() {
		core.Log.Debugf("Service", "control event kind=%d sub=%d", ev.Kind, ev.EventType)
		if h.onEvent != nil {
			h.onEvent(ev)
		}
	}
}

func fromChangeRequest(cr svc.ChangeRequest) RawControl {
	switch cr.Cmd {
	case svc.Interrogate:
		return RawControl{Kind: ControlInterrogate}
	case svc.Stop:
		return RawControl{Kind: ControlRequestStop}
	case svc.Shutdown, svc.PreShutdown:
		return RawControl{Kind: ControlRequestPreshutdown}
	case svc.PowerEvent:
		return RawControl{Kind: ControlRequestPowerEvent, EventType: cr.EventType}
	case svc.SessionChange:
		return RawControl{Kind: ControlRequestSessionChange, EventType: cr.EventType}
	default:
		return RawControl{Kind: ControlUnknown}
	}
}

func toSvcStatus(st Status) svc.Status {
	var accepts svc.Accepted
	if st.Accepts&ControlStop != 0 {
		accepts |= svc.AcceptStop
	}
	if st.Accepts&ControlPreshutdown != 0 {
		accepts |= svc.AcceptPreShutdown
	}
	if st.Accepts&ControlPowerEvent != 0 {
		accepts |= svc.AcceptPowerEvent
	}
	if st.Accepts&ControlSessionChange != 0 {
		accepts |= svc.AcceptSessionChange
	}

	var state svc.State
	switch st.State {
	case StateStartPending:
		state = svc.StartPending
	case StateRunning:
		state = svc.Running
	case StateStopPending:
		state = svc.StopPending
	case StateStopped:
		state = svc.Stopped
	}

	return svc.Status{
		State:       state,
		Accepts:     accepts,
		CheckPoint:  st.Checkpoint,
		WaitHint:    uint32(st.WaitHint / time.Millisecond),
	}
}
