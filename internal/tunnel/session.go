package tunnel

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/mullvad/talpid-daemon/internal/core"
	"github.com/mullvad/talpid-daemon/internal/eventipc"
	"github.com/mullvad/talpid-daemon/internal/procwatch"
	"github.com/mullvad/talpid-daemon/internal/proxy"
)

// Session runs one tunnel session end-to-end (§4.C, §3 TunnelSession).
type Session struct {
	id         string
	cfg        Config
	handle     *procwatch.Handle
	ipcServer  *eventipc.Server
	close      *CloseHandle
	creds      *credentialsFile
	proxyCreds *credentialsFile
	proxy      *proxy.Proxy
	bus        *core.EventBus

	deleteCredsOnce sync.Once
}

// Start runs the ordered startup sequence (§4.C steps 1-7) and returns a
// Session whose Wait method runs the steady-state race. stateDir is where
// per-session credentials files are materialized (e.g. a runtime tmp
// directory owned by the daemon).
func Start(ctx context.Context, cfg Config, stateDir string, bus *core.EventBus) (*Session, error) {
	sessionID := uuid.NewString()

	creds, err := writeCredentials(filepath.Join(stateDir, "creds-"+sessionID), cfg.Username, cfg.Password)
	if err != nil {
		return nil, err
	}

	var proxyCreds *credentialsFile
	if cfg.ProxyUsername != "" {
		proxyCreds, err = writeCredentials(filepath.Join(stateDir, "proxy-creds-"+sessionID), cfg.ProxyUsername, cfg.ProxyPassword)
		if err != nil {
			creds.delete()
			return nil, err
		}
	}

	var px *proxy.Proxy
	proxyPort := 0
	if cfg.Proxy != nil {
		cfg.Proxy.Target = fmt.Sprintf("%s:%d", cfg.RemoteHost, cfg.RemotePort)
		px, err = proxy.New(*cfg.Proxy)
		if err != nil {
			creds.delete()
			proxyCreds.delete()
			return nil, err
		}
		proxyPort, err = px.Start(ctx)
		if err != nil {
			creds.delete()
			proxyCreds.delete()
			return nil, err
		}
	}

	ipcPath := eventipc.EndpointPath(sessionID)

	sess := &Session{
		id:         sessionID,
		cfg:        cfg,
		proxy:      px,
		creds:      creds,
		proxyCreds: proxyCreds,
		bus:        bus,
	}

	sess.ipcServer = eventipc.NewServer(ipcPath, sess.handleEvent, nil)
	if err := sess.ipcServer.Start(); err != nil {
		sess.teardownOnStartFailure()
		return nil, eventDispatcherError(err)
	}

	proxyAuthPath := ""
	if proxyCreds != nil {
		proxyAuthPath = proxyCreds.path
	}
	cmd := buildCommand(cfg, creds.path, proxyAuthPath, proxyPort, ipcPath)
	if err := cmd.Start(); err != nil {
		sess.ipcServer.ForceStop()
		sess.teardownOnStartFailure()
		return nil, childProcessError("Failed to start", err)
	}

	sess.handle = procwatch.New(cmd)
	// Close is the shared idempotent shutdown trigger (§9 "shared
	// ownership of child + close flag"): a graceful nice-kill, since both
	// external callers (Session.Close) and the IPC watcher use this same
	// path to tear the child down.
	sess.close = newCloseHandle(func() {
		sess.handle.NiceKill(niceKillTimeout())
	})

	return sess, nil
}

func (s *Session) teardownOnStartFailure() {
	s.creds.delete()
	s.proxyCreds.delete()
	if s.proxy != nil {
		s.proxy.Stop()
	}
}

// handleEvent is the Event IPC Server's sink. On the first RouteUp it
// best-effort deletes both credentials files (§4.C "Early credential
// deletion").
func (s *Session) handleEvent(kind eventipc.EventKind, env map[string]string) {
	if kind == eventipc.EventRouteUp {
		s.deleteCredsOnce.Do(func() {
			s.creds.delete()
			s.proxyCreds.delete()
		})
	}
	if s.bus != nil {
		s.bus.PublishAsync(core.Event{
			Type: core.EventTunnelOutcome,
			Payload: core.TunnelOutcomePayload{
				SessionID: s.id,
				Outcome:   kind.String(),
			},
		})
	}
}

// Close triggers external shutdown of the session (§4.C "Close handle").
// Idempotent; blocks until the child has actually exited or the nice-kill
// timeout forces it.
func (s *Session) Close() {
	s.close.Close()
}

type childResult struct {
	status procwatch.ExitStatus
	err    error
}

// Wait runs the steady-state two-watcher race (§4.C) and returns exactly
// one terminal outcome. Credentials files are guaranteed deleted before
// Wait returns, regardless of outcome (§3 TunnelSession invariant).
func (s *Session) Wait() error {
	defer func() {
		s.creds.delete()
		s.proxyCreds.delete()
	}()

	childDone := make(chan childResult, 1)
	go func() {
		status, err := s.handle.Wait()
		childDone <- childResult{status: status, err: err}
		// Child watcher: on return, trigger the IPC abort.
		s.ipcServer.ForceStop()
	}()

	ipcDone := make(chan struct{}, 1)
	go func() {
		s.ipcServer.Wait()
		ipcDone <- struct{}{}
		// IPC watcher: on return, close the child (idempotent).
		s.close.Close()
	}()

	if s.proxy == nil {
		return s.raceChildAndIPC(childDone, ipcDone)
	}
	return s.raceWithProxy(childDone, ipcDone, s.proxy.Done())
}

// raceChildAndIPC is the plain two-watcher race (§4.C): whichever of
// child-exit or IPC-server-exit fires first wins; the other is drained.
func (s *Session) raceChildAndIPC(childDone chan childResult, ipcDone chan struct{}) error {
	select {
	case cr := <-childDone:
		<-ipcDone
		return s.resolveChildOutcome(cr)
	case <-ipcDone:
		<-childDone
		return errEventDispatcherExited
	}
}

// raceWithProxy adds the proxy-coupling watcher (§4.C "Proxy coupling"):
// a proxy exit triggers closing the tunnel, and the tunnel's own outcome
// takes priority over the proxy's if both become available.
func (s *Session) raceWithProxy(childDone chan childResult, ipcDone chan struct{}, proxyDone <-chan error) error {
	select {
	case cr := <-childDone:
		<-ipcDone
		return s.resolveChildOutcome(cr)
	case <-ipcDone:
		<-childDone
		return errEventDispatcherExited
	case perr := <-proxyDone:
		s.close.Close()
		var outcome error
		select {
		case cr := <-childDone:
			<-ipcDone
			outcome = s.resolveChildOutcome(cr)
		case <-ipcDone:
			<-childDone
			outcome = errEventDispatcherExited
		}
		if outcome != nil {
			return outcome
		}
		if perr != nil {
			return proxyExited(perr.Error())
		}
		// proxyDone fired with no error before we ever called Stop
		// ourselves: the proxy's own exit bookkeeping is the thing that
		// misbehaved, not the proxy process itself.
		return errMonitorProxyError
	}
}

func (s *Session) resolveChildOutcome(cr childResult) error {
	if cr.err != nil {
		return childProcessError("Error when waiting", cr.err)
	}
	if cr.status.Success || s.close.Closed() {
		return nil
	}
	return postmortem(s.cfg.LogPath)
}
