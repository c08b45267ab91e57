package routemgr

import (
	"net/netip"
	"sync"

	"github.com/mullvad/talpid-daemon/internal/core"
)

type commandKind int

const (
	cmdAddRoutes commandKind = iota
	cmdClearRoutes
	cmdEnableExclusions
	cmdDisableExclusions
	cmdRouteExclusionsDNS
	cmdDefaultRouteChanged
	cmdStop
)

type command struct {
	k   commandKind
	set RouteSet

	tunnelAlias string
	dnsServers  []string
	gateway     netip.Addr

	// reply is nil for commands with no waiting caller (the default-route
	// watcher fires fire-and-forget notifications, not requests).
	reply chan error
}

// Manager is the route manager actor (§4.D): a single goroutine owns all
// platform route-table state; every caller mutates it by sending a command
// through an unbounded FIFO queue instead of sharing a lock.
type Manager struct {
	backend   backend
	stopWatch func()

	mu     sync.Mutex
	queue  []command
	notify chan struct{}

	stopOnce sync.Once
	downCh   chan struct{}
	down     bool
}

// newWithBackend is the platform-independent core of New, split out so
// tests can inject a fake backend.
func newWithBackend(be backend, required RouteSet) (*Manager, error) {
	m := &Manager{
		backend: be,
		notify:  make(chan struct{}, 1),
		downCh:  make(chan struct{}),
	}
	go m.run()

	stopWatch, err := be.watchDefaultRoute(m.notifyDefaultRouteChanged)
	if err != nil {
		core.Log.Warnf("Route", "default-route watch unavailable: %v", err)
		stopWatch = func() {}
	}
	m.stopWatch = stopWatch

	if len(required) > 0 {
		if err := m.AddRoutes(required); err != nil {
			m.Stop()
			return nil, err
		}
	}
	return m, nil
}

// New starts the route manager actor and applies the initial required
// routes before returning control to the caller.
func New(required RouteSet) (*Manager, error) {
	be, err := newBackend()
	if err != nil {
		return nil, err
	}
	return newWithBackend(be, required)
}

// AddRoutes applies a set of routes additively (§4.D invariant: additive
// within a session).
func (m *Manager) AddRoutes(routes RouteSet) error {
	return m.send(command{k: cmdAddRoutes, set: routes})
}

// ClearRoutes reverts every route applied since construction.
func (m *Manager) ClearRoutes() error {
	return m.send(command{k: cmdClearRoutes})
}

// EnableExclusionRoutes enables the split-tunnel exclusion route set.
func (m *Manager) EnableExclusionRoutes() error {
	return m.send(command{k: cmdEnableExclusions})
}

// DisableExclusionRoutes disables the split-tunnel exclusion route set.
func (m *Manager) DisableExclusionRoutes() error {
	return m.send(command{k: cmdDisableExclusions})
}

// RouteExclusionsDNS directs DNS traffic for excluded apps at dnsServers
// via tunnelAlias.
func (m *Manager) RouteExclusionsDNS(tunnelAlias string, dnsServers []string) error {
	return m.send(command{k: cmdRouteExclusionsDNS, tunnelAlias: tunnelAlias, dnsServers: dnsServers})
}

// Stop is idempotent; after it returns, every other method returns
// ErrRouteManagerDown (§4.D invariant).
func (m *Manager) Stop() error {
	err := m.send(command{k: cmdStop})
	m.stopOnce.Do(func() { <-m.downCh })
	if err == ErrRouteManagerDown {
		return nil
	}
	return err
}

// notifyDefaultRouteChanged is the backend's default-route-watch callback.
// It enqueues a command like any other producer so the repoint logic stays
// serialized through the actor, instead of racing run()'s own state from an
// arbitrary watcher goroutine.
func (m *Manager) notifyDefaultRouteChanged(gw netip.Addr) {
	m.enqueue(command{k: cmdDefaultRouteChanged, gateway: gw})
}

// send enqueues a command and blocks for its reply. If the actor has
// already stopped, it fails immediately with ErrRouteManagerDown instead of
// enqueuing (§4.D Failure semantics: "command send fails").
func (m *Manager) send(cmd command) error {
	cmd.reply = make(chan error, 1)
	if !m.enqueue(cmd) {
		return ErrRouteManagerDown
	}
	return <-cmd.reply
}

// enqueue appends cmd to the FIFO queue and wakes the actor. Returns false
// without enqueuing if the actor is already down.
func (m *Manager) enqueue(cmd command) bool {
	m.mu.Lock()
	if m.down {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, cmd)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

// run is the actor loop: it owns all backend state exclusively and drains
// the queue strictly in FIFO order (§5 "commands are processed in FIFO
// order").
func (m *Manager) run() {
	var applied []appliedRoute

	for {
		cmd := m.dequeue()

		var err error
		switch cmd.k {
		case cmdAddRoutes:
			var newlyApplied []appliedRoute
			newlyApplied, err = m.backend.apply(cmd.set)
			applied = append(applied, newlyApplied...)
		case cmdClearRoutes:
			err = revertAll(applied)
			applied = nil
		case cmdEnableExclusions:
			err = m.backend.enableExclusionRoutes()
		case cmdDisableExclusions:
			err = m.backend.disableExclusionRoutes()
		case cmdRouteExclusionsDNS:
			err = m.backend.routeExclusionsDNS(cmd.tunnelAlias, cmd.dnsServers)
		case cmdDefaultRouteChanged:
			for i := range applied {
				if applied[i].update == nil {
					continue
				}
				if uerr := applied[i].update(cmd.gateway); uerr != nil {
					core.Log.Warnf("Route", "repoint default-tracking route %s: %v", applied[i].route.Destination, uerr)
				}
			}
		case cmdStop:
			revertAll(applied)
			applied = nil
			m.stopWatch()
			m.backend.close()
			m.reply(cmd, nil)
			m.markDown()
			return
		}
		m.reply(cmd, err)
	}
}

// dequeue blocks until a command is available and pops the head of the
// FIFO queue.
func (m *Manager) dequeue() command {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			cmd := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return cmd
		}
		m.mu.Unlock()
		<-m.notify
	}
}

// reply sends a command's result back, if anyone is waiting. A reply
// channel the caller gave up on is "fire and forget" per §4.D: the
// operation already ran; the buffer of 1 means this send never blocks.
func (m *Manager) reply(cmd command, err error) {
	if err != nil {
		core.Log.Warnf("Route", "%s failed: %v", cmd.k, err)
	}
	if cmd.reply != nil {
		cmd.reply <- err
	}
}

func (m *Manager) markDown() {
	m.mu.Lock()
	m.down = true
	m.mu.Unlock()
	close(m.downCh)
}

func revertAll(applied []appliedRoute) error {
	var lastErr error
	for i := len(applied) - 1; i >= 0; i-- {
		if err := applied[i].revert(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (k commandKind) String() string {
	switch k {
	case cmdAddRoutes:
		return "add_routes"
	case cmdClearRoutes:
		return "clear_routes"
	case cmdEnableExclusions:
		return "enable_exclusions_routes"
	case cmdDisableExclusions:
		return "disable_exclusions_routes"
	case cmdRouteExclusionsDNS:
		return "route_exclusions_dns"
	case cmdDefaultRouteChanged:
		return "default_route_changed"
	case cmdStop:
		return "stop"
	default:
		return "unknown"
	}
}
