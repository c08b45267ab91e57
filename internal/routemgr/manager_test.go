package routemgr

import (
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory backend used to test the actor's FIFO
// ordering, idempotent Stop, and default-route tracking without touching
// any real routing table.
type fakeBackend struct {
	mu      sync.Mutex
	applied map[string]netip.Addr // destination -> current gateway
	order   []string              // records op names in application order
	closed  bool

	onDefaultChange func(netip.Addr)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{applied: make(map[string]netip.Addr)}
}

func (f *fakeBackend) apply(routes RouteSet) ([]appliedRoute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]appliedRoute, 0, len(routes))
	for _, r := range routes {
		r := r
		dst := r.Destination.String()
		gw := r.Node.Gateway
		f.applied[dst] = gw
		f.order = append(f.order, "add:"+dst)

		entry := appliedRoute{
			route: r,
			revert: func() error {
				f.mu.Lock()
				delete(f.applied, dst)
				f.order = append(f.order, "del:"+dst)
				f.mu.Unlock()
				return nil
			},
		}
		if r.Node.Default {
			entry.update = func(newGW netip.Addr) error {
				f.mu.Lock()
				f.applied[dst] = newGW
				f.mu.Unlock()
				return nil
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (f *fakeBackend) enableExclusionRoutes() error  { return nil }
func (f *fakeBackend) disableExclusionRoutes() error { return nil }
func (f *fakeBackend) routeExclusionsDNS(string, []string) error {
	return nil
}

func (f *fakeBackend) watchDefaultRoute(onChange func(netip.Addr)) (func(), error) {
	f.mu.Lock()
	f.onDefaultChange = onChange
	f.mu.Unlock()
	return func() {}, nil
}

func (f *fakeBackend) close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) triggerDefaultChange(gw netip.Addr) {
	f.mu.Lock()
	cb := f.onDefaultChange
	f.mu.Unlock()
	if cb != nil {
		cb(gw)
	}
}

func prefix(t *testing.T, s string) netip.Prefix {
	t.Helper()
	p, err := netip.ParsePrefix(s)
	require.NoError(t, err)
	return p
}

func addr(t *testing.T, s string) netip.Addr {
	t.Helper()
	a, err := netip.ParseAddr(s)
	require.NoError(t, err)
	return a
}

func TestManagerRouteIdempotence(t *testing.T) {
	be := newFakeBackend()
	m, err := newWithBackend(be, nil)
	require.NoError(t, err)

	require.NoError(t, m.AddRoutes(RouteSet{
		{Destination: prefix(t, "10.0.0.0/8"), Node: GatewayNextHop(addr(t, "10.8.0.1"))},
	}))
	require.NoError(t, m.AddRoutes(RouteSet{
		{Destination: prefix(t, "192.168.0.0/16"), Node: GatewayNextHop(addr(t, "10.8.0.1"))},
	}))
	require.Len(t, be.applied, 2)

	require.NoError(t, m.ClearRoutes())
	require.Empty(t, be.applied)

	require.NoError(t, m.Stop())
}

func TestManagerStopIsIdempotent(t *testing.T) {
	be := newFakeBackend()
	m, err := newWithBackend(be, nil)
	require.NoError(t, err)

	require.NoError(t, m.Stop())
	require.NoError(t, m.Stop())
	require.True(t, be.closed)
}

func TestManagerRejectsCommandsAfterStop(t *testing.T) {
	be := newFakeBackend()
	m, err := newWithBackend(be, nil)
	require.NoError(t, err)
	require.NoError(t, m.Stop())

	err = m.AddRoutes(RouteSet{{Destination: prefix(t, "10.0.0.0/8"), Node: GatewayNextHop(addr(t, "10.8.0.1"))}})
	require.ErrorIs(t, err, ErrRouteManagerDown)
}

func TestManagerCommandsProcessedInFIFOOrder(t *testing.T) {
	be := newFakeBackend()
	m, err := newWithBackend(be, nil)
	require.NoError(t, err)

	require.NoError(t, m.AddRoutes(RouteSet{{Destination: prefix(t, "10.0.0.0/8"), Node: GatewayNextHop(addr(t, "10.8.0.1"))}}))
	require.NoError(t, m.AddRoutes(RouteSet{{Destination: prefix(t, "172.16.0.0/12"), Node: GatewayNextHop(addr(t, "10.8.0.1"))}}))
	require.NoError(t, m.ClearRoutes())

	require.Equal(t, []string{"add:10.0.0.0/8", "add:172.16.0.0/12", "del:172.16.0.0/12", "del:10.0.0.0/8"}, be.order)
	require.NoError(t, m.Stop())
}

func TestManagerTracksDefaultRouteChange(t *testing.T) {
	be := newFakeBackend()
	m, err := newWithBackend(be, nil)
	require.NoError(t, err)

	require.NoError(t, m.AddRoutes(RouteSet{
		{Destination: prefix(t, "0.0.0.0/0"), Node: DefaultNextHop()},
	}))

	newGW := addr(t, "192.168.1.1")
	be.triggerDefaultChange(newGW)

	require.Eventually(t, func() bool {
		be.mu.Lock()
		defer be.mu.Unlock()
		return be.applied["0.0.0.0/0"] == newGW
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Stop())
}
