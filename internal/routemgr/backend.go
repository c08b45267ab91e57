package routemgr

import "net/netip"

// appliedRoute is the bookkeeping the actor keeps for one route it
// installed: how to revert it, and — for routes whose next-hop tracks the
// OS default gateway — how to repoint it when that gateway changes.
type appliedRoute struct {
	route  RequiredRoute
	revert func() error
	// update re-points this route at a new default gateway. nil for
	// routes with a fixed next-hop.
	update func(gateway netip.Addr) error
}

// backend is the per-platform route table surface the actor drives.
// Exactly one implementation is linked in per GOOS (darwin, linux, windows);
// the actor loop itself is platform-agnostic (§9 "Platform-specific cores").
type backend interface {
	// apply installs routes and returns per-route bookkeeping, in the
	// same order, so the actor can track what to undo on clear and what
	// to repoint on a default-route change.
	apply(routes RouteSet) ([]appliedRoute, error)

	// enableExclusionRoutes / disableExclusionRoutes toggle the
	// split-tunnel exclusion route set (platform extension ops).
	enableExclusionRoutes() error
	disableExclusionRoutes() error

	// routeExclusionsDNS points DNS traffic for the excluded apps at the
	// given servers via tunnelAlias.
	routeExclusionsDNS(tunnelAlias string, dnsServers []string) error

	// watchDefaultRoute starts delivering the current default gateway on
	// changes. The returned stop func releases the underlying OS handle.
	watchDefaultRoute(onChange func(gateway netip.Addr)) (stop func(), err error)

	// close releases any backend-held OS resources (sockets, handles).
	close() error
}
