// Package routemgr implements the route manager actor (§4.D): a single
// goroutine owns all route-table state and platform handles, and every
// caller talks to it through a command queue instead of a shared mutex.
package routemgr

import "net/netip"

// NextHop is either the platform's current default gateway, tracked across
// default-route changes, or a fixed gateway address.
type NextHop struct {
	Default bool
	Gateway netip.Addr
}

// DefaultNextHop returns a NextHop that tracks whatever the OS currently
// considers the default gateway.
func DefaultNextHop() NextHop { return NextHop{Default: true} }

// GatewayNextHop returns a NextHop pinned to a fixed gateway address.
func GatewayNextHop(gw netip.Addr) NextHop { return NextHop{Gateway: gw} }

// RequiredRoute is one route the manager is responsible for applying and,
// eventually, reverting.
type RequiredRoute struct {
	Destination netip.Prefix
	Node        NextHop
}

// RouteSet is a batch of routes passed to add_routes in one call.
type RouteSet []RequiredRoute
