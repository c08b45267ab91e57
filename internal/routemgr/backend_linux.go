//go:build linux

package routemgr

import (
	"fmt"
	"net/netip"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/mullvad/talpid-daemon/internal/core"
)

func newBackend() (backend, error) {
	return &linuxBackend{}, nil
}

// linuxBackend drives the Linux routing table via `ip route`, the
// NETLINK_ROUTE counterpart of the teacher's macOS route(8)/PF_ROUTE pair
// (same scheme, generalized to Linux's native route-change socket).
type linuxBackend struct{}

func (b *linuxBackend) apply(routes RouteSet) ([]appliedRoute, error) {
	out := make([]appliedRoute, 0, len(routes))
	for _, r := range routes {
		r := r
		add := func(gw netip.Addr) error {
			args := []string{"route", "replace", r.Destination.String(), "via", gw.String()}
			return ipExec(args)
		}
		del := func() error {
			args := []string{"route", "del", r.Destination.String()}
			return ipExec(args)
		}

		gw := r.Node.Gateway
		if r.Node.Default {
			if cur, err := currentDefaultGateway(); err == nil {
				gw = cur
			}
		}
		if gw.IsValid() {
			if err := add(gw); err != nil {
				revertAll(out)
				return nil, platformError("ip route replace "+r.Destination.String(), err)
			}
		}

		entry := appliedRoute{route: r, revert: del}
		if r.Node.Default {
			entry.update = func(newGW netip.Addr) error {
				return add(newGW)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (b *linuxBackend) enableExclusionRoutes() error {
	core.Log.Infof("Route", "split-tunnel exclusion routes enabled")
	return nil
}

func (b *linuxBackend) disableExclusionRoutes() error {
	core.Log.Infof("Route", "split-tunnel exclusion routes disabled")
	return nil
}

func (b *linuxBackend) routeExclusionsDNS(tunnelAlias string, dnsServers []string) error {
	for _, dst := range dnsServers {
		args := []string{"route", "replace", dst + "/32", "dev", tunnelAlias}
		if err := ipExec(args); err != nil {
			return platformError("route exclusions dns "+dst, err)
		}
	}
	return nil
}

func (b *linuxBackend) close() error { return nil }

// watchDefaultRoute opens a NETLINK_ROUTE socket and debounces
// RTM_NEWROUTE/RTM_DELROUTE notifications, the Linux analogue of the
// teacher's darwin PF_ROUTE monitor.
func (b *linuxBackend) watchDefaultRoute(onChange func(netip.Addr)) (func(), error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW, unix.NETLINK_ROUTE)
	if err != nil {
		return nil, platformError("open NETLINK_ROUTE socket", err)
	}
	addr := &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: unix.RTMGRP_IPV4_ROUTE}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, platformError("bind NETLINK_ROUTE socket", err)
	}

	done := make(chan struct{})
	stopped := make(chan struct{})

	var mu sync.Mutex
	var timer *time.Timer
	fire := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer == nil {
			timer = time.AfterFunc(2*time.Second, func() {
				select {
				case <-done:
					return
				default:
				}
				gw, err := currentDefaultGateway()
				if err != nil {
					core.Log.Warnf("Route", "re-resolve default gateway: %v", err)
					return
				}
				onChange(gw)
			})
		} else {
			timer.Reset(2 * time.Second)
		}
	}

	go func() {
		defer close(stopped)
		buf := make([]byte, 8192)
		for {
			select {
			case <-done:
				return
			default:
			}
			msgs, err := readNetlinkMessages(fd, buf)
			if err != nil {
				return
			}
			for _, msgType := range msgs {
				if msgType == unix.RTM_NEWROUTE || msgType == unix.RTM_DELROUTE {
					fire()
				}
			}
		}
	}()

	stop := func() {
		close(done)
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		unix.Close(fd)
		<-stopped
	}
	return stop, nil
}

// readNetlinkMessages reads one datagram and returns the rtnetlink message
// type of every header it contains.
func readNetlinkMessages(fd int, buf []byte) ([]uint16, error) {
	n, err := unix.Read(fd, buf)
	if err != nil {
		return nil, err
	}
	msgs, err := unix.ParseNetlinkMessage(buf[:n])
	if err != nil {
		return nil, err
	}
	types := make([]uint16, 0, len(msgs))
	for _, m := range msgs {
		types = append(types, m.Header.Type)
	}
	return types, nil
}

func currentDefaultGateway() (netip.Addr, error) {
	out, err := exec.Command("ip", "route", "show", "default").CombinedOutput()
	if err != nil {
		return netip.Addr{}, err
	}
	fields := strings.Fields(string(out))
	for i, f := range fields {
		if f == "via" && i+1 < len(fields) {
			return netip.ParseAddr(fields[i+1])
		}
	}
	return netip.Addr{}, fmt.Errorf("no default gateway in ip route output")
}

func ipExec(args []string) error {
	out, err := exec.Command("ip", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ip %s: %s", strings.Join(args, " "), strings.TrimSpace(string(out)))
	}
	return nil
}
