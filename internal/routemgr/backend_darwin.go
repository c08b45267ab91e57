//go:build darwin

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
	return &darwinBackend{}, nil
}

// darwinBackend drives the macOS routing table via route(8), the same way
// the teacher's platform/darwin route manager does.
type darwinBackend struct{}

func (b *darwinBackend) apply(routes RouteSet) ([]appliedRoute, error) {
	out := make([]appliedRoute, 0, len(routes))
	for _, r := range routes {
		r := r
		var gw netip.Addr
		if !r.Node.Default {
			gw = r.Node.Gateway
		} else if cur, err := currentDefaultGateway(); err == nil {
			gw = cur
		}

		add := func(gw netip.Addr) error {
			args := []string{"-n", "add", "-net", r.Destination.String(), gw.String()}
			return routeExec(args, true)
		}
		del := func() error {
			args := []string{"-n", "delete", "-net", r.Destination.String()}
			return routeExec(args, false)
		}

		if gw.IsValid() {
			if err := add(gw); err != nil {
				revertAll(out)
				return nil, platformError("route add "+r.Destination.String(), err)
			}
		}

		entry := appliedRoute{route: r, revert: del}
		if r.Node.Default {
			entry.update = func(newGW netip.Addr) error {
				del()
				return add(newGW)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (b *darwinBackend) enableExclusionRoutes() error {
	core.Log.Infof("Route", "split-tunnel exclusion routes enabled")
	return nil
}

func (b *darwinBackend) disableExclusionRoutes() error {
	core.Log.Infof("Route", "split-tunnel exclusion routes disabled")
	return nil
}

func (b *darwinBackend) routeExclusionsDNS(tunnelAlias string, dnsServers []string) error {
	for _, dst := range dnsServers {
		args := []string{"-n", "add", "-host", dst, "-interface", tunnelAlias}
		if err := routeExec(args, true); err != nil {
			return platformError("route exclusions dns "+dst, err)
		}
	}
	return nil
}

func (b *darwinBackend) close() error { return nil }

// watchDefaultRoute opens a PF_ROUTE socket and debounces routing-table
// change notifications, adapted from the teacher's network_monitor.go.
func (b *darwinBackend) watchDefaultRoute(onChange func(netip.Addr)) (func(), error) {
	fd, err := unix.Socket(unix.AF_ROUTE, unix.SOCK_RAW, unix.AF_UNSPEC)
	if err != nil {
		return nil, platformError("open PF_ROUTE socket", err)
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
		buf := make([]byte, 4096)
		for {
			select {
			case <-done:
				return
			default:
			}
			n, err := unix.Read(fd, buf)
			if err != nil {
				return
			}
			if n < 4 {
				continue
			}
			switch buf[3] {
			case 0x1, 0x2, 0x3, 0xC, 0xD, 0xE: // RTM_ADD/DELETE/CHANGE/NEWADDR/DELADDR/IFINFO
				fire()
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

func currentDefaultGateway() (netip.Addr, error) {
	out, err := exec.Command("route", "-n", "get", "default").CombinedOutput()
	if err != nil {
		return netip.Addr{}, err
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "gateway:") {
			return netip.ParseAddr(strings.TrimSpace(line[len("gateway:"):]))
		}
	}
	return netip.Addr{}, fmt.Errorf("no default gateway in route output")
}

func routeExec(args []string, tolerateExists bool) error {
	out, err := exec.Command("route", args...).CombinedOutput()
	if err != nil {
		outStr := strings.TrimSpace(string(out))
		if tolerateExists && strings.Contains(outStr, "File exists") {
			return nil
		}
		if strings.Contains(outStr, "not in table") {
			return nil
		}
		return fmt.Errorf("route %s: %s", strings.Join(args, " "), outStr)
	}
	return nil
}
