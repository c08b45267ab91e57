//go:build windows

package svchost

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/mullvad/talpid-daemon/internal/taperr"
)

// Install registers the service with the SCM per §6 "Service install
// parameters": OWN_PROCESS, auto-start, depends on BFE and NSI, runs as
// SYSTEM, launched with --run-as-service -v, unrestricted SID (required
// for the tunnel adapter's ACL semantics), with the three-tier recovery
// actions from recovery.go.
func Install(exePath string) error {
	m, err := mgr.Connect()
	if err != nil {
		return taperr.New(taperr.KindPlatform, "connect to SCM", err)
	}
	defer m.Disconnect()

	if s, err := m.OpenService(ServiceName); err == nil {
		s.Close()
		return taperr.New(taperr.KindPlatform, "install", fmt.Errorf("service %q already exists", ServiceName))
	}

	s, err := m.CreateService(ServiceName, exePath, mgr.Config{
		DisplayName:      ServiceDisplayName,
		StartType:        mgr.StartAutomatic,
		ServiceStartName: "LocalSystem",
		Dependencies:     []string{"BFE", "NSI"},
	}, "--run-as-service", "-v")
	if err != nil {
		return taperr.New(taperr.KindPlatform, "create service", err)
	}
	defer s.Close()

	if err := setUnrestrictedSidType(s); err != nil {
		return taperr.New(taperr.KindPlatform, "set unrestricted SID type", err)
	}

	actions := make([]mgr.RecoveryAction, len(recoveryDelays))
	for i, d := range recoveryDelays {
		actions[i] = mgr.RecoveryAction{Type: mgr.ServiceRestart, Delay: d}
	}
	if err := s.SetRecoveryActions(actions, uint32(failureResetWindow/time.Second)); err != nil {
		return taperr.New(taperr.KindPlatform, "set recovery actions", err)
	}

	return nil
}

// Uninstall stops (if running) and removes the service.
func Uninstall() error {
	m, err := mgr.Connect()
	if err != nil {
		return taperr.New(taperr.KindPlatform, "connect to SCM", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(ServiceName)
	if err != nil {
		return taperr.New(taperr.KindPlatform, "open service", err)
	}
	defer s.Close()

	if status, err := s.Control(svc.Stop); err == nil {
		for i := 0; i < 30 && status.State != svc.Stopped; i++ {
			time.Sleep(500 * time.Millisecond)
			if status, err = s.Query(); err != nil {
				break
			}
		}
	}

	if err := s.Delete(); err != nil {
		return taperr.New(taperr.KindPlatform, "delete service", err)
	}
	return nil
}

// setUnrestrictedSidType calls ChangeServiceConfig2W directly: neither
// golang.org/x/sys/windows nor svc/mgr expose SERVICE_CONFIG_SERVICE_SID_INFO,
// the same situation the teacher's route manager hits with
// MIB_IPFORWARD_ROW2 (see internal/routemgr/backend_windows.go).
var (
	modAdvapi32              = windows.NewLazySystemDLL("advapi32.dll")
	procChangeServiceConfig2 = modAdvapi32.NewProc("ChangeServiceConfig2W")
)

const (
	serviceConfigServiceSidInfo = 5
	serviceSidTypeUnrestricted  = 1
)

type serviceSidInfo struct {
	SidType uint32
}

func setUnrestrictedSidType(s *mgr.Service) error {
	info := serviceSidInfo{SidType: serviceSidTypeUnrestricted}
	res, _, _ := procChangeServiceConfig2.Call(
		uintptr(s.Handle),
		serviceConfigServiceSidInfo,
		uintptr(unsafe.Pointer(&info)),
	)
	if res == 0 {
		return fmt.Errorf("ChangeServiceConfig2W failed")
	}
	return nil
}
