//go:build windows

package svchost

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// HasInteractiveLogonSession answers the hibernation detector's "was this
// logoff interactive" question (§4.E) by enumerating LSA logon sessions via
// secur32.dll and checking each session's LogonType. Neither golang.org/x/sys/windows nor svc/mgr expose
// these APIs — the same situation the route manager and service installer
// hit with MIB_IPFORWARD_ROW2 and SERVICE_CONFIG_SERVICE_SID_INFO.
var (
	modSecur32                    = windows.NewLazySystemDLL("secur32.dll")
	procLsaEnumerateLogonSessions = modSecur32.NewProc("LsaEnumerateLogonSessions")
	procLsaGetLogonSessionData    = modSecur32.NewProc("LsaGetLogonSessionData")
	procLsaFreeReturnBuffer       = modSecur32.NewProc("LsaFreeReturnBuffer")
)

// logonTypeInteractive values from the SECURITY_LOGON_TYPE enum that count
// as an interactive user session for hibernation-detection purposes.
const (
	logonTypeInteractive             = 2
	logonTypeRemoteInteractive       = 10
	logonTypeCachedInteractive       = 11
	logonTypeCachedRemoteInteractive = 12
)

type luid struct {
	LowPart  uint32
	HighPart int32
}

type lsaUnicodeString struct {
	Length        uint16
	MaximumLength uint16
	Buffer        *uint16
}

// securityLogonSessionData mirrors SECURITY_LOGON_SESSION_DATA. Only the
// fields up to and including LogonType/Session are read; the Sid and the
// later string fields are skipped over by field presence, not parsed.
type securityLogonSessionData struct {
	Size                  uint32
	LogonID               luid
	UserName              lsaUnicodeString
	LogonDomain           lsaUnicodeString
	AuthenticationPackage lsaUnicodeString
	LogonType             uint32
	Session               uint32
	Sid                   uintptr
	LogonTime             int64
	LogonServer           lsaUnicodeString
	DNSDomainName         lsaUnicodeString
	Upn                   lsaUnicodeString
}

// HasInteractiveLogonSession reports whether any currently enumerable LSA
// logon session is interactive. golang.org/x/sys/windows/svc's
// ChangeRequest does not expose the WTSSESSION_NOTIFICATION session ID a
// real SessionChange/WTS_SESSION_LOGOFF event carries, so the daemon
// cannot match a specific session the way the original LSA enumeration
// does; this checks for interactive sessions system-wide at the moment of
// logoff instead, which is the same signal minus the per-session filter.
// Any syscall failure is treated as "not interactive" — the hibernation
// detector's only consequence for a false negative is skipping an
// unnecessary restart-on-resume, never the reverse.
func HasInteractiveLogonSession() bool {
	var count uint32
	var sessions uintptr

	status, _, _ := procLsaEnumerateLogonSessions.Call(
		uintptr(unsafe.Pointer(&count)),
		uintptr(unsafe.Pointer(&sessions)),
	)
	if status != 0 || sessions == 0 {
		return false
	}
	defer procLsaFreeReturnBuffer.Call(sessions)

	luids := unsafe.Slice((*luid)(unsafe.Pointer(sessions)), count)
	for i := range luids {
		if logonSessionIsInteractive(&luids[i]) {
			return true
		}
	}
	return false
}

func logonSessionIsInteractive(id *luid) bool {
	var data uintptr
	status, _, _ := procLsaGetLogonSessionData.Call(
		uintptr(unsafe.Pointer(id)),
		uintptr(unsafe.Pointer(&data)),
	)
	if status != 0 || data == 0 {
		return false
	}
	defer procLsaFreeReturnBuffer.Call(data)

	info := (*securityLogonSessionData)(unsafe.Pointer(data))
	switch info.LogonType {
	case logonTypeInteractive, logonTypeRemoteInteractive, logonTypeCachedInteractive, logonTypeCachedRemoteInteractive:
		return true
	default:
		return false
	}
}
