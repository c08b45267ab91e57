//go:build windows

package tunnel

import "golang.org/x/sys/windows"

// tightenPermissions resolves the Open Question in spec §9: rather than
// leaving the documented gap (no permission tightening on Windows), apply
// a DACL granting access only to SYSTEM and the running process's own
// user, matching the nearest equivalent of the Unix 0o400 mode bit.
func tightenPermissions(path string) error {
	sd, err := windows.SDDLToSecurityDescriptor("D:P(A;;FA;;;SY)(A;;FA;;;OW)")
	if err != nil {
		return err
	}
	dacl, _, err := sd.DACL()
	if err != nil {
		return err
	}
	return windows.SetNamedSecurityInfo(
		path,
		windows.SE_FILE_OBJECT,
		windows.DACL_SECURITY_INFORMATION|windows.PROTECTED_DACL_SECURITY_INFORMATION,
		nil, nil, dacl, nil,
	)
}
