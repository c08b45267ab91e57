package tunnel

import (
	"fmt"
	"os"

	"github.com/mullvad/talpid-daemon/internal/taperr"
)

// credentialsFile is a scoped-acquisition handle over a materialized
// on-disk credentials file: deleted early by delete() on the first RouteUp
// or, failing that, by the delete() Session.Wait defers on every one of its
// exit paths (§3 TunnelSession invariant).
type credentialsFile struct {
	path    string
	deleted bool
}

// writeCredentials materializes a `username\npassword\n` file at path.
// Mode is 0o400 on Unix; on Windows the permission bits are meaningless
// and a DACL is applied instead (see credentials_windows.go), resolving
// the Open Question in spec §9 rather than leaving the gap undocumented.
func writeCredentials(path, username, password string) (*credentialsFile, error) {
	body := fmt.Sprintf("%s\n%s\n", username, password)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o400)
	if err != nil {
		return nil, taperr.New(taperr.KindSetup, "write credentials file", err)
	}
	_, werr := f.WriteString(body)
	cerr := f.Close()
	if werr != nil {
		os.Remove(path)
		return nil, taperr.New(taperr.KindSetup, "write credentials file", werr)
	}
	if cerr != nil {
		os.Remove(path)
		return nil, taperr.New(taperr.KindSetup, "write credentials file", cerr)
	}

	if err := tightenPermissions(path); err != nil {
		// Best-effort: a failure to tighten permissions beyond what
		// OpenFile already applied is not fatal to starting the session.
	}

	return &credentialsFile{path: path}, nil
}

// delete best-effort unlinks the file. Failure is not an error (§4.C
// "Early credential deletion"). Idempotent.
func (c *credentialsFile) delete() {
	if c == nil || c.deleted {
		return
	}
	os.Remove(c.path)
	c.deleted = true
}
