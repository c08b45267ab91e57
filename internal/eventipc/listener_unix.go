//go:build !windows

package eventipc

import (
	"net"
	"os"
)

// listen binds the per-session Unix domain socket. A stale socket file
// from a crashed previous run at the same path is removed first (path
// collisions cannot normally happen since the path is uuid-seeded, but a
// leftover file would otherwise make bind fail with "address already in
// use"). Permissions are narrowed to owner-only: this socket is a private
// channel between the daemon and a child process it spawned.
func listen(path string) (net.Listener, error) {
	os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	os.Chmod(path, 0600)
	return ln, nil
}
