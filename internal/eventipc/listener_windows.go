//go:build windows

package eventipc

import (
	"net"

	"github.com/Microsoft/go-winio"
)

// listen binds the per-session Named Pipe. The security descriptor grants
// access to the local SYSTEM account only: unlike the shared, well-known
// pipe name a GUI client dials, this pipe's name is a per-session secret
// (the uuid in the path), and only the tunnel plugin this daemon itself
// spawned is expected to ever dial it.
func listen(path string) (net.Listener, error) {
	cfg := &winio.PipeConfig{
		SecurityDescriptor: "D:P(A;;GA;;;SY)",
		MessageMode:        false,
		InputBufferSize:    64 * 1024,
		OutputBufferSize:   64 * 1024,
	}
	return winio.ListenPipe(path, cfg)
}
