// Package eventipc implements the per-session Event IPC Server (§4.B):
// a local-transport RPC server the Tunnel Supervisor starts before
// spawning the tunnel subprocess, so the subprocess's plugin can report
// structured events (RouteUp, Up, Down, ...) back to the daemon.
//
// The wire framing is gRPC-shaped per §6 ("RPC framing via gRPC-style
// unary event(EventType{event, env}) -> ()"), but this repository has no
// protoc-generated message types available to it, so the service is
// registered with a hand-written grpc.ServiceDesc and a small JSON codec
// instead of generated protobuf bindings. This exercises the same
// google.golang.org/grpc server/client/interceptor/GracefulStop machinery
// a protoc-generated service would.
package eventipc

import "fmt"

// EventKind is the closed enum of event kinds the tunnel plugin may
// report. Unknown numeric codes are rejected with InvalidArgument before
// ever reaching a sink (§4.B).
type EventKind uint32

const (
	EventUp EventKind = iota
	EventDown
	EventRouteUp
	EventRoutePredown
	EventAuthFailed
	EventReneg
)

func (k EventKind) String() string {
	switch k {
	case EventUp:
		return "up"
	case EventDown:
		return "down"
	case EventRouteUp:
		return "route-up"
	case EventRoutePredown:
		return "route-predown"
	case EventAuthFailed:
		return "auth-failed"
	case EventReneg:
		return "reneg"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(k))
	}
}

// ParseEventKind validates a wire event code against the closed enum.
func ParseEventKind(code uint32) (EventKind, bool) {
	switch EventKind(code) {
	case EventUp, EventDown, EventRouteUp, EventRoutePredown, EventAuthFailed, EventReneg:
		return EventKind(code), true
	default:
		return 0, false
	}
}

// EventRequest is the unary RPC request message: an event kind plus an
// environment-variable-shaped payload, matching the env map the OpenVPN
// up/down/route-up scripts are invoked with.
type EventRequest struct {
	Event uint32            `json:"event"`
	Env   map[string]string `json:"env"`
}

// EventReply is the (empty) unary RPC response.
type EventReply struct{}
