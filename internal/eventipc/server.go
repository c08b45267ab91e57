package eventipc

import (
	"context"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Sink is invoked once per inbound event, in arrival order, before the
// RPC is acknowledged. Calls within one session are serialized; the sink
// must tolerate being called concurrently across different sessions.
type Sink func(kind EventKind, env map[string]string)

// Server is a per-session Event IPC Server (§4.B). Exactly one tunnel
// session's plugin is expected to dial it.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	path       string
	sink       Sink
	onPeerGone func()

	sinkMu sync.Mutex // serializes sink invocations within this session

	doneOnce sync.Once
	done     chan struct{} // closed once the server has fully stopped
}

// NewServer constructs a Server bound to the given per-session endpoint
// path (see EndpointPath) with the given event sink. onPeerGone, if
// non-nil, is invoked once, the first time either a client connection
// closes (peer disconnect or transport error) or the listener's Accept
// fails, which includes the listener being closed by Stop/ForceStop.
// Invoking it does not stop the server.
func NewServer(path string, sink Sink, onPeerGone func()) *Server {
	s := &Server{
		path:       path,
		sink:       sink,
		onPeerGone: onPeerGone,
		done:       make(chan struct{}),
	}

	gs := grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
	)
	gs.RegisterService(&serviceDesc, eventDispatcherServer(s))
	s.grpcServer = gs
	return s
}

// Start binds the listener and begins serving. It posts "ready" by
// returning nil exactly once binding succeeds; if binding fails, the
// error is returned and no serving goroutine is started (§4.B: "If
// binding fails, the error is propagated instead and no ready signal is
// sent").
func (s *Server) Start() error {
	ln, err := listen(s.path)
	if err != nil {
		return err
	}
	s.listener = newWatchedListener(ln, s.firePeerGone)

	go func() {
		defer s.markDone()
		// Serve returns when the listener closes (Stop/ForceStop) or on a
		// fatal accept error. A client disconnecting does not make it
		// return.
		_ = s.grpcServer.Serve(s.listener)
	}()
	return nil
}

// Wait blocks until the server has fully stopped, via Stop, ForceStop, or
// a fatal accept error. A peer disconnect alone only invokes onPeerGone;
// the server keeps serving and Wait keeps blocking.
func (s *Server) Wait() {
	<-s.done
}

func (s *Server) markDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Server) firePeerGone() {
	if s.onPeerGone != nil {
		s.onPeerGone()
	}
}

// Stop shuts the server down gracefully (the abort-signal path in §4.B),
// falling back to a hard stop if graceful shutdown does not complete
// within 3 seconds.
func (s *Server) Stop() {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		s.grpcServer.Stop()
	}
}

// ForceStop stops the server immediately without waiting for in-flight
// RPCs to finish.
func (s *Server) ForceStop() {
	s.grpcServer.Stop()
}

// Event implements eventDispatcherServer. Unknown event codes are
// rejected with InvalidArgument without invoking the sink (§4.B).
func (s *Server) Event(ctx context.Context, req *EventRequest) (*EventReply, error) {
	kind, ok := ParseEventKind(req.Event)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown event code %d", req.Event)
	}

	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()

	if s.sink != nil {
		s.sink(kind, req.Env)
	}
	return &EventReply{}, nil
}
