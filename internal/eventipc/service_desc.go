package eventipc

import (
	"context"

	"google.golang.org/grpc"
)

// eventDispatcherServer is the interface the hand-written method handler
// dispatches to. *Server implements it.
type eventDispatcherServer interface {
	Event(ctx context.Context, req *EventRequest) (*EventReply, error)
}

const serviceName = "talpid.EventDispatcher"
const eventFullMethod = "/" + serviceName + "/Event"

func eventHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(EventRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(eventDispatcherServer).Event(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: eventFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(eventDispatcherServer).Event(ctx, req.(*EventRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// serviceDesc is the hand-written equivalent of what protoc-gen-go-grpc
// would emit for a service with a single unary "Event" method.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*eventDispatcherServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Event", Handler: eventHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eventipc",
}
