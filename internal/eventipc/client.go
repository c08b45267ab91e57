package eventipc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultDialTimeout = 5 * time.Second

// Client is a minimal dialer for the Event IPC Server, used by tests to
// exercise the server end-to-end over its real transport.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the per-session endpoint at path.
func Dial(ctx context.Context, path string) (*Client, error) {
	return DialWithTimeout(ctx, path, defaultDialTimeout)
}

// DialWithTimeout connects with a custom dial timeout.
func DialWithTimeout(ctx context.Context, path string, timeout time.Duration) (*Client, error) {
	conn, err := grpc.NewClient(
		"passthrough:///"+path,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return dial(path, timeout)
		}),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	)
	if err != nil {
		return nil, fmt.Errorf("eventipc: dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Event sends one event over the RPC channel.
func (c *Client) Event(ctx context.Context, kind EventKind, env map[string]string) error {
	req := &EventRequest{Event: uint32(kind), Env: env}
	reply := new(EventReply)
	return c.conn.Invoke(ctx, eventFullMethod, req, reply)
}

// Close shuts down the client connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
