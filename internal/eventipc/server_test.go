package eventipc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func testPath(t *testing.T) string {
	t.Helper()
	return EndpointPath(uuid.NewString())
}

func TestServerDeliversEventsInOrder(t *testing.T) {
	path := testPath(t)

	var mu sync.Mutex
	var received []EventKind

	srv := NewServer(path, func(kind EventKind, env map[string]string) {
		mu.Lock()
		received = append(received, kind)
		mu.Unlock()
	}, nil)
	require.NoError(t, srv.Start())
	defer srv.ForceStop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Dial(ctx, path)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Event(ctx, EventUp, map[string]string{"dev": "tun0"}))
	require.NoError(t, client.Event(ctx, EventRouteUp, map[string]string{}))
	require.NoError(t, client.Event(ctx, EventDown, map[string]string{}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 3
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []EventKind{EventUp, EventRouteUp, EventDown}, received)
}

func TestServerRejectsUnknownEventCode(t *testing.T) {
	path := testPath(t)

	srv := NewServer(path, func(EventKind, map[string]string) {
		t.Fatal("sink must not be invoked for an unknown event code")
	}, nil)
	require.NoError(t, srv.Start())
	defer srv.ForceStop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Dial(ctx, path)
	require.NoError(t, err)
	defer client.Close()

	err = client.Event(ctx, EventKind(999), nil)
	require.Error(t, err)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServerFiresOnPeerGoneWhenClientDisconnects(t *testing.T) {
	path := testPath(t)

	goneCh := make(chan struct{})
	var once sync.Once

	srv := NewServer(path, func(EventKind, map[string]string) {}, func() {
		once.Do(func() { close(goneCh) })
	})
	require.NoError(t, srv.Start())
	defer srv.ForceStop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Dial(ctx, path)
	require.NoError(t, err)
	require.NoError(t, client.Event(ctx, EventUp, nil))
	require.NoError(t, client.Close())

	select {
	case <-goneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("onPeerGone was not called after client disconnect")
	}
}

func TestEndpointPathIsSessionScoped(t *testing.T) {
	a := EndpointPath(uuid.NewString())
	b := EndpointPath(uuid.NewString())
	require.NotEqual(t, a, b)
	require.Contains(t, a, "talpid-openvpn-")
}
