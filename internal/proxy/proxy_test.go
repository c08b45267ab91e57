package proxy

import (
	"bufio"
	"context"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeSOCKS5Server accepts exactly one connection, performs the minimal
// no-auth handshake, reads a CONNECT request, replies "succeeded" with a
// bound address of 0.0.0.0:0, then echoes everything it receives back to
// the client. This is enough to exercise Proxy's forwarding path without
// a full SOCKS5 implementation.
func fakeSOCKS5Server(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)

		hdr := make([]byte, 2) // VER NMETHODS
		if _, err := io.ReadFull(r, hdr); err != nil {
			return
		}
		if _, err := io.ReadFull(r, make([]byte, int(hdr[1]))); err != nil {
			return
		}
		conn.Write([]byte{0x05, 0x00}) // no auth required

		req := make([]byte, 4) // VER CMD RSV ATYP
		if _, err := io.ReadFull(r, req); err != nil {
			return
		}
		switch req[3] {
		case 0x01: // IPv4
			io.ReadFull(r, make([]byte, 4+2))
		case 0x03: // domain
			lenByte := make([]byte, 1)
			io.ReadFull(r, lenByte)
			io.ReadFull(r, make([]byte, int(lenByte[0])+2))
		case 0x04: // IPv6
			io.ReadFull(r, make([]byte, 16+2))
		}
		conn.Write([]byte{0x05, 0x00, 0x00, 0x01, 0, 0, 0, 0, 0, 0})

		io.Copy(conn, r)
	}()

	return ln.Addr().String()
}

func TestProxyForwardsThroughUpstream(t *testing.T) {
	addr := fakeSOCKS5Server(t)
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	p, err := New(Config{Server: host, Port: port, Target: "example.invalid:443"})
	require.NoError(t, err)

	localPort, err := p.Start(context.Background())
	require.NoError(t, err)
	defer p.Stop()

	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(localPort)), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))
	msg := []byte("hello through proxy")
	_, err = conn.Write(msg)
	require.NoError(t, err)

	buf := make([]byte, len(msg))
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, msg, buf)
}
