package eventipc

import (
	"net"
	"sync"
)

// watchedListener wraps a net.Listener so the server can detect "peer
// disconnect or transport error" (§4.B) without polling: this IPC server
// only ever serves one client connection (the tunnel plugin), so closing
// of that one connection is exactly the signal the Tunnel Supervisor
// needs to begin its own teardown.
type watchedListener struct {
	net.Listener
	onClose func()
	once    sync.Once
}

func newWatchedListener(ln net.Listener, onClose func()) *watchedListener {
	return &watchedListener{Listener: ln, onClose: onClose}
}

func (w *watchedListener) Accept() (net.Conn, error) {
	conn, err := w.Listener.Accept()
	if err != nil {
		w.fire()
		return nil, err
	}
	return &watchedConn{Conn: conn, fire: w.fire}, nil
}

func (w *watchedListener) fire() {
	w.once.Do(func() {
		if w.onClose != nil {
			w.onClose()
		}
	})
}

// watchedConn fires the listener's onClose callback the moment the
// client's single connection is closed, whether by the client hanging up
// or by a read/write failure.
type watchedConn struct {
	net.Conn
	fire func()
}

func (c *watchedConn) Close() error {
	err := c.Conn.Close()
	c.fire()
	return err
}
