// Package proxy implements the local proxy subsystem the Tunnel
// Supervisor optionally launches before spawning the tunnel binary
// (§4.C step 3): a local TCP listener that forwards connections to a
// remote SOCKS5 proxy, so the tunnel binary only ever needs to talk to
// 127.0.0.1 and never needs SOCKS5 support of its own.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/net/proxy"

	"github.com/mullvad/talpid-daemon/internal/core"
)

// Config describes the upstream SOCKS5 proxy to bridge to, and the final
// destination every local connection should be forwarded to through it
// (the tunnel binary's remote endpoint).
type Config struct {
	Server   string
	Port     int
	Username string
	Password string

	// Target is the host:port the tunnel binary ultimately needs to
	// reach; every connection accepted on the local listener is
	// forwarded here via the upstream SOCKS5 proxy.
	Target string
}

// Proxy is a local forwarding listener. Start binds an ephemeral local
// port and begins accepting connections; each accepted connection is
// forwarded to the configured upstream over a fresh SOCKS5-dialed
// connection.
type Proxy struct {
	cfg Config

	mu        sync.Mutex
	listener  net.Listener
	wg        sync.WaitGroup
	dialer    proxy.Dialer
	stopping  bool
	done      chan error
	doneOnce  sync.Once
}

// New constructs a Proxy bridging to cfg's upstream SOCKS5 server.
func New(cfg Config) (*Proxy, error) {
	if cfg.Server == "" {
		return nil, fmt.Errorf("proxy: server is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("proxy: invalid port %d", cfg.Port)
	}
	if cfg.Target == "" {
		return nil, fmt.Errorf("proxy: target is required")
	}

	var auth *proxy.Auth
	if cfg.Username != "" {
		auth = &proxy.Auth{User: cfg.Username, Password: cfg.Password}
	}

	upstream := net.JoinHostPort(cfg.Server, fmt.Sprintf("%d", cfg.Port))
	dialer, err := proxy.SOCKS5("tcp", upstream, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("proxy: create SOCKS5 dialer: %w", err)
	}

	return &Proxy{cfg: cfg, dialer: dialer, done: make(chan error, 1)}, nil
}

// Done reports the proxy's own exit: it fires with a non-nil error if the
// local listener failed unexpectedly (used by the Tunnel Supervisor's
// "proxy coupling" watcher, §4.C), or nil after a caller-initiated Stop.
func (p *Proxy) Done() <-chan error {
	return p.done
}

// Start binds a local listener on 127.0.0.1:0 and begins forwarding.
// Returns the bound port, matching the bind-then-report-port contract
// the supervisor needs to pass on to the tunnel binary.
func (p *Proxy) Start(ctx context.Context) (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("proxy: bind local listener: %w", err)
	}

	p.mu.Lock()
	p.listener = ln
	p.mu.Unlock()

	p.wg.Add(1)
	go p.acceptLoop(ctx)

	return ln.Addr().(*net.TCPAddr).Port, nil
}

func (p *Proxy) acceptLoop(ctx context.Context) {
	defer p.wg.Done()
	for {
		conn, err := p.listener.Accept()
		if err != nil {
			p.mu.Lock()
			stopping := p.stopping
			p.mu.Unlock()
			p.doneOnce.Do(func() {
				if stopping || errors.Is(err, net.ErrClosed) {
					p.done <- nil
				} else {
					p.done <- err
				}
				close(p.done)
			})
			return
		}
		p.wg.Add(1)
		go p.serve(ctx, conn)
	}
}

func (p *Proxy) serve(ctx context.Context, conn net.Conn) {
	defer p.wg.Done()
	defer conn.Close()

	upstream, err := p.dialer.Dial("tcp", p.cfg.Target)
	if err != nil {
		core.Log.Warnf("Proxy", "dial upstream: %v", err)
		return
	}
	defer upstream.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		io.Copy(upstream, conn)
	}()
	go func() {
		defer wg.Done()
		io.Copy(conn, upstream)
	}()
	wg.Wait()
}

// Stop closes the local listener and waits for in-flight connections to
// finish being forwarded.
func (p *Proxy) Stop() error {
	p.mu.Lock()
	p.stopping = true
	ln := p.listener
	p.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	p.wg.Wait()
	return err
}
