package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"golang.org/x/net/netutil"

	"github.com/haukened/bloomd/internal/bloomd/common/log"
	"github.com/haukened/bloomd/internal/bloomd/gateways/wire"
	"github.com/haukened/bloomd/internal/bloomd/services/session"
)

// DefaultMaxLineBytes bounds a protocol line when no limit is configured.
const DefaultMaxLineBytes = 64 * 1024

// TCPTransport runs one worker goroutine per connection. Workers are
// tracked so Stop can close their connections and join them.
type TCPTransport struct {
	addr         string
	codec        wire.LineCodec
	logger       log.Logger
	maxConns     int
	maxLineBytes int

	mu      sync.Mutex
	ln      net.Listener
	running bool
	conns   map[net.Conn]struct{}
	stopCh  chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewTCPTransport creates a TCP transport. maxConns <= 0 means unlimited.
func NewTCPTransport(addr string, codec wire.LineCodec, logger log.Logger, maxConns, maxLineBytes int) *TCPTransport {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	return &TCPTransport{
		addr:         addr,
		codec:        codec,
		logger:       logger,
		maxConns:     maxConns,
		maxLineBytes: maxLineBytes,
		conns:        make(map[net.Conn]struct{}),
		done:         make(chan struct{}),
	}
}

// Start binds the listener and starts the accept loop.
func (t *TCPTransport) Start(ctx context.Context, opener session.Opener) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("TCP transport already running")
	}
	if t.ln != nil {
		return fmt.Errorf("TCP transport cannot be restarted")
	}

	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.addr, err)
	}
	if t.maxConns > 0 {
		ln = netutil.LimitListener(ln, t.maxConns)
	}

	t.ln = ln
	t.running = true
	t.stopCh = make(chan struct{})

	t.logger.Info(map[string]any{
		"transport": "tcp",
		"address":   ln.Addr().String(),
		"max_conns": t.maxConns,
	}, "Transport started")

	t.wg.Add(1)
	go t.acceptLoop(opener)

	stopCh := t.stopCh
	go func() {
		select {
		case <-ctx.Done():
			_ = t.Stop()
		case <-stopCh:
		}
	}()
	return nil
}

// Stop closes the listener and every open connection, then waits for all
// workers to return.
func (t *TCPTransport) Stop() error {
	t.mu.Lock()
	if !t.running {
		// A concurrent Stop may still be draining workers.
		started, done := t.ln != nil, t.done
		t.mu.Unlock()
		if started {
			<-done
		}
		return nil
	}
	t.running = false
	close(t.stopCh)

	closeErr := t.ln.Close()
	if closeErr != nil {
		t.logger.Warn(map[string]any{"error": closeErr.Error()}, "Error closing listener")
	}
	for c := range t.conns {
		_ = c.Close()
	}
	t.mu.Unlock()

	t.wg.Wait()
	close(t.done)

	t.logger.Info(map[string]any{
		"transport": "tcp",
		"address":   t.addr,
	}, "Transport stopped")
	return closeErr
}

// Address returns the bound address, or the configured one before Start.
func (t *TCPTransport) Address() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ln != nil {
		return t.ln.Addr().String()
	}
	return t.addr
}

// Done is closed once Stop has drained every worker.
func (t *TCPTransport) Done() <-chan struct{} { return t.done }

func (t *TCPTransport) acceptLoop(opener session.Opener) {
	defer t.wg.Done()
	for {
		conn, err := t.ln.Accept()
		if err != nil {
			if !t.isRunning() || errors.Is(err, net.ErrClosed) {
				t.logger.Debug(nil, "Accept loop exiting")
				return
			}
			t.logger.Warn(map[string]any{"error": err.Error()}, "Failed to accept connection")
			continue
		}
		if !t.track(conn) {
			_ = conn.Close()
			return
		}
		go t.serveConn(conn, opener)
	}
}

// track registers conn and its worker; it refuses once Stop has begun.
func (t *TCPTransport) track(conn net.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return false
	}
	t.conns[conn] = struct{}{}
	t.wg.Add(1)
	return true
}

func (t *TCPTransport) untrack(conn net.Conn) {
	t.mu.Lock()
	delete(t.conns, conn)
	t.mu.Unlock()
}

func (t *TCPTransport) isRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *TCPTransport) serveConn(conn net.Conn, opener session.Opener) {
	defer t.wg.Done()
	defer t.untrack(conn)
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	t.logger.Debug(map[string]any{"client": remote}, "Client connected")

	err := serveLines(conn, conn, opener.Open(remote), t.codec, t.maxLineBytes)
	if err != nil && t.isRunning() && !errors.Is(err, net.ErrClosed) {
		t.logger.Warn(map[string]any{"client": remote, "error": err.Error()}, "Session ended with error")
	}
	t.logger.Debug(map[string]any{"client": remote}, "Client disconnected")
}

// serveLines is the per-session loop shared by every transport: read a line,
// hand it to the session, write the reply, repeat until end of input.
func serveLines(r interface{ Read([]byte) (int, error) }, w interface{ Write([]byte) (int, error) }, h session.Handler, codec wire.LineCodec, maxLineBytes int) error {
	scanner := bufio.NewScanner(r)
	bufSize := 4096
	if maxLineBytes < bufSize {
		bufSize = maxLineBytes
	}
	scanner.Buffer(make([]byte, 0, bufSize), maxLineBytes)
	for scanner.Scan() {
		reply := h.HandleLine(codec.DecodeLine(scanner.Text()))
		out := codec.EncodeReply(reply)
		if len(out) == 0 {
			continue
		}
		if _, err := w.Write(out); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
	}
	return scanner.Err()
}

var _ ServerTransport = (*TCPTransport)(nil)
