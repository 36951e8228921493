package transport

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/haukened/bloomd/internal/bloomd/common/log"
	"github.com/haukened/bloomd/internal/bloomd/gateways/wire"
	"github.com/haukened/bloomd/internal/bloomd/services/session"
)

// StdioTransport serves exactly one session over a reader and writer. It is
// single-threaded apart from the worker goroutine started by Start.
type StdioTransport struct {
	in           io.Reader
	out          io.Writer
	codec        wire.LineCodec
	logger       log.Logger
	maxLineBytes int

	mu      sync.Mutex
	running bool
	started bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewStdioTransport creates a transport reading in and writing out.
func NewStdioTransport(in io.Reader, out io.Writer, codec wire.LineCodec, logger log.Logger, maxLineBytes int) *StdioTransport {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	return &StdioTransport{
		in:           in,
		out:          out,
		codec:        codec,
		logger:       logger,
		maxLineBytes: maxLineBytes,
		done:         make(chan struct{}),
	}
}

// Start launches the session worker. The context is not consulted by the
// worker; Stop (or closing the input) ends it.
func (t *StdioTransport) Start(_ context.Context, opener session.Opener) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return fmt.Errorf("stdio transport already running")
	}
	if t.started {
		return fmt.Errorf("stdio transport cannot be restarted")
	}
	t.running = true
	t.started = true

	t.logger.Info(map[string]any{"transport": "stdio"}, "Transport started")

	h := opener.Open("stdio")
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer close(t.done)
		if err := serveLines(t.in, t.out, h, t.codec, t.maxLineBytes); err != nil {
			t.logger.Warn(map[string]any{"error": err.Error()}, "Session ended with error")
		}
		t.logger.Debug(nil, "End of input")
	}()
	return nil
}

// Stop closes the input when it is closable and waits for the worker.
func (t *StdioTransport) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		t.wg.Wait()
		return nil
	}
	t.running = false
	t.mu.Unlock()

	var err error
	if c, ok := t.in.(io.Closer); ok {
		err = c.Close()
	}
	t.wg.Wait()
	t.logger.Info(map[string]any{"transport": "stdio"}, "Transport stopped")
	return err
}

func (t *StdioTransport) Address() string { return "stdio" }

func (t *StdioTransport) Done() <-chan struct{} { return t.done }

var _ ServerTransport = (*StdioTransport)(nil)
