package transport

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/haukened/bloomd/internal/bloomd/domain"
	"github.com/haukened/bloomd/internal/bloomd/services/session"
)

// testLogger provides a no-op logger for tests that don't need to verify logging
type testLogger struct{}

func (t *testLogger) Info(map[string]any, string)  {}
func (t *testLogger) Error(map[string]any, string) {}
func (t *testLogger) Debug(map[string]any, string) {}
func (t *testLogger) Warn(map[string]any, string)  {}
func (t *testLogger) Panic(map[string]any, string) {}
func (t *testLogger) Fatal(map[string]any, string) {}

// echoCoordinator accepts any configuration and answers every command with a
// Check outcome whose flags encode the URL: "hit" is a true positive, "ghost"
// a false positive, anything else a miss. Adds return Created.
type echoCoordinator struct {
	mu       sync.Mutex
	commands []domain.Command
}

func (c *echoCoordinator) Configure(spec domain.FilterSpec) error {
	if spec.Size > 1<<20 {
		return fmt.Errorf("%w: too big", domain.ErrConfig)
	}
	return nil
}

func (c *echoCoordinator) Execute(cmd domain.Command) domain.Outcome {
	c.mu.Lock()
	c.commands = append(c.commands, cmd)
	c.mu.Unlock()
	switch cmd.Verb {
	case domain.VerbAdd:
		return domain.NewOutcome(domain.StatusCreated)
	case domain.VerbDelete:
		return domain.NewOutcome(domain.StatusNoContent)
	}
	switch {
	case strings.HasPrefix(cmd.URL, "hit"):
		return domain.CheckOutcome(true, true)
	case strings.HasPrefix(cmd.URL, "ghost"):
		return domain.CheckOutcome(true, false)
	default:
		return domain.CheckOutcome(false, false)
	}
}

func (c *echoCoordinator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.commands)
}

func newOpener(c *echoCoordinator) session.Opener {
	return session.NewFactory(c, &testLogger{})
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
