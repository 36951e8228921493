package transport

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/bloomd/internal/bloomd/gateways/wire"
)

func waitDone(t *testing.T, tr ServerTransport) {
	t.Helper()
	select {
	case <-tr.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("transport did not finish")
	}
}

func TestStdioTransport_ServesUntilEOF(t *testing.T) {
	in := strings.NewReader("\n8 1\nPOST hit.com\n\nGET ghost.com\nGET nope.com\n")
	var out bytes.Buffer

	tr := NewStdioTransport(in, &out, wire.NewTextCodec(), &testLogger{}, 0)
	require.NoError(t, tr.Start(context.Background(), newOpener(&echoCoordinator{})))
	waitDone(t, tr)
	require.NoError(t, tr.Stop())

	assert.Equal(t, "201 Created\n200 Ok\n\ntrue false\n404 Not Found\n\nfalse\n", out.String())
	assert.Equal(t, "stdio", tr.Address())
}

func TestStdioTransport_StartTwice(t *testing.T) {
	tr := NewStdioTransport(strings.NewReader(""), io.Discard, wire.NewTextCodec(), &testLogger{}, 0)
	require.NoError(t, tr.Start(context.Background(), newOpener(&echoCoordinator{})))
	assert.Error(t, tr.Start(context.Background(), newOpener(&echoCoordinator{})))
	waitDone(t, tr)
}

func TestStdioTransport_RestartRejected(t *testing.T) {
	tr := NewStdioTransport(strings.NewReader("8 1\n"), io.Discard, wire.NewTextCodec(), &testLogger{}, 0)
	require.NoError(t, tr.Start(context.Background(), newOpener(&echoCoordinator{})))
	waitDone(t, tr)
	require.NoError(t, tr.Stop())
	assert.Error(t, tr.Start(context.Background(), newOpener(&echoCoordinator{})))
}

func TestStdioTransport_StopClosesInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	out := &syncBuffer{}

	tr := NewStdioTransport(pr, out, wire.NewTextCodec(), &testLogger{}, 0)
	require.NoError(t, tr.Start(context.Background(), newOpener(&echoCoordinator{})))

	_, err := io.WriteString(pw, "8 1\nPOST hit.com\n")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return out.String() != "" }, 2*time.Second, 10*time.Millisecond)

	stopped := make(chan error, 1)
	go func() { stopped <- tr.Stop() }()
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not unblock the pending read")
	}
	waitDone(t, tr)
	assert.Equal(t, "201 Created\n", out.String())
}
