// Package transport carries the line protocol over a byte stream. Each
// transport feeds lines to a session.Handler and writes the encoded replies
// back; it knows nothing about filters or URLs.
package transport

import (
	"context"

	"github.com/haukened/bloomd/internal/bloomd/services/session"
)

// ServerTransport is implemented by every transport.
type ServerTransport interface {
	// Start begins serving sessions opened through opener. It returns once
	// the transport is accepting input.
	Start(ctx context.Context, opener session.Opener) error

	// Stop closes the input sources and waits for every session worker to
	// return before reporting the transport stopped.
	Stop() error

	// Address returns where the transport is bound.
	Address() string

	// Done is closed once the transport has nothing left to serve: after
	// Stop, or when stdio input reaches end of file.
	Done() <-chan struct{}
}

// TransportType names a supported transport.
type TransportType string

const (
	// TransportTCP serves one session per TCP connection.
	TransportTCP TransportType = "tcp"
	// TransportStdio serves a single session on standard input and output.
	TransportStdio TransportType = "stdio"
)
