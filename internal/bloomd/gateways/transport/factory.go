package transport

import (
	"fmt"
	"io"
	"os"

	"github.com/haukened/bloomd/internal/bloomd/common/log"
	"github.com/haukened/bloomd/internal/bloomd/gateways/wire"
)

// Options carries what any transport may need.
type Options struct {
	Addr         string
	Codec        wire.LineCodec
	Logger       log.Logger
	MaxConns     int
	MaxLineBytes int
	In           io.Reader // stdio only; defaults to os.Stdin
	Out          io.Writer // stdio only; defaults to os.Stdout
}

// NewTransport creates a transport of the given type.
func NewTransport(kind TransportType, opts Options) (ServerTransport, error) {
	if opts.Codec == nil {
		opts.Codec = wire.NewTextCodec()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	switch kind {
	case TransportTCP:
		return NewTCPTransport(opts.Addr, opts.Codec, opts.Logger, opts.MaxConns, opts.MaxLineBytes), nil
	case TransportStdio:
		in, out := opts.In, opts.Out
		if in == nil {
			in = os.Stdin
		}
		if out == nil {
			out = os.Stdout
		}
		return NewStdioTransport(in, out, opts.Codec, opts.Logger, opts.MaxLineBytes), nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", kind)
	}
}

// GetSupportedTransports lists the transport types NewTransport accepts.
func GetSupportedTransports() []TransportType {
	return []TransportType{TransportTCP, TransportStdio}
}

// IsTransportSupported reports whether kind is supported.
func IsTransportSupported(kind TransportType) bool {
	for _, t := range GetSupportedTransports() {
		if t == kind {
			return true
		}
	}
	return false
}
