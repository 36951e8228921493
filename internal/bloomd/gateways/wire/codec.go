// Package wire frames the line protocol shared by the TCP and stdio
// transports.
package wire

import (
	"errors"
	"strings"

	"github.com/haukened/bloomd/internal/bloomd/domain"
)

// LineCodec converts raw input lines to protocol lines and replies to bytes.
type LineCodec interface {
	// DecodeLine strips the line terminator, including a carriage return.
	DecodeLine(raw string) string
	// EncodeReply renders r; a nil result means nothing is written.
	EncodeReply(r domain.Reply) []byte
}

type textCodec struct{}

// NewTextCodec returns the canonical framing:
//
//	201 Created
//	204 No Content
//	400 Bad Request
//	200 Ok\n\ntrue true      (Check: blank line then match flags)
//	404 Not Found\n\nfalse   (Check miss)
func NewTextCodec() LineCodec { return textCodec{} }

func (textCodec) DecodeLine(raw string) string {
	return strings.TrimRight(raw, "\r\n")
}

func (textCodec) EncodeReply(r domain.Reply) []byte {
	switch r.Kind {
	case domain.ReplyNone:
		return nil
	case domain.ReplyConfigError:
		if r.Err == nil || errors.Is(r.Err, domain.ErrConfig) {
			return statusLine(domain.StatusBadRequest)
		}
		return statusLine(domain.StatusInternalError)
	}

	o := r.Outcome
	out := statusLine(o.Status)
	if r.Verb != domain.VerbCheck {
		return out
	}
	switch o.Status {
	case domain.StatusOK, domain.StatusNotFound:
		out = append(out, '\n')
		out = append(out, matchLine(o)...)
	}
	return out
}

func statusLine(s domain.Status) []byte {
	return []byte(s.String() + "\n")
}

// matchLine encodes FilterMatch and ExactMatch, or a lone "false" when the
// filter ruled the key out.
func matchLine(o domain.Outcome) string {
	if !o.FilterMatch {
		return "false\n"
	}
	if o.ExactMatch {
		return "true true\n"
	}
	return "true false\n"
}
