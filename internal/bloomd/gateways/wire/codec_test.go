package wire

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haukened/bloomd/internal/bloomd/domain"
)

func TestDecodeLine(t *testing.T) {
	c := NewTextCodec()
	assert.Equal(t, "GET a.com", c.DecodeLine("GET a.com\r"))
	assert.Equal(t, "GET a.com", c.DecodeLine("GET a.com\r\n"))
	assert.Equal(t, "GET a.com", c.DecodeLine("GET a.com"))
	assert.Equal(t, "", c.DecodeLine("\r"))
}

func TestEncodeReply(t *testing.T) {
	tests := []struct {
		name  string
		reply domain.Reply
		want  string
	}{
		{"none", domain.NoReply(), ""},
		{"config error", domain.Reply{Kind: domain.ReplyConfigError, Err: fmt.Errorf("%w: bad", domain.ErrConfig)}, "400 Bad Request\n"},
		{"config io error", domain.Reply{Kind: domain.ReplyConfigError, Err: errors.New("disk full")}, "500 Internal Server Error\n"},
		{"created", outcome(domain.VerbAdd, domain.NewOutcome(domain.StatusCreated)), "201 Created\n"},
		{"no content", outcome(domain.VerbDelete, domain.NewOutcome(domain.StatusNoContent)), "204 No Content\n"},
		{"delete not found", outcome(domain.VerbDelete, domain.NewOutcome(domain.StatusNotFound)), "404 Not Found\n"},
		{"bad request", outcome(0, domain.NewOutcome(domain.StatusBadRequest)), "400 Bad Request\n"},
		{"check bad request", outcome(domain.VerbCheck, domain.NewOutcome(domain.StatusBadRequest)), "400 Bad Request\n"},
		{"check true positive", outcome(domain.VerbCheck, domain.CheckOutcome(true, true)), "200 Ok\n\ntrue true\n"},
		{"check false positive", outcome(domain.VerbCheck, domain.CheckOutcome(true, false)), "200 Ok\n\ntrue false\n"},
		{"check miss", outcome(domain.VerbCheck, domain.CheckOutcome(false, false)), "404 Not Found\n\nfalse\n"},
		{"internal error", outcome(domain.VerbAdd, domain.NewOutcome(domain.StatusInternalError)), "500 Internal Server Error\n"},
		{"check internal error", outcome(domain.VerbCheck, domain.NewOutcome(domain.StatusInternalError)), "500 Internal Server Error\n"},
	}
	c := NewTextCodec()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(c.EncodeReply(tt.reply)))
		})
	}
}

func outcome(v domain.Verb, o domain.Outcome) domain.Reply {
	return domain.Reply{Kind: domain.ReplyOutcome, Verb: v, Outcome: o}
}
