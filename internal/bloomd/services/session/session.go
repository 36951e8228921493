// Package session implements the per-connection protocol state machine: the
// first non-blank line configures the filter, every later line is a command.
package session

import (
	"errors"
	"strings"

	"github.com/haukened/bloomd/internal/bloomd/common/log"
	"github.com/haukened/bloomd/internal/bloomd/domain"
)

// State is the session's position in the protocol.
type State uint8

const (
	StateAwaitingConfig State = iota
	StateReady
)

func (s State) String() string {
	switch s {
	case StateAwaitingConfig:
		return "awaiting_config"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Coordinator is the shared command layer a session drives.
type Coordinator interface {
	Configure(spec domain.FilterSpec) error
	Execute(cmd domain.Command) domain.Outcome
}

// Handler turns one input line into one reply.
type Handler interface {
	HandleLine(line string) domain.Reply
}

// Session is owned by a single goroutine; it is not safe for concurrent use.
type Session struct {
	id     string
	state  State
	coord  Coordinator
	logger log.Logger
}

// New returns a session in StateAwaitingConfig.
func New(id string, coord Coordinator, logger log.Logger) *Session {
	return &Session{
		id:     id,
		coord:  coord,
		logger: log.With(logger, map[string]any{"session": id}),
	}
}

// ID returns the identifier given at construction.
func (s *Session) ID() string { return s.id }

// State returns the current protocol state.
func (s *Session) State() State { return s.state }

// HandleLine routes line by state. Blank lines are ignored in both states.
func (s *Session) HandleLine(line string) domain.Reply {
	if strings.TrimSpace(line) == "" {
		return domain.NoReply()
	}
	if s.state == StateAwaitingConfig {
		return s.configure(line)
	}
	return s.command(line)
}

func (s *Session) configure(line string) domain.Reply {
	spec, err := domain.ParseFilterSpec(line)
	if err == nil {
		err = s.coord.Configure(spec)
	}
	if err != nil {
		fields := map[string]any{"line": line, "error": err.Error()}
		if errors.Is(err, domain.ErrConfig) {
			s.logger.Info(fields, "Configuration rejected")
		} else {
			s.logger.Error(fields, "Configuration failed")
		}
		return domain.Reply{Kind: domain.ReplyConfigError, Err: err}
	}
	s.state = StateReady
	s.logger.Debug(map[string]any{"spec": spec.String()}, "Session ready")
	return domain.NoReply()
}

func (s *Session) command(line string) domain.Reply {
	cmd, err := domain.ParseCommandLine(line)
	if err != nil {
		s.logger.Debug(map[string]any{"line": line, "error": err.Error()}, "Bad command")
		return domain.Reply{
			Kind:    domain.ReplyOutcome,
			Outcome: domain.NewOutcome(domain.StatusBadRequest),
			Err:     err,
		}
	}
	out := s.coord.Execute(cmd)
	s.logger.Debug(map[string]any{
		"verb":         cmd.Verb.String(),
		"url":          cmd.URL,
		"status":       out.Status.Code(),
		"filter_match": out.FilterMatch,
		"exact_match":  out.ExactMatch,
	}, "Command executed")
	return domain.Reply{Kind: domain.ReplyOutcome, Verb: cmd.Verb, Outcome: out}
}

// Opener starts a session for each new connection.
type Opener interface {
	Open(id string) Handler
}

// Factory opens sessions that all share one Coordinator.
type Factory struct {
	coord  Coordinator
	logger log.Logger
}

// NewFactory returns an Opener bound to coord.
func NewFactory(coord Coordinator, logger log.Logger) *Factory {
	return &Factory{coord: coord, logger: logger}
}

func (f *Factory) Open(id string) Handler {
	return New(id, f.coord, f.logger)
}

var (
	_ Handler = (*Session)(nil)
	_ Opener  = (*Factory)(nil)
)
