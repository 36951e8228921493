package domain

// ReplyKind tells the framing layer what, if anything, to write back.
type ReplyKind uint8

const (
	// ReplyNone writes nothing (accepted configuration, blank line).
	ReplyNone ReplyKind = iota
	// ReplyConfigError reports a rejected configuration line.
	ReplyConfigError
	// ReplyOutcome carries a command outcome.
	ReplyOutcome
)

// Reply is what a session produces for one input line.
type Reply struct {
	Kind    ReplyKind
	Verb    Verb // zero when the line did not parse as a command
	Outcome Outcome
	Err     error
}

// NoReply is the reply for lines that produce no output.
func NoReply() Reply { return Reply{Kind: ReplyNone} }
