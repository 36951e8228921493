package domain

import (
	"fmt"
	"strings"
)

// Verb is one of the three protocol commands.
type Verb uint8

const (
	VerbAdd Verb = iota + 1
	VerbCheck
	VerbDelete
)

// String returns the protocol token for the verb.
func (v Verb) String() string {
	switch v {
	case VerbAdd:
		return "POST"
	case VerbCheck:
		return "GET"
	case VerbDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("Verb(%d)", v)
	}
}

// ParseVerb maps a protocol token to a Verb. Matching is case-sensitive.
func ParseVerb(tok string) (Verb, error) {
	switch tok {
	case "POST":
		return VerbAdd, nil
	case "GET":
		return VerbCheck, nil
	case "DELETE":
		return VerbDelete, nil
	default:
		return 0, fmt.Errorf("%w: unknown command %q", ErrBadRequest, tok)
	}
}

// Command is a parsed command line.
type Command struct {
	Verb Verb
	URL  string
}

// ParseCommandLine splits line on whitespace into exactly COMMAND and URL.
func ParseCommandLine(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Command{}, fmt.Errorf("%w: expected 2 tokens, got %d", ErrBadRequest, len(fields))
	}
	verb, err := ParseVerb(fields[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Verb: verb, URL: fields[1]}, nil
}
