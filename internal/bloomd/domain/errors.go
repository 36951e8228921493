package domain

import "errors"

var (
	// ErrConfig marks a malformed or unacceptable configuration line.
	// The session stays in AwaitingConfig and the client may retry.
	ErrConfig = errors.New("invalid configuration")

	// ErrBadRequest marks a malformed command line.
	ErrBadRequest = errors.New("bad request")
)
