package domain

import "fmt"

// Status is the outcome kind of a command, numbered after the HTTP codes the
// wire protocol renders.
type Status uint16

const (
	StatusOK            Status = 200
	StatusCreated       Status = 201
	StatusNoContent     Status = 204
	StatusBadRequest    Status = 400
	StatusNotFound      Status = 404
	StatusInternalError Status = 500
)

// Code returns the numeric status code.
func (s Status) Code() int { return int(s) }

// Text returns the reason phrase used on the wire.
func (s Status) Text() string {
	switch s {
	case StatusOK:
		return "Ok"
	case StatusCreated:
		return "Created"
	case StatusNoContent:
		return "No Content"
	case StatusBadRequest:
		return "Bad Request"
	case StatusNotFound:
		return "Not Found"
	case StatusInternalError:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}

// String renders the status line without terminator, e.g. "404 Not Found".
func (s Status) String() string {
	return fmt.Sprintf("%d %s", s.Code(), s.Text())
}
