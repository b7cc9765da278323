package engine

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures. Callers must distinguish the two to
// decide whether to tell the user to retry or to report a permanent
// rejection; nothing in the facade retries on its own.
type Kind int

const (
	// Unreachable is a transport-level failure: the daemon could not be
	// reached, timed out, or refused our credentials.
	Unreachable Kind = iota + 1
	// Rejected is an RPC-level failure for this specific input: duplicate
	// torrent, malformed magnet, unknown torrent id.
	Rejected
)

func (k Kind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error is the uniform failure type returned by every Engine operation.
type Error struct {
	Kind     Kind
	Endpoint string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Endpoint, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnreachable reports whether err is an engine error of kind Unreachable.
func IsUnreachable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == Unreachable
}

// IsRejected reports whether err is an engine error of kind Rejected.
func IsRejected(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == Rejected
}
