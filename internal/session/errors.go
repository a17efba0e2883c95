package session

import (
	"errors"
	"fmt"
)

var (
	// ErrMediaAccessDenied means the local media capability was unavailable.
	// Terminal for the attempt; callers surface it and do not retry.
	ErrMediaAccessDenied = errors.New("media access denied")

	// ErrNoPeerConnection means a signal arrived that needs a peer connection
	// none exists for, e.g. an answer without a preceding offer. A protocol
	// violation by the remote side, local to this session.
	ErrNoPeerConnection = errors.New("no active peer connection")

	// ErrNoLocalMedia means a negotiation event arrived before Start acquired
	// local media, which only a misbehaving relay can cause.
	ErrNoLocalMedia = errors.New("local media not acquired")

	// ErrSessionClosed means the session was already left or torn down.
	ErrSessionClosed = errors.New("session closed")
)

// SessionError wraps a failed negotiation step with the operation it belongs
// to.
type SessionError struct {
	Op      string
	Err     error
	Details string
}

func (e *SessionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *SessionError {
	return &SessionError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *SessionError {
	return &SessionError{Op: op, Err: err, Details: details}
}
