package conn

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors surfaced to application code through Handle.SendRequest
// and through a Connection's Err() accessor. Internal machinery never
// leaks past these.
var (
	// ErrConnectionClosed is returned when a request is sent after, or a
	// pending request is still outstanding when, the connection's write
	// half has terminated.
	ErrConnectionClosed = errors.New("conn: connection closed")

	// ErrRequestTimedOut is returned when a pending request's deadline
	// elapses (or its context is cancelled) before a final response
	// arrives.
	ErrRequestTimedOut = errors.New("conn: request timed out")

	// ErrRequestCancelled is returned when the correlator determines no
	// response will ever arrive for a pending request (the inbound
	// response stream ended).
	ErrRequestCancelled = errors.New("conn: request cancelled")

	// ErrDecodingTimedOut is recorded into the read half of the protocol
	// state when a decode begins but never completes within the
	// configured deadline.
	ErrDecodingTimedOut = errors.New("conn: decoding timed out")
)

// OperationError wraps a terminal connection failure: a decode or sink
// error that narrowed a protocol state half to Error. Message-level
// failures are handled inline (400/503 responses) and never reach this
// type.
type OperationError struct {
	Cause error
}

func (e *OperationError) Error() string { return fmt.Sprintf("conn: operation failed: %v", e.Cause) }

func (e *OperationError) Unwrap() error { return e.Cause }

// wrapDecodeError annotates a transport-level decode failure with a stack
// trace via github.com/pkg/errors, preserving the original cause for
// operators reading logs while giving OperationError a single type to
// carry.
func wrapDecodeError(err error) error {
	return errors.Wrap(err, "decode message stream")
}

// wrapSinkError annotates a transport-level write failure the same way.
func wrapSinkError(err error) error {
	return errors.Wrap(err, "write to message sink")
}
