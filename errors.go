package scanlink

import (
	"errors"
	"fmt"
)

var errNotConnected = errors.New("not connected")

// OpenError is published on the error channel when the transport could
// not be opened. It is fatal to the session; the worker never enters the
// read loop.
type OpenError struct {
	Port string
	Err  error
}

func (e *OpenError) Error() string { return fmt.Sprintf("open %s: %v", e.Port, e.Err) }
func (e *OpenError) Unwrap() error { return e.Err }

// ReadError is published on the error channel when a read fails during an
// active session. The worker closes the transport and stops.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read: %v", e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// WriteError is returned to the caller of Send or WriteRaw. It does not
// affect the read loop.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write: %v", e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// ParseError marks a dropped frame candidate whose token did not parse as
// an integer. Recoverable; never crosses the error channel.
type ParseError struct {
	Token string
	Err   error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %q: %v", e.Token, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// FramingError marks a dropped frame candidate whose token count is
// neither 1 nor LineWidth. Recoverable; never crosses the error channel.
type FramingError struct {
	Tokens int
}

func (e *FramingError) Error() string { return fmt.Sprintf("invalid frame size %d", e.Tokens) }
