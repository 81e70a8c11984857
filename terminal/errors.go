package terminal

import (
	"errors"
	"fmt"
)

// ErrInstrumentUnavailable marks symbols the terminal cannot select or
// synchronize. Callers must not retry with the same symbol.
var ErrInstrumentUnavailable = errors.New("instrument unavailable")

// ErrTicketNotFound marks cancel/close calls naming a ticket the
// terminal no longer tracks.
var ErrTicketNotFound = errors.New("ticket not found")

// RejectError is a definitive order rejection. Code and Message are the
// terminal's verbatim response; the order must not be resubmitted.
type RejectError struct {
	Code    int
	Message string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("order rejected: code %d: %s", e.Code, e.Message)
}

// TransportError wraps a channel-level failure (dial, write, timeout).
// The request outcome is unknown; polling will disambiguate.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("terminal transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Temporary reports that the failure is worth retrying at the next poll
// cycle. Transport failures are always temporary from the caller's side.
func (e *TransportError) Temporary() bool { return true }

// IsTransient reports whether err is a transient transport condition
// rather than a definitive answer from the terminal.
func IsTransient(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Temporary()
	}
	return false
}
