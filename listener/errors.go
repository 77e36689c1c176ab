package listener

import (
	"errors"
	"fmt"
)

// ErrInvalidBatchSize is returned when a record opens a batch with a
// declared size below 1. The declared size seeds the ledger's remaining
// counter, so accepting it would corrupt completion detection.
var ErrInvalidBatchSize = errors.New("listener: declared batch size must be at least 1")

// BindError is returned when the listening port cannot be bound at session
// start. It is fatal and never retried.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("listener: bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// PayloadError is returned when a request body cannot be parsed as JSON.
// It is fatal to the whole session, not just the in-flight receive: the
// port is exclusively bound and the extension cannot resubmit a single
// payload, so skipping would silently desynchronize batch bookkeeping.
type PayloadError struct {
	Err error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("listener: malformed payload: %v", e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}
