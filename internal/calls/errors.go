package calls

import (
	"errors"
	"fmt"
)

// Skippable: the event is dropped and reconstruction carries on.
var (
	ErrNotBoundary   = errors.New("call event is not a start or end")
	ErrAmbiguousTime = errors.New("ambiguous local time")
)

// Batch-fatal: no call table is produced.
var (
	ErrMalformedEvent = errors.New("malformed call event")
	ErrTooManyMissing = errors.New("too many missing values")
	ErrNoCalls        = errors.New("no calls found")
)

// ReconstructError reports why a conversation produced no call table.
type ReconstructError struct {
	Conversation string
	Err          error
}

func (e *ReconstructError) Error() string {
	return fmt.Sprintf("could not build call history for %s: %v", e.Conversation, e.Err)
}

func (e *ReconstructError) Unwrap() error { return e.Err }
