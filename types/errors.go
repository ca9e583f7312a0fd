package types

import (
	"errors"
	"fmt"
)

// Error kinds are sentinel values so callers can tell retryable
// infrastructure failures from terminal domain failures with errors.Is.
var (
	ErrValidationFailed  = errors.New("validation_failed")
	ErrPersistenceFailed = errors.New("persistence_failed")
	ErrStreamUnavailable = errors.New("stream_unavailable")
	ErrNoConvergence     = errors.New("no_convergence")
	ErrUndefined         = errors.New("undefined")
	ErrNoChildValuations = errors.New("no_child_valuations")
	ErrDeadlineExceeded  = errors.New("deadline_exceeded")
	ErrInvalidArgument   = errors.New("invalid_argument")
)

// ValidationError carries field-level detail for caller errors. It is never
// retried automatically.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s.%s", ErrValidationFailed.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// Retryable reports whether the error is a transient infrastructure failure
// that the calling layer may retry with backoff.
func Retryable(err error) bool {
	return errors.Is(err, ErrPersistenceFailed) || errors.Is(err, ErrStreamUnavailable)
}
