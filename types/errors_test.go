package types

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(ErrPersistenceFailed))
	assert.True(t, Retryable(ErrStreamUnavailable))
	assert.True(t, Retryable(errors.Wrap(ErrPersistenceFailed, "batch insert")))

	assert.False(t, Retryable(ErrValidationFailed))
	assert.False(t, Retryable(ErrUndefined))
	assert.False(t, Retryable(ErrNoConvergence))
	assert.False(t, Retryable(&ValidationError{Field: "amount", Reason: "must be positive"}))
}

func TestValidationErrorUnwrapsToSentinel(t *testing.T) {
	err := &ValidationError{Field: "kind", Reason: "unknown"}

	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "kind")
}
