package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"domain error", NewDomainError(CodeOverpayment, "too much"), CodeOverpayment},
		{"validation helper", NewValidationError("missing field"), CodeValidation},
		{"transition error", NewInvalidTransitionError("DRAFT", "complete"), CodeInvalidTransition},
		{"wrapped domain error", fmt.Errorf("recording payment: %w", ErrNotFound), CodeNotFound},
		{"plain error", errors.New("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrorCode(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrTransactionTimeout))
	assert.True(t, IsRetryable(ErrConcurrencyConflict))
	assert.True(t, IsRetryable(fmt.Errorf("saving: %w", ErrConcurrencyConflict)))

	assert.False(t, IsRetryable(NewValidationError("bad input")))
	assert.False(t, IsRetryable(NewDomainError(CodeOverpayment, "too much")))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.False(t, IsRetryable(nil))
}

func TestInvalidTransitionError_Message(t *testing.T) {
	err := NewInvalidTransitionError("COMPLETED", "cancel")
	assert.Equal(t, "cannot cancel from COMPLETED state", err.Error())
}
