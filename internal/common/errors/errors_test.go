package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"app error", NewValidationError("❌ Amount must be greater than 0."), "❌ Amount must be greater than 0."},
		{"wrapped app error", fmt.Errorf("complete: %w", NewExpiredStateError()), "❌ Selection expired. Please start over."},
		{"plain error", stderrors.New("boom"), GenericFailureMessage},
		{"database error", NewDatabaseError("increment", stderrors.New("conn reset")), GenericFailureMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("claim: %w", NewConflictError("already claimed"))
	assert.True(t, stderrors.Is(err, New(ErrCodeConflict, "")))
	assert.False(t, stderrors.Is(err, New(ErrCodeForbidden, "")))
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, NewForbiddenError("no").IsRecoverable())
	assert.True(t, New(ErrCodeNotTicketChannel, "x").IsRecoverable())
	assert.False(t, New(ErrCodeResourceCreationFailed, "x").IsRecoverable())
	assert.False(t, NewDatabaseError("op", stderrors.New("x")).IsRecoverable())
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("socket closed")
	err := Wrapf(cause, ErrCodeExternalAPI, "send %s", "message")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[EXTERNAL_API_ERROR] send message: socket closed", err.Error())
}
