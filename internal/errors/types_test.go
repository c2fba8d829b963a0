package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      New(ErrCodeInvalidInput, "bad owner"),
			expected: "INVALID_INPUT: bad owner",
		},
		{
			name:     "with cause",
			err:      Wrap(errors.New("dial tcp: timeout"), ErrCodeUpstreamUnavailable, "scan API call failed"),
			expected: "UPSTREAM_UNAVAILABLE: scan API call failed: dial tcp: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(cause, ErrCodeDatabaseQuery, "query failed")

	assert.True(t, errors.Is(err, cause))
}

func TestAs_FindsWrappedAppError(t *testing.T) {
	appErr := New(ErrCodeNotFound, "sighting not found")
	wrapped := fmt.Errorf("lookup: %w", appErr)

	got, ok := As(wrapped)

	assert.True(t, ok)
	assert.Same(t, appErr, got)
	assert.Equal(t, ErrCodeNotFound, GetCode(wrapped))
}

func TestGetCode_PlainError(t *testing.T) {
	assert.Equal(t, ErrCodeInternalError, GetCode(errors.New("boom")))
	assert.False(t, IsRetryable(errors.New("boom")))
}
