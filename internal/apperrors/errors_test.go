package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsFindsWrappedAppError(t *testing.T) {
	err := fmt.Errorf("redeem: %w", ErrInsufficientPoints)

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "Insufficient points balance", appErr.Message)
	assert.True(t, errors.Is(err, ErrInsufficientPoints))
}

func TestAsIgnoresPlainErrors(t *testing.T) {
	_, ok := As(errors.New("boom"))
	assert.False(t, ok)
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause, "Failed to load branch")

	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAlreadyResolvedMessage(t *testing.T) {
	err := AlreadyResolved("confirmed")
	assert.Equal(t, "Transaction already confirmed", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.Status)
}

func TestMiddlewareSentinels(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, ErrRateLimited.Status)
	assert.Equal(t, CodeRateLimited, ErrRateLimited.Code)
	assert.Equal(t, http.StatusUnauthorized, ErrUnauthorized.Status)
	assert.Equal(t, http.StatusForbidden, ErrForbidden.Status)
	assert.False(t, errors.Is(ErrForbidden, ErrUnauthorized))
}
