package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsAppError_Wrapped(t *testing.T) {
	base := NewInsufficientStock("p-1", 10, 3)
	wrapped := fmt.Errorf("apply adjustment: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(10), appErr.Details["requested"])
	assert.Equal(t, int64(3), appErr.Details["available"])
	assert.True(t, IsInsufficientStock(wrapped))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
}

func TestWorkflowErrorStatuses(t *testing.T) {
	assert.Equal(t, http.StatusConflict, NewIllegalTransition("approve", "draft").HTTPStatus)
	assert.Equal(t, http.StatusConflict, NewAlreadyApplied("stock_adjustment", "x", "applied").HTTPStatus)
	assert.Equal(t, http.StatusForbidden, NewUnauthorized("nope").HTTPStatus)
	assert.Equal(t, http.StatusServiceUnavailable, NewNumberingConflict("ADJ", 5).HTTPStatus)
}

func TestErrorString_IncludesCause(t *testing.T) {
	err := NewInternal(errors.New("connection reset"))
	assert.Contains(t, err.Error(), "connection reset")
	assert.ErrorIs(t, err, err.Err)
}
