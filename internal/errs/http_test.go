package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMicrochipNotFoundError(t *testing.T) {
	err := NewMicrochipNotFoundError(42)

	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Equal(t, CodeMicrochipNotFound, err.Code)
	assert.Equal(t, "microchip with id 42 not found", err.Error())
	assert.True(t, err.Override)
}

func TestNewInvalidParameterError(t *testing.T) {
	err := NewInvalidParameterError("sortBy", "voltage")

	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, CodeInvalidParameter, err.Code)
	assert.Equal(t, `invalid sortBy value: "voltage"`, err.Message)
	require.Len(t, err.Errors, 1)
	assert.Equal(t, "sortBy", err.Errors[0].Field)
}

func TestDefaultCodes(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST", NewBadRequestError("x", false, nil, nil, nil).Code)
	assert.Equal(t, "NOT_FOUND", NewNotFoundError("x", false, nil).Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", NewTooManyRequestsError("x").Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", NewServiceUnavailableError("x").Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", NewInternalServerError().Code)
}

func TestHTTPError_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("delete: %w", NewMicrochipNotFoundError(1))

	var httpErr *HTTPError
	require.True(t, errors.As(wrapped, &httpErr))
	assert.Equal(t, CodeMicrochipNotFound, httpErr.Code)
	assert.True(t, errors.Is(wrapped, &HTTPError{}))
}

func TestWithMessage(t *testing.T) {
	original := NewNotFoundError("a", false, nil)
	changed := original.WithMessage("b")

	assert.Equal(t, "a", original.Message)
	assert.Equal(t, "b", changed.Message)
	assert.Equal(t, original.Code, changed.Code)
}
