package errs

import (
	"fmt"
	"net/http"
)

// Machine readable codes for the domain errors of the microchip API.
const (
	CodeMicrochipNotFound = "MICROCHIP_NOT_FOUND"
	CodeInvalidParameter  = "INVALID_PARAMETER"
)

// statusCode builds the default code for a status, e.g. 404 -> "NOT_FOUND".
func statusCode(status int) string {
	return MakeUpperCaseWithUnderscores(http.StatusText(status))
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
// code overrides the default "BAD_REQUEST" when not nil. errors carries
// field-level validation problems and action an optional client hint.
func NewBadRequestError(message string, override bool, code *string, errors []FieldError, action *Action) *HTTPError {
	formattedCode := statusCode(http.StatusBadRequest)
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusBadRequest,
		Override: override,
		Errors:   errors,
		Action:   action,
	}
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	formattedCode := statusCode(http.StatusNotFound)
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusNotFound,
		Override: override,
	}
}

// NewTooManyRequestsError creates a 429 Too Many Requests HTTPError.
func NewTooManyRequestsError(message string) *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusTooManyRequests),
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

// NewInternalServerError creates a generic 500. The real cause is logged by
// the error handler and never sent to the client.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:     statusCode(http.StatusInternalServerError),
		Message:  http.StatusText(http.StatusInternalServerError),
		Status:   http.StatusInternalServerError,
		Override: false,
	}
}

// ValidationError wraps a validator error into a 400.
func ValidationError(err error) *HTTPError {
	return NewBadRequestError("Validation failed: "+err.Error(), false, nil, nil, nil)
}

// NewMicrochipNotFoundError is returned when a lookup by id has no match.
func NewMicrochipNotFoundError(id int64) *HTTPError {
	code := CodeMicrochipNotFound
	return NewNotFoundError(fmt.Sprintf("microchip with id %d not found", id), true, &code)
}

// NewInvalidParameterError is returned when a query parameter carries a
// value outside its allowed set. The offending value is kept in the
// message and in the field error.
func NewInvalidParameterError(param, value string) *HTTPError {
	code := CodeInvalidParameter
	return NewBadRequestError(
		fmt.Sprintf("invalid %s value: %q", param, value),
		true,
		&code,
		[]FieldError{{Field: param, Error: fmt.Sprintf("unsupported value %q", value)}},
		nil,
	)
}

// NewServiceUnavailableError creates a 503 for failures a retry may fix.
func NewServiceUnavailableError(message string) *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusServiceUnavailable),
		Message: message,
		Status:  http.StatusServiceUnavailable,
	}
}
