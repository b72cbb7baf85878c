package domain

import (
	"errors"
	"net/http"
)

// Error codes for authentication and infrastructure errors.
//
// The first five codes form the user-facing taxonomy: Validation is always
// detected client-side before any network call, the remaining four are mapped
// from identity service responses. NotFound and Internal are infrastructure
// codes used by the session store and wiring code.
const (
	CodeValidation = iota + 1
	CodeUnauthorized
	CodeConflict
	CodeNetwork
	CodeServer
	CodeNotFound
	CodeInternal
)

// AppError represents an authentication or infrastructure error with a code,
// an optional offending input field, a message, and an optional wrapped error.
type AppError struct {
	Code    int    `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined errors.
//
// To check whether an error matches one of these categories, use the
// corresponding helper function (IsUnauthorized, IsConflict, etc.) instead of
// errors.Is. The helpers use errors.As with error-code comparison, so they
// match any *AppError carrying the same code, including freshly constructed
// instances from NewAppError and NewFieldError, whereas errors.Is only matches
// by pointer identity with the specific sentinel below.
var (
	ErrValidation   = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrUnauthorized = &AppError{Code: CodeUnauthorized, Message: "invalid email or password"}
	ErrConflict     = &AppError{Code: CodeConflict, Message: "already exists"}
	ErrNetwork      = &AppError{Code: CodeNetwork, Message: "identity service unreachable"}
	ErrServer       = &AppError{Code: CodeServer, Message: "identity service error"}
	ErrNotFound     = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrInternal     = &AppError{Code: CodeInternal, Message: "internal error"}
)

// NewAppError creates a new AppError with the given code, message, and wrapped error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewFieldError creates a validation AppError naming the offending input field.
func NewFieldError(field, message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Field:   field,
		Message: message,
	}
}

// IsValidation reports whether err is or wraps an AppError with CodeValidation.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsUnauthorized reports whether err is or wraps an AppError with CodeUnauthorized.
func IsUnauthorized(err error) bool {
	return hasCode(err, CodeUnauthorized)
}

// IsConflict reports whether err is or wraps an AppError with CodeConflict.
func IsConflict(err error) bool {
	return hasCode(err, CodeConflict)
}

// IsNetwork reports whether err is or wraps an AppError with CodeNetwork.
func IsNetwork(err error) bool {
	return hasCode(err, CodeNetwork)
}

// IsServer reports whether err is or wraps an AppError with CodeServer.
func IsServer(err error) bool {
	return hasCode(err, CodeServer)
}

// IsNotFound reports whether err is or wraps an AppError with CodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsInternal reports whether err is or wraps an AppError with CodeInternal.
func IsInternal(err error) bool {
	return hasCode(err, CodeInternal)
}

// IsRetryable reports whether the error kind is safe to retry by renewed
// submission: transport and server-side failures are, validation and conflict
// outcomes are not (repeating a register against an existing account must
// keep surfacing the conflict).
func IsRetryable(err error) bool {
	return hasCode(err, CodeNetwork) || hasCode(err, CodeServer)
}

// ValidationField returns the offending input field of a validation error,
// or "" when err is not a field-scoped validation error.
func ValidationField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code == CodeValidation {
		return appErr.Field
	}
	return ""
}

// hasCode checks whether err is or wraps an *AppError with the given code.
func hasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// HTTPStatusCode maps an error to an HTTP status code. If the error is an
// *AppError, the code is mapped; otherwise http.StatusInternalServerError is
// returned. Network and Server both surface as 502 because in either case the
// shell could not obtain a usable answer from the identity service.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeValidation:
			return http.StatusBadRequest
		case CodeUnauthorized:
			return http.StatusUnauthorized
		case CodeConflict:
			return http.StatusConflict
		case CodeNetwork, CodeServer:
			return http.StatusBadGateway
		case CodeNotFound:
			return http.StatusNotFound
		case CodeInternal:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
