package pkg

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pairview/pairview/internal/domain"
)

// Response is the standard JSON envelope for API responses.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// FieldErrorResponse is the JSON envelope for validation errors that name the
// offending input field.
type FieldErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Success sends a 200 JSON response with the given data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// Error sends a JSON error response. If err is a *domain.AppError, its code
// is mapped to the appropriate HTTP status and validation errors carry the
// offending field; otherwise 500 is returned with a generic message.
//
// Unauthorized errors are always rendered with the sentinel's generic message
// so the response never reveals whether an email is registered.
func Error(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)

	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, Response{
			Code:    http.StatusInternalServerError,
			Message: "internal error",
		})
		return
	}

	msg := appErr.Message
	switch appErr.Code {
	case domain.CodeUnauthorized:
		msg = domain.ErrUnauthorized.Message
	case domain.CodeNetwork, domain.CodeServer:
		msg = "service temporarily unavailable, please try again"
	case domain.CodeInternal:
		msg = "internal error"
	}

	if appErr.Code == domain.CodeValidation && appErr.Field != "" {
		c.JSON(status, FieldErrorResponse{
			Code:    status,
			Message: msg,
			Field:   appErr.Field,
		})
		return
	}

	c.JSON(status, Response{
		Code:    status,
		Message: msg,
		Data:    nil,
	})
}

// Bind binds the request body to obj. On failure it sends a 400 JSON response
// and returns false. Shape validation beyond binding (field lengths, enums,
// age) is the credential validator's job, not the binding layer's, so only
// structurally broken requests are rejected here.
//
// Usage in handlers:
//
//	if !pkg.Bind(c, &req) { return }
func Bind(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			// Only "required" tags are used on DTOs; report the first
			// missing field by its lowercased struct name.
			c.JSON(http.StatusBadRequest, FieldErrorResponse{
				Code:    http.StatusBadRequest,
				Message: "missing required field",
				Field:   lowerFirst(ve[0].Field()),
			})
			return false
		}
		c.JSON(http.StatusBadRequest, Response{
			Code:    http.StatusBadRequest,
			Message: "malformed request body",
		})
		return false
	}
	return true
}

// lowerFirst lowercases the leading rune of a struct field name so binding
// errors use the same field naming as the credential validator
// ("dateOfBirth", not "DateOfBirth").
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
