package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError. Handlers translate them to HTTP status codes.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeForbidden     = "FORBIDDEN"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeValidation    = "VALIDATION_ERROR"
	CodeRateLimited   = "RATE_LIMITED"
	CodeConflict      = "CONFLICT"
	CodeInternal      = "INTERNAL_ERROR"
	CodeTimeout       = "TIMEOUT"
	internalErrorText = "Internal server error"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code and message so sentinel values work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewUnauthorizedError is returned when no valid principal is present.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewForbiddenError is returned when the principal is known but may not act on the resource.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewRateLimitError(message string) *AppError {
	return &AppError{
		Code:    CodeRateLimited,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: internalErrorText,
		Err:     err,
	}
}

// Domain failures with stable messages.
var (
	ErrSelfFollow        = NewValidationError("You cannot follow yourself")
	ErrSelfMessage       = NewValidationError("You cannot send a message to yourself")
	ErrRecipientNotFound = NewValidationError("Recipient not found")
	ErrEmptyContent      = NewValidationError("Content is required")
	ErrSharedPostMissing = NewValidationError("Shared post does not exist")
	ErrRateLimitExceeded = NewRateLimitError("Rate limit exceeded: too many messages sent recently, try again later")
	ErrInvalidCursor     = NewValidationError("Invalid cursor")
	ErrAuthRequired      = NewUnauthorizedError("Authentication credentials were not provided")
	ErrPermissionDenied  = NewForbiddenError("You do not have permission to perform this action")
)

// NewPostNotFoundError reports a missing post.
func NewPostNotFoundError(id uint) *AppError {
	return NewNotFoundError("Post", id)
}

// StatusForError maps an error to the HTTP status it should produce.
func StatusForError(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeRateLimited:
		return fiber.StatusTooManyRequests
	case CodeConflict:
		return fiber.StatusConflict
	case CodeTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError writes a standardized error response. Server-side failures
// are logged and answered with a generic detail so internals never leak.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := ErrorResponse{Detail: internalErrorText, Code: CodeInternal}

	if status >= fiber.StatusInternalServerError {
		if status == fiber.StatusGatewayTimeout {
			response = ErrorResponse{Detail: "Request timed out", Code: CodeTimeout}
		}
		slog.Default().ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		return c.Status(status).JSON(response)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{Detail: appErr.Message, Code: appErr.Code}
	} else {
		response = ErrorResponse{Detail: err.Error()}
	}

	return c.Status(status).JSON(response)
}

// RespondWithAppError derives the status from err and writes it.
func RespondWithAppError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, StatusForError(err), err)
}
