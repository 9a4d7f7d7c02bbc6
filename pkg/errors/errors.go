// Package errors defines custom error types and error handling utilities for the genguard service.
// Every error that crosses the HTTP boundary carries a code, an HTTP status and a
// human-readable message that is safe to show to end users.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// Code identifies an error class.
type Code string

const (
	CodeRateLimitExceeded  Code = "rate_limit_exceeded"
	CodeQuotaExhausted     Code = "quota_exhausted"
	CodeStoreUnavailable   Code = "store_unavailable"
	CodeGenerationFailed   Code = "generation_failed"
	CodeInsufficientDetail Code = "insufficient_detail"
	CodeSuggestionFailed   Code = "suggestion_failed"
	CodeInvalidRequest     Code = "invalid_request"
	CodeInternal           Code = "internal_error"
)

// User-facing messages.
const (
	MessageThrottled          = "You are sending requests too quickly. Please wait a moment."
	MessageQuotaResetsShortly = "Your credits are due to reset shortly. Please try again in a little while."
	MessageQuotaTomorrow      = "You have utilized all the free credits. Feel free to come back tomorrow same time."
	MessageStoreUnavailable   = "Internal Server Error."
	MessageInternal           = "An internal server error occurred."
	MessageInsufficientDetail = "Your prompt is too vague. Please provide more detail."
	MessageSuggestionFailed   = "Failed to generate a prompt suggestion at this time."
)

// ================================================================================
// Base Error Interface
// ================================================================================

// AppError represents a structured error with additional metadata
type AppError interface {
	error

	// Code returns the error class
	Code() Code

	// HTTPStatus returns the HTTP status code
	HTTPStatus() int

	// Message returns the message shown to end users
	Message() string

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause adds a cause error to the error chain
	WithCause(cause error) AppError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) AppError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

// baseError is the internal implementation of AppError
type baseError struct {
	code       Code
	httpStatus int
	message    string
	detail     string
	cause      error
	metadata   map[string]interface{}
}

func (e *baseError) Error() string {
	msg := e.message
	if e.detail != "" {
		msg = e.detail
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *baseError) Code() Code      { return e.code }
func (e *baseError) HTTPStatus() int { return e.httpStatus }
func (e *baseError) Message() string { return e.message }
func (e *baseError) Unwrap() error   { return e.cause }

func (e *baseError) WithCause(cause error) AppError {
	e.cause = cause
	return e
}

func (e *baseError) WithMetadata(key string, value interface{}) AppError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} {
	return e.metadata
}

// NewError creates a new AppError. message is shown to users, detail is kept
// for logs.
func NewError(code Code, httpStatus int, message string, detail string) AppError {
	return &baseError{
		code:       code,
		httpStatus: httpStatus,
		message:    message,
		detail:     detail,
		metadata:   make(map[string]interface{}),
	}
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// ErrRateLimitExceeded is returned when the sliding window refuses a request
func ErrRateLimitExceeded(identifier string, limit int64, retryAfter time.Duration) AppError {
	return NewError(
		CodeRateLimitExceeded,
		http.StatusTooManyRequests,
		MessageThrottled,
		fmt.Sprintf("rate limit of %d requests exceeded for %s", limit, identifier),
	).WithMetadata("identifier", identifier).
		WithMetadata("limit", limit).
		WithMetadata("retry_after_seconds", int64(retryAfter.Seconds()))
}

// ErrQuotaExhausted is returned when the daily usage budget is spent.
// ttl is nil when the remaining lifetime of the counter is unknown.
func ErrQuotaExhausted(identifier string, ttl *time.Duration, resetSoonThreshold time.Duration) AppError {
	err := NewError(
		CodeQuotaExhausted,
		http.StatusTooManyRequests,
		QuotaExhaustedMessage(ttl, resetSoonThreshold),
		fmt.Sprintf("daily usage quota exhausted for %s", identifier),
	).WithMetadata("identifier", identifier)
	if ttl != nil {
		err.WithMetadata("seconds_to_reset", int64(ttl.Seconds()))
	}
	return err
}

// QuotaExhaustedMessage picks the 429 message for an exhausted quota. The
// choice is monotonic in ttl: shorter remaining lifetimes never produce the
// "tomorrow" message when a longer one produced "shortly".
func QuotaExhaustedMessage(ttl *time.Duration, resetSoonThreshold time.Duration) string {
	if ttl != nil && *ttl < resetSoonThreshold {
		return MessageQuotaResetsShortly
	}
	return MessageQuotaTomorrow
}

// ErrStoreUnavailable wraps a key-value store failure
func ErrStoreUnavailable(operation string, cause error) AppError {
	return NewError(
		CodeStoreUnavailable,
		http.StatusInternalServerError,
		MessageStoreUnavailable,
		fmt.Sprintf("key-value store unavailable during %s", operation),
	).WithCause(cause).WithMetadata("operation", operation)
}

// ErrGenerationFailed wraps a failure of the guarded downstream operation
func ErrGenerationFailed(stage string, cause error) AppError {
	return NewError(
		CodeGenerationFailed,
		http.StatusInternalServerError,
		MessageInternal,
		fmt.Sprintf("image generation failed at %s", stage),
	).WithCause(cause).WithMetadata("stage", stage)
}

// ErrInsufficientDetail is returned when the optimiser rejects a prompt
func ErrInsufficientDetail(prompt string) AppError {
	return NewError(
		CodeInsufficientDetail,
		http.StatusBadRequest,
		MessageInsufficientDetail,
		fmt.Sprintf("prompt rejected as too vague: %q", prompt),
	)
}

// ErrSuggestionFailed wraps a failure of the suggestion upstream
func ErrSuggestionFailed(cause error) AppError {
	return NewError(
		CodeSuggestionFailed,
		http.StatusInternalServerError,
		MessageSuggestionFailed,
		"prompt suggestion failed",
	).WithCause(cause)
}

// ErrInvalidRequest creates an invalid_request error
func ErrInvalidRequest(message string) AppError {
	return NewError(CodeInvalidRequest, http.StatusBadRequest, message, "")
}

// ErrInternal creates a generic server error
func ErrInternal(detail string) AppError {
	return NewError(CodeInternal, http.StatusInternalServerError, MessageInternal, detail)
}

// ================================================================================
// Error Validation Utilities
// ================================================================================

// AsAppError finds the first AppError in err's chain
func AsAppError(err error) (AppError, bool) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code
func HasCode(err error, code Code) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code() == code
}

// IsRateLimitError checks if an error is the sliding-window refusal
func IsRateLimitError(err error) bool {
	return HasCode(err, CodeRateLimitExceeded)
}

// IsStoreUnavailable checks if an error came from the key-value store
func IsStoreUnavailable(err error) bool {
	return HasCode(err, CodeStoreUnavailable)
}

// ShouldLogError determines if an error should be logged at error level
func ShouldLogError(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus() >= http.StatusInternalServerError
	}
	return true
}

// ================================================================================
// Error Response Builder
// ================================================================================

// ErrorResponse is the JSON body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToErrorResponse converts any error into its status code and response body.
// Errors outside the taxonomy become a generic 500.
func ToErrorResponse(err error) (int, *ErrorResponse) {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus(), &ErrorResponse{Error: appErr.Message()}
	}
	return http.StatusInternalServerError, &ErrorResponse{Error: MessageInternal}
}
