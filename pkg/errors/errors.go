package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeBotError   = "BOT_ERROR"
	CodeUserError  = "USER_ERROR"
	CodeUnexpected = "UNEXPECTED_ERROR"
	CodeAPIError   = "API_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeCache      = "CACHE_ERROR"
	CodeService    = "SERVICE_ERROR"
)

// Process exit codes used by cmd/bot.
const (
	ExitUserError       = 1
	ExitUnexpectedError = 2
)

type BotError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BotError) Unwrap() error {
	return e.Cause
}

func NewBotError(message, code string, statusCode int, context map[string]any) *BotError {
	return &BotError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *BotError) WithCause(cause error) *BotError {
	e.Cause = cause
	return e
}

// UserError is caller-correctable: bad arguments, an unknown group, or a
// recipient the transport refuses to deliver to.
type UserError struct {
	*BotError
}

func NewUserError(message string, context map[string]any) *UserError {
	return &UserError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeUserError,
			StatusCode: 400,
			Context:    context,
		},
	}
}

func (e *UserError) WithCause(cause error) *UserError {
	e.Cause = cause
	return e
}

// UnexpectedError covers environment and library failures.
type UnexpectedError struct {
	*BotError
}

func NewUnexpectedError(message string, cause error) *UnexpectedError {
	return &UnexpectedError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeUnexpected,
			StatusCode: 500,
			Cause:      cause,
		},
	}
}

type APIError struct {
	*BotError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

type ValidationError struct {
	*BotError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*BotError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ServiceError struct {
	*BotError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeService,
			StatusCode: 500,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}

// IsUserError reports whether err (or anything it wraps) is caller-correctable.
// An explicit UnexpectedError wins over anything it wraps. Otherwise
// validation failures count as user errors, and so do API errors the remote
// side rejected with a 4xx status.
func IsUserError(err error) bool {
	if err == nil {
		return false
	}
	var userErr *UserError
	if stderrors.As(err, &userErr) {
		return true
	}
	var unexpectedErr *UnexpectedError
	if stderrors.As(err, &unexpectedErr) {
		return false
	}
	var validationErr *ValidationError
	if stderrors.As(err, &validationErr) {
		return true
	}
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
	}
	return false
}

// ExitCode maps an invocation error onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if IsUserError(err) {
		return ExitUserError
	}
	return ExitUnexpectedError
}
