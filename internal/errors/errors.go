package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents a specific error type for better error handling
type ErrorCode string

const (
	// Control socket errors
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	ErrCodeTransport        ErrorCode = "TRANSPORT_FAILED"
	ErrCodeClientBroken     ErrorCode = "CLIENT_BROKEN"
	ErrCodeClientClosed     ErrorCode = "CLIENT_CLOSED"

	// Response decoding errors
	ErrCodeProtocolDecode ErrorCode = "PROTOCOL_DECODE_FAILED"
	ErrCodeFieldAccess    ErrorCode = "FIELD_NOT_FOUND"
	ErrCodeFieldFormat    ErrorCode = "FIELD_FORMAT_INVALID"

	// Gateway request errors
	ErrCodeConfigLoad           ErrorCode = "CONFIG_LOAD_FAILED"
	ErrCodeInvalidRequest       ErrorCode = "INVALID_REQUEST"
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeAuthorizationFailed  ErrorCode = "AUTHORIZATION_FAILED"
	ErrCodeRateLimitExceeded    ErrorCode = "RATE_LIMIT_EXCEEDED"

	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ControlError represents a structured error with context
type ControlError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Component string                 `json:"component,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *ControlError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Component, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *ControlError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error code
func (e *ControlError) Is(target error) bool {
	if t, ok := target.(*ControlError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithMetadata adds metadata to the error
func (e *ControlError) WithMetadata(key string, value interface{}) *ControlError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// IsRetryable reports whether a caller may reasonably rebuild the client and
// resend. The control client itself never retries.
func (e *ControlError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeConnectionFailed, ErrCodeTransport, ErrCodeClientBroken:
		return true
	default:
		return false
	}
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *ControlError) HTTPStatusCode() int {
	switch e.Code {
	case ErrCodeInvalidRequest, ErrCodeFieldFormat:
		return 400
	case ErrCodeAuthenticationFailed:
		return 401
	case ErrCodeAuthorizationFailed:
		return 403
	case ErrCodeFieldAccess:
		return 404
	case ErrCodeRateLimitExceeded:
		return 429
	case ErrCodeProtocolDecode:
		return 502
	case ErrCodeConnectionFailed, ErrCodeTransport, ErrCodeClientBroken, ErrCodeClientClosed:
		return 503
	default:
		return 500
	}
}

// NewError creates a new ControlError
func NewError(code ErrorCode, component, message string) *ControlError {
	return &ControlError{
		Code:      code,
		Component: component,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewErrorWithCause creates a new ControlError with an underlying cause
func NewErrorWithCause(code ErrorCode, component, message string, cause error) *ControlError {
	e := NewError(code, component, message)
	e.Cause = cause
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// WrapError wraps an existing error with ControlError structure
func WrapError(err error, code ErrorCode, component, message string) *ControlError {
	if err == nil {
		return nil
	}
	return NewErrorWithCause(code, component, message, err)
}

// NewConnectionError creates an error for a socket that cannot be reached
func NewConnectionError(address string, cause error) *ControlError {
	return NewErrorWithCause(
		ErrCodeConnectionFailed,
		"transport",
		fmt.Sprintf("failed to connect to control socket %s", address),
		cause,
	).WithMetadata("address", address)
}

// NewTransportError creates an error for a failed write or read on an
// established control connection
func NewTransportError(command string, cause error) *ControlError {
	return NewErrorWithCause(
		ErrCodeTransport,
		"control",
		fmt.Sprintf("command %q failed", command),
		cause,
	).WithMetadata("command", command)
}

// NewClientBrokenError is returned by every call made after a transport failure
func NewClientBrokenError(cause error) *ControlError {
	return NewErrorWithCause(
		ErrCodeClientBroken,
		"control",
		"client is unusable after a transport failure",
		cause,
	)
}

// NewClientClosedError is returned by calls on a closed client
func NewClientClosedError() *ControlError {
	return NewError(ErrCodeClientClosed, "control", "client is closed")
}

// NewDecodeError creates an error for a stats response that cannot be decoded
func NewDecodeError(reason string) *ControlError {
	return NewError(
		ErrCodeProtocolDecode,
		"stats_decoder",
		fmt.Sprintf("malformed response: %s", reason),
	)
}

// NewFieldAccessError creates an error for a column absent from a stats record
func NewFieldAccessError(field string) *ControlError {
	return NewError(
		ErrCodeFieldAccess,
		"stats",
		fmt.Sprintf("field %q not present in record", field),
	).WithMetadata("field", field)
}

// NewFieldFormatError creates an error for a cell that does not parse as expected
func NewFieldFormatError(field, value string, cause error) *ControlError {
	return NewErrorWithCause(
		ErrCodeFieldFormat,
		"stats",
		fmt.Sprintf("field %q has non-numeric value %q", field, value),
		cause,
	).WithMetadata("field", field)
}

// NewInvalidRequestError creates an error for a malformed gateway request
func NewInvalidRequestError(reason string) *ControlError {
	return NewError(ErrCodeInvalidRequest, "gateway", reason)
}

// NewRateLimitError creates an error for rate limiting
func NewRateLimitError(clientIP string, limit float64) *ControlError {
	return NewError(
		ErrCodeRateLimitExceeded,
		"rate_limiter",
		fmt.Sprintf("Rate limit exceeded for client %s (limit: %.2f/s)", clientIP, limit),
	).WithMetadata("client_ip", clientIP)
}

// NewAuthenticationError creates an authentication error
func NewAuthenticationError(reason string) *ControlError {
	return NewError(
		ErrCodeAuthenticationFailed,
		"auth",
		fmt.Sprintf("Authentication failed: %s", reason),
	)
}

// NewAuthorizationError creates an authorization error
func NewAuthorizationError(reason string) *ControlError {
	return NewError(ErrCodeAuthorizationFailed, "auth", reason)
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var cErr *ControlError
	if errors.As(err, &cErr) {
		return cErr.Code
	}
	return ErrCodeInternalError
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var cErr *ControlError
	if errors.As(err, &cErr) {
		return cErr.IsRetryable()
	}
	return false
}

// GetHTTPStatusCode gets the appropriate HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	var cErr *ControlError
	if errors.As(err, &cErr) {
		return cErr.HTTPStatusCode()
	}
	return 500
}
