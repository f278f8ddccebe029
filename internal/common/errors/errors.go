// Package errors provides standardized error handling for the presence and
// focus-session services.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Heartbeat endpoint errors.
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrCodeMethodNotAllowed   ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// Presence store errors.
	ErrCodePresenceStoreFailed ErrorCode = "PRESENCE_STORE_FAILED"

	// Focus session errors. BackendSyncFailure never blocks a local state
	// transition; RestoreInconsistency is logged and swallowed.
	ErrCodeBackendSyncFailure   ErrorCode = "BACKEND_SYNC_FAILURE"
	ErrCodeRestoreInconsistency ErrorCode = "RESTORE_INCONSISTENCY"
	ErrCodeSessionAlreadyActive ErrorCode = "SESSION_ALREADY_ACTIVE"

	ErrCodeDatabaseQueryFailed ErrorCode = "DATABASE_QUERY_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// Error Constructors
// ==========================

// NewInvalidRequestError creates a non-retryable bad-input error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMethodNotAllowedError creates a non-retryable wrong-method error.
func NewMethodNotAllowedError(method string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMethodNotAllowed,
		Message:   "Method Not Allowed",
		Details:   fmt.Sprintf("method: %s", method),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewServiceUnavailableError creates an error for an unreachable or
// misconfigured presence store. Clients retry implicitly on the next heartbeat.
func NewServiceUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeServiceUnavailable,
		Message:   "Presence store unreachable or misconfigured",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPresenceStoreFailedError creates a retryable store operation error.
func NewPresenceStoreFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePresenceStoreFailed,
		Message:   "Presence store operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendSyncFailureError wraps a failed durable-record write. The local
// countdown remains authoritative; callers log or surface a notice only.
func NewBackendSyncFailureError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendSyncFailure,
		Message:   "Durable session sync failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRestoreInconsistencyError marks persisted local state that no longer
// matches a live durable record.
func NewRestoreInconsistencyError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRestoreInconsistency,
		Message:   "Persisted session state is stale",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionAlreadyActiveError rejects an overlapping countdown start.
func NewSessionAlreadyActiveError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionAlreadyActive,
		Message:   "A focus session is already running",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseQueryFailedError creates a retryable database error.
func NewDatabaseQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseQueryFailed,
		Message:   "Database query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// HTTP Mapping
// ==========================

// HTTPStatusMapping maps internal error codes to HTTP status codes.
var HTTPStatusMapping = map[ErrorCode]int{
	ErrCodeInvalidRequest:       http.StatusBadRequest,
	ErrCodeMethodNotAllowed:     http.StatusMethodNotAllowed,
	ErrCodeServiceUnavailable:   http.StatusInternalServerError,
	ErrCodePresenceStoreFailed:  http.StatusInternalServerError,
	ErrCodeDatabaseQueryFailed:  http.StatusInternalServerError,
	ErrCodeSessionAlreadyActive: http.StatusConflict,
}

// HTTPStatus returns the HTTP status for an error code, defaulting to 500.
func HTTPStatus(code ErrorCode) int {
	if status, ok := HTTPStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsCode reports whether err is a StandardError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	stdErr, ok := err.(*StandardError)
	return ok && stdErr.Code == code
}
