package errors

import "fmt"

// ErrorCode represents a figsnap error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrPersistence    ErrorCode = "PERSISTENCE"     // 500, storage medium rejected a write
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// SnapError represents a structured error with code, status, and details.
type SnapError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SnapError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SnapError {
	return &SnapError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a snapshot cannot be found.
func NewNotFound(key string) *SnapError {
	return &SnapError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("snapshot not found: %s", key),
		Details: map[string]any{"key": key},
	}
}

// NewPersistence creates a 500 error for snapshot write failures.
// Storage rejecting a write (permissions, exhausted space) is the only
// condition the capture pipeline treats as hard.
func NewPersistence(path string, err error) *SnapError {
	msg := "snapshot write failed"
	if err != nil {
		msg = err.Error()
	}
	return &SnapError{
		Code:    ErrPersistence,
		Status:  500,
		Message: msg,
		Details: map[string]any{"path": path},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SnapError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SnapError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a SnapError with the given code.
func Is(err error, code ErrorCode) bool {
	if sErr, ok := err.(*SnapError); ok {
		return sErr.Code == code
	}
	return false
}
