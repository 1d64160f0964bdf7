package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code, so clones compare equal to their template.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrCancelled          = New("REQUEST_CANCELLED", http.StatusRequestTimeout, "request cancelled before commit")
)

// Academic record errors.
var (
	ErrDuplicateCode      = New("DUPLICATE_CODE", http.StatusConflict, "subject code already enrolled this semester")
	ErrInvalidCredits     = New("INVALID_CREDITS", http.StatusBadRequest, "credits must be between 1 and 6")
	ErrNoOpenSemester     = New("NO_OPEN_SEMESTER", http.StatusConflict, "student has no open semester")
	ErrSemesterLocked     = New("SEMESTER_LOCKED", http.StatusLocked, "semester completion in progress")
	ErrIncompleteGradeSet = New("INCOMPLETE_GRADE_SET", http.StatusBadRequest, "grades must cover exactly the open subjects")
	ErrUnknownGrade       = New("UNKNOWN_GRADE", http.StatusBadRequest, "unknown grade symbol")
	ErrEmptySemester      = New("EMPTY_SEMESTER", http.StatusPreconditionFailed, "semester has no subjects to complete")
	ErrZeroCredits        = New("ZERO_CREDITS", http.StatusBadRequest, "cannot average over zero credits")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsValidation reports whether err is a caller-input problem that must not be retried.
func IsValidation(err error) bool {
	appErr := FromError(err)
	if appErr == nil {
		return false
	}
	return appErr.Status == http.StatusBadRequest
}
