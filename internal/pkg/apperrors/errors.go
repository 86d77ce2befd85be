// Package apperrors holds the sentinel errors shared by services and the
// HTTP error mapping.
package apperrors

import "errors"

// Generic errors
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")
	ErrValidationFailed      = errors.New("validation failed")
	ErrBadRequest            = errors.New("bad request")
	ErrFileTooLarge          = errors.New("file too large")
)

// Account errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrRegistrationClosed = errors.New("registration is closed")
)

// Catalog errors
var (
	ErrStudentNotFound        = errors.New("student not found")
	ErrCourseNotFound         = errors.New("course not found")
	ErrSemesterNotFound       = errors.New("semester not found")
	ErrSemesterInactive       = errors.New("semester is not open for uploads")
	ErrProgramOutcomeNotFound = errors.New("program outcome not found")
	ErrCurriculumNotFound     = errors.New("curriculum not found")
)

// Upload and report errors
var (
	ErrOutcomeFileNotFound = errors.New("program outcome file not found")
	ErrTaskNotFound        = errors.New("report task not found")
	ErrTaskNotReady        = errors.New("report task has not finished")
	ErrTaskClaimLost       = errors.New("report task was claimed by another worker")
	ErrNoDifference        = errors.New("no difference detected")
	ErrStaleSetting        = errors.New("setting was changed concurrently")
)

// CustomError pairs a sentinel with the message shown to the client.
// Details end up in the details field of the error response.
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// NewResourceNotFoundError creates a not found error with a client message
func NewResourceNotFoundError(message string) error {
	return NewCustomError(ErrResourceNotFound, message)
}

// NewConflictError creates a conflict error with a client message
func NewConflictError(message string) error {
	return NewCustomError(ErrConflict, message)
}

// NewForbiddenError creates a permission error with a client message
func NewForbiddenError(message string) error {
	return NewCustomError(ErrPermissionDenied, message)
}

// NewBadRequestError creates a bad request error with a client message
func NewBadRequestError(message string) error {
	return NewCustomError(ErrBadRequest, message)
}
