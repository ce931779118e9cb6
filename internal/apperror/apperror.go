// Package apperror defines the error taxonomy shared by the service and HTTP layers.
//
// Every domain failure is an *AppError that wraps one of the category sentinels
// (ErrValidation, ErrNotFound, ...) and carries a stable machine-readable Code.
// Handlers map the category to an HTTP status and echo the Code to the client.
// Anything that is NOT an *AppError is treated as an unexpected persistence
// failure and surfaces as a generic 500.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Stable error codes returned in the "error" field of JSON error responses.
const (
	CodeMissingFields      = "missing_fields"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodeDuplicateEmail     = "duplicate_email"
	CodeDuplicateUsername  = "duplicate_username"
	CodeDuplicateName      = "duplicate_name"
	CodeDuplicateCIF       = "duplicate_cif"
	CodeNotFound           = "not_found"
	CodeInvalidCredentials = "invalid_credentials"
	CodeNoFileProvided     = "no_file_provided"
	CodeUnreadableFile     = "unreadable_file"
	CodeInvalidName        = "invalid_name"
	CodeInvalidRequest     = "invalid_request"
	CodeForbidden          = "forbidden"
)

type AppError struct {
	Err     error  // category sentinel
	Code    string // machine-readable code, e.g. "duplicate_email"
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// CodeOf returns the Code of the first *AppError in err's chain, or "" if there is none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage is NotFound with a caller-supplied message, for cases that
// are not a lookup by id (e.g. "project has no files").
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    CodeNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeInvalidRequest,
		Message: message,
		Field:   field,
	}
}

// MissingFields reports required fields that were absent or blank.
func MissingFields(fields ...string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeMissingFields,
		Message: fmt.Sprintf("missing required fields (%s)", strings.Join(fields, ", ")),
		Field:   strings.Join(fields, ","),
	}
}

func InvalidEmailFormat(email string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeInvalidEmailFormat,
		Message: fmt.Sprintf("invalid email format: %q", email),
		Field:   "email",
	}
}

func NoFileProvided() *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeNoFileProvided,
		Message: "no file was provided",
		Field:   "file",
	}
}

func UnreadableFile(reason string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeUnreadableFile,
		Message: "could not read file: " + reason,
		Field:   "file",
	}
}

func InvalidName() *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeInvalidName,
		Message: "name must not be empty",
		Field:   "originalName",
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    "conflict",
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Duplicate reports a uniqueness violation on field. code is one of the
// CodeDuplicate* constants.
func Duplicate(code, field, value string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    code,
		Message: fmt.Sprintf("%s %q is already in use", field, value),
		Field:   field,
	}
}

// InvalidCredentials never says which of email or password was wrong.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Code:    CodeInvalidCredentials,
		Message: "invalid credentials",
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Code:    CodeForbidden,
		Message: message,
	}
}
