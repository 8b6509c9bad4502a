// Package apperror defines the error kinds the service layer returns and the
// handler layer translates into HTTP responses.
//
// WHY SENTINEL ERRORS + A WRAPPER STRUCT?
// The service layer should not know about HTTP status codes. It returns one
// of the sentinel kinds below wrapped in an *AppError carrying the
// human-readable message (and, for validation, the per-field detail).
// The handler's writeError maps kind → status in one table. errors.Is walks
// the chain via Unwrap, so services are free to add context with %w.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both "no such record" and "record owned by someone
	// else". The two are deliberately indistinguishable so the API never
	// confirms the existence of another user's files.
	ErrNotFound = errors.New("not found")

	// ErrValidation is the create-path validation failure (HTTP 400 with a
	// field → messages map, matching what the editor frontend parses).
	ErrValidation = errors.New("validation failed")

	// ErrUnprocessable is the id-path validation failure (HTTP 422 with a
	// {message, errors} body).
	ErrUnprocessable = errors.New("unprocessable")

	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnavailable     = errors.New("unavailable")
)

type AppError struct {
	Err     error               // sentinel kind
	Message string              // human-readable error message
	Field   string              // optional: single field causing the error
	Fields  map[string][]string // optional: field → messages, for validation bodies
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound returns the conflated not-found/unauthorized error for a resource.
// The message never echoes the requested id.
func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found or unauthorized", resource),
	}
}

// ValidationFailed reports a single invalid field on the create path.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  map[string][]string{field: {message}},
	}
}

// ValidationErrors reports every invalid field at once, the way the create
// endpoint has always responded (all failing fields in one response, not
// just the first).
func ValidationErrors(fields map[string][]string) *AppError {
	msg := "validation failed"
	for _, msgs := range fields {
		if len(msgs) > 0 {
			msg = msgs[0]
			break
		}
	}
	return &AppError{
		Err:     ErrValidation,
		Message: msg,
		Fields:  fields,
	}
}

// Unprocessable reports a malformed field on the id-taking paths.
// Handlers map it to 422 Unprocessable Entity.
func Unprocessable(field, message string) *AppError {
	return &AppError{
		Err:     ErrUnprocessable,
		Message: message,
		Field:   field,
		Fields:  map[string][]string{field: {message}},
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated returns an AppError for missing or unusable credentials.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// Unavailable reports that an optional subsystem (the code runner) is not
// configured. HTTP handlers map this to 503.
func Unavailable(message string) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: message,
	}
}
