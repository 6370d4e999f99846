// Package apperror defines the error taxonomy shared by the service and HTTP
// layers.
//
// Services return these errors; handlers translate them into status codes.
// Anything that is not an *AppError is treated as a persistence failure and is
// never shown to the caller verbatim.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
)

type AppError struct {
	Err     error       // sentinel, one of the Err* values above
	Message string      // Human-readable error message
	Field   string      // Optional: single field causing the error
	Fields  FieldErrors // Optional: every invalid field with its message
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Unauthenticated means no principal could be resolved for the request.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// NotFound is also returned when the resource exists but belongs to someone
// else, so callers cannot probe for other owners' records.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  FieldErrors{field: message},
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// FieldErrors maps a field name to the message shown next to it.
type FieldErrors map[string]string

// Add records message for field. The first message for a field wins.
func (f FieldErrors) Add(field, message string) {
	if _, ok := f[field]; ok {
		return
	}
	f[field] = message
}

// Err returns nil when no field failed, otherwise a validation *AppError
// carrying all of them.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}

	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, f[name])
	}

	e := &AppError{
		Err:     ErrValidation,
		Message: strings.Join(msgs, "; "),
		Fields:  f,
	}
	if len(names) == 1 {
		e.Field = names[0]
	}
	return e
}

// FieldsOf extracts the per-field messages from a validation error, or nil.
func FieldsOf(err error) FieldErrors {
	var appErr *AppError
	if errors.As(err, &appErr) && errors.Is(appErr.Err, ErrValidation) {
		return appErr.Fields
	}
	return nil
}
