// Package apperr defines the error kinds that cross the service/handler
// boundary. Stores wrap driver errors with fmt.Errorf; services return these
// types so handlers can pick a status code with errors.As.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with an existing row.
var ErrConflict = errors.New("conflict")

// Unique-constraint conflicts on certifications, both wrapping ErrConflict.
var (
	ErrCodeTaken     = fmt.Errorf("verification code taken: %w", ErrConflict)
	ErrAlreadyIssued = fmt.Errorf("certification already issued: %w", ErrConflict)
)

// ValidationError is a malformed or incomplete request payload.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the kind of resource that was looked up.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// UpgradeRequiredError means the caller's subscription tier ranks below the
// tier a resource requires.
type UpgradeRequiredError struct {
	Title    string
	Required string
	Current  string
}

func (e *UpgradeRequiredError) Error() string {
	return fmt.Sprintf("%s is available to %s plans. Upgrade your subscription to continue.", e.Title, e.Required)
}

// RequirementsNotMetError carries every unmet requirement, in rule order.
type RequirementsNotMetError struct {
	Reasons []string
}

func (e *RequirementsNotMetError) Error() string {
	return "requirements not met: " + strings.Join(e.Reasons, "; ")
}

// Status maps an error to the HTTP status a handler should respond with.
func Status(err error) int {
	var (
		validation   *ValidationError
		notFound     *NotFoundError
		upgrade      *UpgradeRequiredError
		requirements *RequirementsNotMetError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.As(err, &upgrade):
		return http.StatusForbidden
	case errors.As(err, &requirements):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
