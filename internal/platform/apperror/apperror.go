// Package apperror defines the error taxonomy shared by all domain services:
// validation, conflict, not-found and dangling-reference failures. Handlers
// translate these into HTTP responses with ToHTTPError; everything else is
// treated as an internal error.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
)

// ConflictKind identifies which invariant a ConflictError violated.
type ConflictKind string

const (
	ConflictBedUnavailable    ConflictKind = "BED_UNAVAILABLE"
	ConflictAlreadyAdmitted   ConflictKind = "ALREADY_ADMITTED"
	ConflictAlreadyDischarged ConflictKind = "ALREADY_DISCHARGED"
	ConflictWardNotEmpty      ConflictKind = "WARD_NOT_EMPTY"
	ConflictBedOccupied       ConflictKind = "BED_OCCUPIED"
	ConflictDuplicateName     ConflictKind = "DUPLICATE_NAME"
)

// ValidationError reports malformed or missing input. Fields lists every
// offending field so callers see all problems at once.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// NewValidation builds a ValidationError naming the offending fields.
func NewValidation(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// ConflictError reports a domain invariant violation. Details carries enough
// context (existing admission id, occupied counts) for the caller to pick a
// different action.
type ConflictError struct {
	Kind    ConflictKind
	Message string
	Details map[string]interface{}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewConflict builds a ConflictError of the given kind.
func NewConflict(kind ConflictKind, message string) *ConflictError {
	return &ConflictError{Kind: kind, Message: message, Details: map[string]interface{}{}}
}

// WithDetail attaches a key/value pair and returns the error for chaining.
func (e *ConflictError) WithDetail(key string, value interface{}) *ConflictError {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

// NotFoundError reports an unknown identifier.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFound builds a NotFoundError for the given resource and id.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ReferenceError reports a dangling reference to an entity owned by an
// external collaborator (e.g. a patient id unknown to the patient directory).
type ReferenceError struct {
	Resource string
	ID       string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %s does not exist", e.Resource, e.ID)
}

// NewReference builds a ReferenceError for the given resource and id.
func NewReference(resource, id string) *ReferenceError {
	return &ReferenceError{Resource: resource, ID: id}
}

// IsRetryable reports whether err is a storage-level transient failure
// (serialization failure or deadlock). Such transactions left no observable
// partial effect and are safe to retry; domain conflicts never are.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// ToHTTPError maps a domain error to an echo HTTPError with a structured
// body. Unknown errors map to 500 without leaking internals.
func ToHTTPError(err error) *echo.HTTPError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]interface{}{
			"error":  "validation_failed",
			"detail": ve.Message,
			"fields": ve.Fields,
		})
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return echo.NewHTTPError(http.StatusConflict, map[string]interface{}{
			"error":   "conflict",
			"kind":    string(ce.Kind),
			"detail":  ce.Message,
			"details": ce.Details,
		})
	}
	var nfe *NotFoundError
	if errors.As(err, &nfe) {
		return echo.NewHTTPError(http.StatusNotFound, map[string]interface{}{
			"error":  "not_found",
			"detail": nfe.Error(),
		})
	}
	var re *ReferenceError
	if errors.As(err, &re) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "invalid_reference",
			"detail": re.Error(),
		})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
