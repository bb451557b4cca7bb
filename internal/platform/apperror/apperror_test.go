package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestValidationError_ListsFields(t *testing.T) {
	err := NewValidation("invalid admission request", "patient_id", "reason")
	msg := err.Error()
	if msg != "invalid admission request: patient_id, reason" {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestConflictError_Details(t *testing.T) {
	err := NewConflict(ConflictBedUnavailable, "bed is not available").
		WithDetail("bedId", "b-1").
		WithDetail("reason", "bed is occupied")
	if err.Details["bedId"] != "b-1" {
		t.Errorf("expected bedId detail, got %v", err.Details)
	}
	if err.Kind != ConflictBedUnavailable {
		t.Errorf("unexpected kind %s", err.Kind)
	}
}

func TestToHTTPError_Mapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{NewValidation("bad", "name"), http.StatusBadRequest},
		{NewConflict(ConflictAlreadyAdmitted, "dup"), http.StatusConflict},
		{NewNotFound("ward", "w-1"), http.StatusNotFound},
		{NewReference("patient", "p-1"), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := ToHTTPError(tt.err); got.Code != tt.code {
			t.Errorf("ToHTTPError(%v) = %d, want %d", tt.err, got.Code, tt.code)
		}
	}
}

func TestToHTTPError_WrappedError(t *testing.T) {
	err := fmt.Errorf("admit failed: %w", NewConflict(ConflictBedUnavailable, "bed is not available"))
	if got := ToHTTPError(err); got.Code != http.StatusConflict {
		t.Errorf("expected 409 for wrapped conflict, got %d", got.Code)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&pgconn.PgError{Code: "40001"}) {
		t.Error("serialization failure should be retryable")
	}
	if !IsRetryable(&pgconn.PgError{Code: "40P01"}) {
		t.Error("deadlock should be retryable")
	}
	if IsRetryable(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violation must not be retryable")
	}
	if IsRetryable(NewConflict(ConflictBedUnavailable, "nope")) {
		t.Error("domain conflicts must not be retryable")
	}
}
