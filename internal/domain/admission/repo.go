package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Admission, int, error)

	// ActiveByPatient returns the patient's ADMITTED admission, or a
	// NotFoundError when the patient is not currently admitted.
	ActiveByPatient(ctx context.Context, patientID string) (*Admission, error)

	// History returns every admission row for the patient, newest first.
	History(ctx context.Context, patientID string) ([]*Admission, error)

	// Stats computes ledger counters. "Today" is evaluated against day,
	// which the caller derives in the hospital's timezone.
	Stats(ctx context.Context, day time.Time) (*Stats, error)
}
