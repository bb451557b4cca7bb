package allocation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/admission"
)

// Store is the transactional heart of the coordinator. Each method runs as a
// single atomic unit: the bed occupancy flag and the admission row are never
// observable in a half-updated state.
type Store interface {
	// Admit claims the bed named by a.BedID (or any available bed in the
	// ward when a.BedID is zero) and inserts the admission row with status
	// ADMITTED. It fails with a ConflictError when the patient is already
	// admitted, the bed is unavailable, or the ward is at capacity. On
	// success a is populated with the claimed bed and generated fields.
	Admit(ctx context.Context, a *admission.Admission) error

	// Discharge moves the admission to DISCHARGED and frees its bed.
	// Discharging a non-ADMITTED admission fails with a ConflictError so a
	// bed release is never applied twice.
	Discharge(ctx context.Context, admissionID uuid.UUID, notes *string, now time.Time) (*admission.Admission, error)

	// Transfer releases the admission's current bed and claims newBedID (or
	// any available bed in newWardID when zero) as one unit. The existing
	// admission becomes TRANSFERRED and a new ADMITTED row linked to it is
	// returned alongside the closed one.
	Transfer(ctx context.Context, admissionID, newWardID, newBedID uuid.UUID, now time.Time) (closed, opened *admission.Admission, err error)
}
