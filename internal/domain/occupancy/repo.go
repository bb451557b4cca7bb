package occupancy

import (
	"context"
	"time"

	"github.com/hms/hms/internal/domain/admission"
)

// Repository reads the aggregates. Implementations must serve each call from
// a consistent snapshot: a concurrently committing admission must not show a
// ward's occupied count half-applied across rows of one report.
type Repository interface {
	WardOccupancy(ctx context.Context) ([]*WardOccupancy, error)
	BedStats(ctx context.Context) (*BedStats, error)
	AdmissionStats(ctx context.Context, day time.Time) (*admission.Stats, error)
}
