package ward

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, w *Ward) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ward, error)

	// Update writes the ward under its row lock and rejects a capacity below
	// the occupied bed count, so the write cannot interleave with a
	// concurrent admission claiming a bed.
	Update(ctx context.Context, w *Ward) error

	List(ctx context.Context, f Filter, limit, offset int) ([]*Ward, int, error)

	// NameTaken reports whether an active ward other than excludeID already
	// uses name.
	NameTaken(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)

	// Delete removes the ward. With force it atomically closes ADMITTED
	// admissions, removes the ward's beds and then the ward, holding row
	// locks so it cannot race an in-flight admission. Without force it fails
	// with a ConflictError reporting occupied/admitted counts when the ward
	// still has active resources.
	Delete(ctx context.Context, id uuid.UUID, force bool) (*DeleteResult, error)
}
