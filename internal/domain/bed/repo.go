package bed

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, b *Bed) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bed, error)

	// Update writes the bed under its row lock and rejects deactivating an
	// occupied bed, so the write cannot interleave with a concurrent claim.
	Update(ctx context.Context, b *Bed) error

	// Delete removes the bed; it fails with a ConflictError while the bed is
	// occupied, holding a row lock so it cannot race a concurrent claim.
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, f Filter, limit, offset int) ([]*Bed, int, error)

	// ListAvailable returns the ward's active, unoccupied beds: the candidate
	// set the allocation coordinator draws from.
	ListAvailable(ctx context.Context, wardID uuid.UUID) ([]*Bed, error)

	// NumberTaken reports whether another bed in the ward already uses number.
	NumberTaken(ctx context.Context, wardID uuid.UUID, number string, excludeID uuid.UUID) (bool, error)
}
