package bed

import (
	"time"

	"github.com/google/uuid"
)

// Bed types.
const (
	TypeGeneral     = "GENERAL"
	TypeICU         = "ICU"
	TypePrivate     = "PRIVATE"
	TypeSemiPrivate = "SEMI_PRIVATE"
	TypeIsolation   = "ISOLATION"
)

// ValidTypes enumerates the accepted bed types.
var ValidTypes = map[string]bool{
	TypeGeneral:     true,
	TypeICU:         true,
	TypePrivate:     true,
	TypeSemiPrivate: true,
	TypeIsolation:   true,
}

// Bed maps to the bed table. WardID is immutable after creation; the
// occupancy flag is owned by the allocation coordinator and is only read here.
type Bed struct {
	ID         uuid.UUID `db:"id" json:"id"`
	WardID     uuid.UUID `db:"ward_id" json:"ward_id"`
	BedNumber  string    `db:"bed_number" json:"bed_number"`
	BedType    string    `db:"bed_type" json:"bed_type"`
	IsOccupied bool      `db:"is_occupied" json:"is_occupied"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Patch carries the updatable bed fields; nil means "leave unchanged".
// Occupancy is deliberately absent.
type Patch struct {
	BedNumber *string `json:"bed_number,omitempty"`
	BedType   *string `json:"bed_type,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// Filter narrows bed listings.
type Filter struct {
	WardID   uuid.UUID
	BedType  string
	Occupied *bool
	Active   *bool
}
