package ward

import (
	"time"

	"github.com/google/uuid"
)

// Ward types.
const (
	TypeGeneral    = "GENERAL"
	TypeICU        = "ICU"
	TypePrivate    = "PRIVATE"
	TypeEmergency  = "EMERGENCY"
	TypePediatric  = "PEDIATRIC"
	TypeMaternity  = "MATERNITY"
	TypeSurgical   = "SURGICAL"
	TypeCardiac    = "CARDIAC"
	TypeNeurology  = "NEUROLOGY"
	TypeOrthopedic = "ORTHOPEDIC"
	TypeDayCare    = "DAY_CARE"
)

// ValidTypes enumerates the accepted ward types.
var ValidTypes = map[string]bool{
	TypeGeneral:    true,
	TypeICU:        true,
	TypePrivate:    true,
	TypeEmergency:  true,
	TypePediatric:  true,
	TypeMaternity:  true,
	TypeSurgical:   true,
	TypeCardiac:    true,
	TypeNeurology:  true,
	TypeOrthopedic: true,
	TypeDayCare:    true,
}

// Ward maps to the ward table. Capacity bounds occupied beds, not registered
/// beds: a ward may have more beds on file than it can staff.
type Ward struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"ward_type" json:"ward_type"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Floor     *int      `db:"floor" json:"floor,omitempty"`
	DailyRate *float64  `db:"daily_rate" json:"daily_rate,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EffectiveDailyRate returns the ward's rate, falling back to the configured
// default for its type. Zero when neither is set.
func (w *Ward) EffectiveDailyRate(defaults map[string]float64) float64 {
	if w.DailyRate != nil {
		return *w.DailyRate
	}
	return defaults[w.Type]
}

// Patch carries the updatable ward fields; nil means "leave unchanged".
type Patch struct {
	Name      *string  `json:"name,omitempty"`
	Type      *string  `json:"ward_type,omitempty"`
	Capacity  *int     `json:"capacity,omitempty"`
	Floor     *int     `json:"floor,omitempty"`
	DailyRate *float64 `json:"daily_rate,omitempty"`
}

// Filter narrows ward listings.
type Filter struct {
	Type   string
	Active *bool
}

// DeleteResult reports what a (force) delete removed.
type DeleteResult struct {
	RemovedBeds      int `json:"removed_beds"`
	ClosedAdmissions int `json:"closed_admissions"`
}
