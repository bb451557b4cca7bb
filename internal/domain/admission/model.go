package admission

import (
	"time"

	"github.com/google/uuid"
)

// Admission types.
const (
	TypeEmergency   = "EMERGENCY"
	TypePlanned     = "PLANNED"
	TypeTransfer    = "TRANSFER"
	TypeObservation = "OBSERVATION"
	TypeDayCare     = "DAY_CARE"
)

// ValidTypes enumerates the accepted admission types.
var ValidTypes = map[string]bool{
	TypeEmergency:   true,
	TypePlanned:     true,
	TypeTransfer:    true,
	TypeObservation: true,
	TypeDayCare:     true,
}

// Admission statuses. An admission row is never deleted; discharge and
// transfer only move it forward through these states.
const (
	StatusAdmitted    = "ADMITTED"
	StatusDischarged  = "DISCHARGED"
	StatusTransferred = "TRANSFERRED"
)

// Admission maps to the admission table. The day-care fields are present
// only when AdmissionType is DAY_CARE.
type Admission struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     string    `db:"patient_id" json:"patient_id"`
	WardID        uuid.UUID `db:"ward_id" json:"ward_id"`
	BedID         uuid.UUID `db:"bed_id" json:"bed_id"`
	AdmissionType string    `db:"admission_type" json:"admission_type"`
	Status        string    `db:"status" json:"status"`

	AdmissionDate time.Time  `db:"admission_date" json:"admission_date"`
	DischargeDate *time.Time `db:"discharge_date" json:"discharge_date,omitempty"`

	Reason         string  `db:"reason" json:"reason"`
	Notes          *string `db:"notes" json:"notes,omitempty"`
	DischargeNotes *string `db:"discharge_notes" json:"discharge_notes,omitempty"`

	// Day-care details, populated only for DAY_CARE admissions.
	ProcedureStartTime    *time.Time `db:"procedure_start_time" json:"procedure_start_time,omitempty"`
	ExpectedDischargeTime *time.Time `db:"expected_discharge_time" json:"expected_discharge_time,omitempty"`
	HomeSupportAvailable  *bool      `db:"home_support_available" json:"home_support_available,omitempty"`

	// TransferredFrom links a transfer's new admission back to the one it
	// superseded.
	TransferredFrom *uuid.UUID `db:"transferred_from" json:"transferred_from,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsDayCare reports whether the admission is a same-day procedure stay.
func (a *Admission) IsDayCare() bool {
	return a.AdmissionType == TypeDayCare
}

// Filter narrows admission listings.
type Filter struct {
	PatientID     string
	WardID        uuid.UUID
	BedID         uuid.UUID
	Status        string
	AdmissionType string
	From          *time.Time
	To            *time.Time
}

// Stats summarizes ledger activity for the dashboard endpoints.
type Stats struct {
	CurrentlyAdmitted int            `json:"currently_admitted"`
	AdmittedToday     int            `json:"admitted_today"`
	DischargedToday   int            `json:"discharged_today"`
	ByType            map[string]int `json:"by_type"`
	ByWard            map[string]int `json:"by_ward"`
}
