package allocation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/admission"
	"github.com/hms/hms/internal/platform/apperror"
)

// DayCareDetails carries the fields mandatory for DAY_CARE admissions. All
// three are required, and home support must be confirmed before a same-day
// procedure is booked.
type DayCareDetails struct {
	ProcedureStartTime    *time.Time `json:"procedure_start_time"`
	ExpectedDischargeTime *time.Time `json:"expected_discharge_time"`
	HomeSupportAvailable  *bool      `json:"home_support_available"`
}

// AdmitRequest is the input to the coordinator's admit operation. The
// day-care variant is tagged by AdmissionType: DayCare must be present and
// complete for DAY_CARE and absent otherwise.
type AdmitRequest struct {
	PatientID     string          `json:"patient_id"`
	WardID        uuid.UUID       `json:"ward_id"`
	BedID         uuid.UUID       `json:"bed_id"` // zero value selects any available bed
	AdmissionType string          `json:"admission_type"`
	AdmissionDate *time.Time      `json:"admission_date,omitempty"`
	Reason        string          `json:"reason"`
	Notes         *string         `json:"notes,omitempty"`
	DayCare       *DayCareDetails `json:"day_care,omitempty"`
}

// Validate checks the request exhaustively and reports every missing or
// malformed field in one error.
func (r *AdmitRequest) Validate() error {
	var fields []string

	r.PatientID = strings.TrimSpace(r.PatientID)
	r.Reason = strings.TrimSpace(r.Reason)

	if r.PatientID == "" {
		fields = append(fields, "patient_id")
	}
	if r.WardID == uuid.Nil {
		fields = append(fields, "ward_id")
	}
	if !admission.ValidTypes[r.AdmissionType] {
		fields = append(fields, "admission_type")
	}
	if r.Reason == "" {
		fields = append(fields, "reason")
	}

	switch {
	case r.AdmissionType == admission.TypeDayCare:
		if r.DayCare == nil {
			fields = append(fields,
				"procedure_start_time", "expected_discharge_time", "home_support_available")
			break
		}
		if r.DayCare.ProcedureStartTime == nil {
			fields = append(fields, "procedure_start_time")
		}
		if r.DayCare.ExpectedDischargeTime == nil {
			fields = append(fields, "expected_discharge_time")
		}
		if r.DayCare.HomeSupportAvailable == nil || !*r.DayCare.HomeSupportAvailable {
			fields = append(fields, "home_support_available")
		}
	case r.DayCare != nil:
		fields = append(fields, "day_care")
	}

	if len(fields) > 0 {
		return apperror.NewValidation("invalid admission request", fields...)
	}
	return nil
}
