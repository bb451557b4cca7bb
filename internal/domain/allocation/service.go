package allocation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hms/hms/internal/domain/admission"
	"github.com/hms/hms/internal/platform/apperror"
	"github.com/hms/hms/internal/platform/cache"
	"github.com/hms/hms/internal/platform/events"
	"github.com/hms/hms/internal/platform/patients"
	"github.com/hms/hms/internal/platform/telemetry"
)

// Service coordinates admissions, discharges and transfers. The store does
// the atomic state change; the service validates input, resolves the patient
// against the directory, and fans out events, metrics and cache invalidation
// after the change commits.
type Service struct {
	store     Store
	directory patients.Directory
	publisher *events.Publisher
	cache     *cache.Client
	metrics   *telemetry.Metrics
	loc       *time.Location
}

func NewService(store Store, directory patients.Directory, publisher *events.Publisher,
	cacheClient *cache.Client, metrics *telemetry.Metrics, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:     store,
		directory: directory,
		publisher: publisher,
		cache:     cacheClient,
		metrics:   metrics,
		loc:       loc,
	}
}

// Admit validates the request, claims a bed and opens the admission.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*admission.Admission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if s.directory != nil {
		ok, err := s.directory.Exists(ctx, req.PatientID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.NewReference("patient", req.PatientID)
		}
	}

	admissionDate := time.Now().In(s.loc)
	if req.AdmissionDate != nil {
		admissionDate = req.AdmissionDate.In(s.loc)
	}

	a := &admission.Admission{
		PatientID:     req.PatientID,
		WardID:        req.WardID,
		BedID:         req.BedID,
		AdmissionType: req.AdmissionType,
		AdmissionDate: admissionDate,
		Reason:        req.Reason,
		Notes:         req.Notes,
	}
	if req.DayCare != nil {
		a.ProcedureStartTime = req.DayCare.ProcedureStartTime
		a.ExpectedDischargeTime = req.DayCare.ExpectedDischargeTime
		a.HomeSupportAvailable = req.DayCare.HomeSupportAvailable
	}

	if err := s.store.Admit(ctx, a); err != nil {
		s.countConflict(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AdmissionsTotal.WithLabelValues(a.AdmissionType).Inc()
		s.metrics.OccupiedBeds.Inc()
	}
	s.afterCommit(ctx, events.KeyPatientAdmitted, a)
	return a, nil
}

// Discharge closes the admission and frees its bed.
func (s *Service) Discharge(ctx context.Context, admissionID uuid.UUID, notes *string) (*admission.Admission, error) {
	a, err := s.store.Discharge(ctx, admissionID, notes, time.Now().In(s.loc))
	if err != nil {
		s.countConflict(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.DischargesTotal.Inc()
		s.metrics.OccupiedBeds.Dec()
	}
	s.afterCommit(ctx, events.KeyPatientDischarged, a)
	return a, nil
}

// Transfer moves the patient to a new bed, closing the current admission as
// TRANSFERRED and opening a linked one. newBedID may be zero to take any
// available bed in the target ward.
func (s *Service) Transfer(ctx context.Context, admissionID, newWardID, newBedID uuid.UUID) (*admission.Admission, error) {
	if newWardID == uuid.Nil {
		return nil, apperror.NewValidation("invalid transfer request", "ward_id")
	}

	_, opened, err := s.store.Transfer(ctx, admissionID, newWardID, newBedID, time.Now().In(s.loc))
	if err != nil {
		s.countConflict(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TransfersTotal.Inc()
	}
	s.afterCommit(ctx, events.KeyPatientTransferred, opened)
	return opened, nil
}

// afterCommit publishes the domain event and drops the cached occupancy
// aggregates. Both are best-effort: the state change is already durable.
func (s *Service) afterCommit(ctx context.Context, key string, a *admission.Admission) {
	ev := events.AdmissionEvent{
		AdmissionID: a.ID.String(),
		PatientID:   a.PatientID,
		WardID:      a.WardID.String(),
		BedID:       a.BedID.String(),
		Status:      a.Status,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, key, ev); err != nil {
		log.Warn().Err(err).Str("routing_key", key).Str("admission_id", ev.AdmissionID).
			Msg("failed to publish admission event")
	}
	if err := s.cache.Invalidate(ctx,
		cache.KeyWardOccupancy, cache.KeyBedStats, cache.KeyAdmissionStats); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate occupancy cache")
	}
}

func (s *Service) countConflict(err error) {
	if s.metrics == nil {
		return
	}
	var ce *apperror.ConflictError
	if errors.As(err, &ce) {
		s.metrics.ConflictsTotal.WithLabelValues(string(ce.Kind)).Inc()
	}
}
