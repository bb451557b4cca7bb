package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service is the read side of the admission ledger. Admitting, discharging
// and transferring patients all go through the allocation coordinator, which
// writes ledger rows inside its transactions.
type Service struct {
	repo Repository
	loc  *time.Location
}

func NewService(repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc}
}

func (s *Service) GetAdmission(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAdmissions(ctx context.Context, f Filter, limit, offset int) ([]*Admission, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) ActiveAdmission(ctx context.Context, patientID string) (*Admission, error) {
	return s.repo.ActiveByPatient(ctx, patientID)
}

func (s *Service) PatientHistory(ctx context.Context, patientID string) ([]*Admission, error) {
	return s.repo.History(ctx, patientID)
}

// Stats computes today's counters with "today" taken in the hospital's
// configured timezone, not the server's.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx, time.Now().In(s.loc))
}
