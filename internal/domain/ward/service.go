package ward

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperror"
)

// Service owns ward lifecycle rules. Bed occupancy is never mutated here;
// that belongs to the allocation coordinator.
type Service struct {
	repo         Repository
	defaultRates map[string]float64
}

func NewService(repo Repository, defaultRates map[string]float64) *Service {
	return &Service{repo: repo, defaultRates: defaultRates}
}

func (s *Service) CreateWard(ctx context.Context, w *Ward) error {
	var fields []string
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		fields = append(fields, "name")
	}
	if !ValidTypes[w.Type] {
		fields = append(fields, "ward_type")
	}
	if w.Capacity <= 0 {
		fields = append(fields, "capacity")
	}
	if len(fields) > 0 {
		return apperror.NewValidation("invalid ward", fields...)
	}

	taken, err := s.repo.NameTaken(ctx, w.Name, uuid.Nil)
	if err != nil {
		return err
	}
	if taken {
		return apperror.NewValidation("ward name already in use among active wards", "name")
	}

	w.IsActive = true
	return s.repo.Create(ctx, w)
}

func (s *Service) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) UpdateWard(ctx context.Context, id uuid.UUID, patch Patch) (*Ward, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperror.NewValidation("ward name must not be empty", "name")
		}
		taken, err := s.repo.NameTaken(ctx, name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperror.NewValidation("ward name already in use among active wards", "name")
		}
		w.Name = name
	}
	if patch.Type != nil {
		if !ValidTypes[*patch.Type] {
			return nil, apperror.NewValidation("unknown ward type", "ward_type")
		}
		w.Type = *patch.Type
	}
	if patch.Capacity != nil {
		if *patch.Capacity <= 0 {
			return nil, apperror.NewValidation("capacity must be positive", "capacity")
		}
		// The occupied-bed floor is enforced by the repository under the ward
		// row lock, where it cannot race a concurrent admission.
		w.Capacity = *patch.Capacity
	}
	if patch.Floor != nil {
		w.Floor = patch.Floor
	}
	if patch.DailyRate != nil {
		w.DailyRate = patch.DailyRate
	}

	if err := s.repo.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// SetActive soft-activates or soft-deactivates the ward.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Ward, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if active && w.Name != "" {
		// Reactivation must not resurrect a duplicate name.
		taken, err := s.repo.NameTaken(ctx, w.Name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperror.NewValidation("an active ward already uses this name", "name")
		}
	}
	w.IsActive = active
	if err := s.repo.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// DeleteWard removes a ward. Without force it fails while any bed is occupied
// or any admission is still ADMITTED; with force the cascade closes admissions
// and removes beds atomically.
func (s *Service) DeleteWard(ctx context.Context, id uuid.UUID, force bool) (*DeleteResult, error) {
	return s.repo.Delete(ctx, id, force)
}

func (s *Service) ListWards(ctx context.Context, f Filter, limit, offset int) ([]*Ward, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// DailyRate resolves the effective daily rate for a ward.
func (s *Service) DailyRate(w *Ward) float64 {
	return w.EffectiveDailyRate(s.defaultRates)
}
