package bed

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/ward"
	"github.com/hms/hms/internal/platform/apperror"
)

// WardDirectory is the slice of the ward registry this service needs.
type WardDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ward.Ward, error)
}

// Service owns bed registration. Registering more beds than the ward's
// capacity is allowed: capacity bounds occupied beds and is enforced at
// claim time by the allocation coordinator, not here.
type Service struct {
	repo  Repository
	wards WardDirectory
}

func NewService(repo Repository, wards WardDirectory) *Service {
	return &Service{repo: repo, wards: wards}
}

func (s *Service) CreateBed(ctx context.Context, b *Bed) error {
	var fields []string
	b.BedNumber = strings.TrimSpace(b.BedNumber)
	if b.BedNumber == "" {
		fields = append(fields, "bed_number")
	}
	if !ValidTypes[b.BedType] {
		fields = append(fields, "bed_type")
	}
	if b.WardID == uuid.Nil {
		fields = append(fields, "ward_id")
	}
	if len(fields) > 0 {
		return apperror.NewValidation("invalid bed", fields...)
	}

	w, err := s.wards.GetByID(ctx, b.WardID)
	if err != nil {
		var nfe *apperror.NotFoundError
		if errors.As(err, &nfe) {
			return apperror.NewValidation("ward does not exist", "ward_id")
		}
		return err
	}
	if !w.IsActive {
		return apperror.NewValidation("ward is not active", "ward_id")
	}

	taken, err := s.repo.NumberTaken(ctx, b.WardID, b.BedNumber, uuid.Nil)
	if err != nil {
		return err
	}
	if taken {
		return apperror.NewValidation("bed number already in use within ward", "bed_number")
	}

	b.IsActive = true
	b.IsOccupied = false
	return s.repo.Create(ctx, b)
}

func (s *Service) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateBed(ctx context.Context, id uuid.UUID, patch Patch) (*Bed, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.BedNumber != nil {
		number := strings.TrimSpace(*patch.BedNumber)
		if number == "" {
			return nil, apperror.NewValidation("bed number must not be empty", "bed_number")
		}
		taken, err := s.repo.NumberTaken(ctx, b.WardID, number, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperror.NewValidation("bed number already in use within ward", "bed_number")
		}
		b.BedNumber = number
	}
	if patch.BedType != nil {
		if !ValidTypes[*patch.BedType] {
			return nil, apperror.NewValidation("unknown bed type", "bed_type")
		}
		b.BedType = *patch.BedType
	}
	if patch.IsActive != nil {
		// Deactivating an occupied bed is rejected by the repository under
		// the bed row lock, where it cannot race a concurrent claim.
		b.IsActive = *patch.IsActive
	}
	if patch.Notes != nil {
		b.Notes = patch.Notes
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) DeleteBed(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListBeds(ctx context.Context, f Filter, limit, offset int) ([]*Bed, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) ListAvailableBeds(ctx context.Context, wardID uuid.UUID) ([]*Bed, error) {
	return s.repo.ListAvailable(ctx, wardID)
}
