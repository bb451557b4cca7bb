package bed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/ward"
	"github.com/hms/hms/internal/platform/apperror"
)

// -- Mocks --

type mockRepo struct {
	beds map[uuid.UUID]*Bed

	// beforeUpdate runs at the top of Update, standing in for work another
	// transaction commits while this one waits on the bed row lock.
	beforeUpdate func()
}

func newMockRepo() *mockRepo {
	return &mockRepo{beds: make(map[uuid.UUID]*Bed)}
}

func (m *mockRepo) Create(_ context.Context, b *Bed) error {
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	b.UpdatedAt = time.Now()
	m.beds[b.ID] = b
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Bed, error) {
	b, ok := m.beds[id]
	if !ok {
		return nil, apperror.NewNotFound("bed", id.String())
	}
	copied := *b
	return &copied, nil
}

func (m *mockRepo) Update(_ context.Context, b *Bed) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	cur, ok := m.beds[b.ID]
	if !ok {
		return apperror.NewNotFound("bed", b.ID.String())
	}
	if !b.IsActive && cur.IsOccupied {
		return apperror.NewConflict(apperror.ConflictBedOccupied,
			"occupied bed cannot be deactivated").WithDetail("bedId", b.ID.String())
	}
	m.beds[b.ID] = b
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	b, ok := m.beds[id]
	if !ok {
		return apperror.NewNotFound("bed", id.String())
	}
	if b.IsOccupied {
		return apperror.NewConflict(apperror.ConflictBedOccupied, "bed is occupied and cannot be deleted")
	}
	delete(m.beds, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Bed, int, error) {
	var result []*Bed
	for _, b := range m.beds {
		if f.WardID != uuid.Nil && b.WardID != f.WardID {
			continue
		}
		if f.Occupied != nil && b.IsOccupied != *f.Occupied {
			continue
		}
		result = append(result, b)
	}
	return result, len(result), nil
}

func (m *mockRepo) ListAvailable(_ context.Context, wardID uuid.UUID) ([]*Bed, error) {
	var result []*Bed
	for _, b := range m.beds {
		if b.WardID == wardID && b.IsActive && !b.IsOccupied {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockRepo) NumberTaken(_ context.Context, wardID uuid.UUID, number string, excludeID uuid.UUID) (bool, error) {
	for _, b := range m.beds {
		if b.WardID == wardID && b.BedNumber == number && b.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type mockWards struct {
	wards map[uuid.UUID]*ward.Ward
}

func (m *mockWards) GetByID(_ context.Context, id uuid.UUID) (*ward.Ward, error) {
	w, ok := m.wards[id]
	if !ok {
		return nil, apperror.NewNotFound("ward", id.String())
	}
	return w, nil
}

// -- Tests --

func newTestService() (*Service, *mockRepo, *ward.Ward) {
	repo := newMockRepo()
	w := &ward.Ward{ID: uuid.New(), Name: "General-A", Type: ward.TypeGeneral, Capacity: 4, IsActive: true}
	wards := &mockWards{wards: map[uuid.UUID]*ward.Ward{w.ID: w}}
	return NewService(repo, wards), repo, w
}

func TestCreateBed(t *testing.T) {
	svc, _, w := newTestService()

	b := &Bed{WardID: w.ID, BedNumber: "B1", BedType: TypeGeneral}
	if err := svc.CreateBed(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if !b.IsActive || b.IsOccupied {
		t.Errorf("expected new bed active and unoccupied, got active=%v occupied=%v", b.IsActive, b.IsOccupied)
	}
}

func TestCreateBed_CollectsAllInvalidFields(t *testing.T) {
	svc, _, _ := newTestService()

	b := &Bed{BedNumber: " ", BedType: "WATERBED"}
	err := svc.CreateBed(context.Background(), b)
	var ve *apperror.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 3 {
		t.Errorf("expected 3 invalid fields, got %v", ve.Fields)
	}
}

func TestCreateBed_UnknownWard(t *testing.T) {
	svc, _, _ := newTestService()

	b := &Bed{WardID: uuid.New(), BedNumber: "B1", BedType: TypeGeneral}
	err := svc.CreateBed(context.Background(), b)
	var ve *apperror.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for unknown ward, got %v", err)
	}
}

func TestCreateBed_InactiveWard(t *testing.T) {
	svc, _, w := newTestService()
	w.IsActive = false

	b := &Bed{WardID: w.ID, BedNumber: "B1", BedType: TypeGeneral}
	err := svc.CreateBed(context.Background(), b)
	var ve *apperror.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for inactive ward, got %v", err)
	}
}

func TestCreateBed_DuplicateNumberWithinWard(t *testing.T) {
	svc, _, w := newTestService()

	first := &Bed{WardID: w.ID, BedNumber: "B1", BedType: TypeGeneral}
	if err := svc.CreateBed(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := &Bed{WardID: w.ID, BedNumber: "B1", BedType: TypeICU}
	err := svc.CreateBed(context.Background(), dup)
	var ve *apperror.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for duplicate bed number, got %v", err)
	}
}

func TestCreateBed_RegistrationBeyondCapacityAllowed(t *testing.T) {
	svc, _, w := newTestService()

	// Capacity bounds occupied beds, not registered beds.
	for i := 0; i < w.Capacity+2; i++ {
		b := &Bed{WardID: w.ID, BedNumber: string(rune('A' + i)), BedType: TypeGeneral}
		if err := svc.CreateBed(context.Background(), b); err != nil {
			t.Fatalf("unexpected error registering bed %d: %v", i, err)
		}
	}
}

func TestUpdateBed_DeactivateOccupied(t *testing.T) {
	svc, repo, w := newTestService()

	b := &Bed{WardID: w.ID, BedNumber: "B1", BedType: TypeGeneral}
	if err := svc.CreateBed(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.beds[b.ID].IsOccupied = true

	inactive := false
	_, err := svc.UpdateBed(context.Background(), b.ID, Patch{IsActive: &inactive})
	var ce *apperror.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.Kind != apperror.ConflictBedOccupied {
		t.Errorf("expected kind %s, got %s", apperror.ConflictBedOccupied, ce.Kind)
	}
}

func TestUpdateBed_OccupancyCheckedAtWrite(t *testing.T) {
	svc, repo, w := newTestService()

	b := &Bed{WardID: w.ID, BedNumber: "B1", BedType: TypeGeneral}
	if err := svc.CreateBed(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A claim commits between the service reading the bed and the repository
	// writing the deactivation.
	repo.beforeUpdate = func() { repo.beds[b.ID].IsOccupied = true }

	inactive := false
	_, err := svc.UpdateBed(context.Background(), b.ID, Patch{IsActive: &inactive})
	var ce *apperror.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if !repo.beds[b.ID].IsActive {
		t.Error("expected bed to stay active")
	}
}

func TestDeleteBed_Occupied(t *testing.T) {
	svc, repo, w := newTestService()

	b := &Bed{WardID: w.ID, BedNumber: "B1", BedType: TypeGeneral}
	if err := svc.CreateBed(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.beds[b.ID].IsOccupied = true

	err := svc.DeleteBed(context.Background(), b.ID)
	var ce *apperror.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	repo.beds[b.ID].IsOccupied = false
	if err := svc.DeleteBed(context.Background(), b.ID); err != nil {
		t.Fatalf("expected delete to succeed once free, got %v", err)
	}
}

func TestListAvailableBeds(t *testing.T) {
	svc, repo, w := newTestService()

	free := &Bed{WardID: w.ID, BedNumber: "B1", BedType: TypeGeneral}
	taken := &Bed{WardID: w.ID, BedNumber: "B2", BedType: TypeGeneral}
	inactive := &Bed{WardID: w.ID, BedNumber: "B3", BedType: TypeGeneral}
	for _, b := range []*Bed{free, taken, inactive} {
		if err := svc.CreateBed(context.Background(), b); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	repo.beds[taken.ID].IsOccupied = true
	repo.beds[inactive.ID].IsActive = false

	available, err := svc.ListAvailableBeds(context.Background(), w.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(available) != 1 {
		t.Fatalf("expected 1 available bed, got %d", len(available))
	}
	if available[0].ID != free.ID {
		t.Errorf("expected bed %s, got %s", free.ID, available[0].ID)
	}
}
