package occupancy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/admission"
)

type mockRepo struct {
	wards      []*WardOccupancy
	bedStats   *BedStats
	stats      *admission.Stats
	statsCalls int
	lastDay    time.Time
}

func (m *mockRepo) WardOccupancy(_ context.Context) ([]*WardOccupancy, error) {
	return m.wards, nil
}

func (m *mockRepo) BedStats(_ context.Context) (*BedStats, error) {
	return m.bedStats, nil
}

func (m *mockRepo) AdmissionStats(_ context.Context, day time.Time) (*admission.Stats, error) {
	m.statsCalls++
	m.lastDay = day
	return m.stats, nil
}

func TestWardOccupancy(t *testing.T) {
	repo := &mockRepo{
		wards: []*WardOccupancy{
			{WardID: uuid.New(), WardName: "ICU-1", Capacity: 4, Occupied: 4, Rate: 1.0, Band: BandCritical},
			{WardID: uuid.New(), WardName: "General-A", Capacity: 10, Occupied: 3, Rate: 0.3, Band: BandLow},
		},
	}
	svc := NewService(repo, nil, nil, time.UTC)

	out, err := svc.WardOccupancy(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 wards, got %d", len(out))
	}
	if out[0].Band != BandCritical {
		t.Errorf("expected Critical band, got %s", out[0].Band)
	}
}

func TestBedStats(t *testing.T) {
	repo := &mockRepo{bedStats: &BedStats{Total: 20, Occupied: 12, Available: 6, Active: 18}}
	svc := NewService(repo, nil, nil, time.UTC)

	out, err := svc.BedStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Occupied != 12 || out.Available != 6 {
		t.Errorf("unexpected stats: %+v", out)
	}
}

func TestAdmissionStats_UsesConfiguredTimezone(t *testing.T) {
	repo := &mockRepo{stats: &admission.Stats{CurrentlyAdmitted: 5}}
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	svc := NewService(repo, nil, nil, kolkata)

	if _, err := svc.AdmissionStats(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.statsCalls != 1 {
		t.Fatalf("expected one repository call, got %d", repo.statsCalls)
	}
	if repo.lastDay.Location().String() != "Asia/Kolkata" {
		t.Errorf("expected day evaluated in Asia/Kolkata, got %s", repo.lastDay.Location())
	}
}
