package occupancy

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hms/hms/internal/domain/admission"
	"github.com/hms/hms/internal/platform/cache"
	"github.com/hms/hms/internal/platform/telemetry"
)

// Service serves the occupancy reports, fronted by a short-TTL cache that
// the allocation coordinator invalidates on every committed change. A cache
// failure falls through to the repository, never to the caller.
type Service struct {
	repo    Repository
	cache   *cache.Client
	metrics *telemetry.Metrics
	loc     *time.Location
}

func NewService(repo Repository, cacheClient *cache.Client, metrics *telemetry.Metrics, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, cache: cacheClient, metrics: metrics, loc: loc}
}

func (s *Service) WardOccupancy(ctx context.Context) ([]*WardOccupancy, error) {
	var cached []*WardOccupancy
	if hit, err := s.cache.GetJSON(ctx, cache.KeyWardOccupancy, &cached); err != nil {
		log.Warn().Err(err).Msg("ward occupancy cache read failed")
	} else if hit {
		return cached, nil
	}

	out, err := s.repo.WardOccupancy(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, cache.KeyWardOccupancy, out); err != nil {
		log.Warn().Err(err).Msg("ward occupancy cache write failed")
	}
	return out, nil
}

func (s *Service) BedStats(ctx context.Context) (*BedStats, error) {
	var cached BedStats
	if hit, err := s.cache.GetJSON(ctx, cache.KeyBedStats, &cached); err != nil {
		log.Warn().Err(err).Msg("bed stats cache read failed")
	} else if hit {
		return &cached, nil
	}

	out, err := s.repo.BedStats(ctx)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.OccupiedBeds.Set(float64(out.Occupied))
	}
	if err := s.cache.SetJSON(ctx, cache.KeyBedStats, out); err != nil {
		log.Warn().Err(err).Msg("bed stats cache write failed")
	}
	return out, nil
}

func (s *Service) AdmissionStats(ctx context.Context) (*admission.Stats, error) {
	var cached admission.Stats
	if hit, err := s.cache.GetJSON(ctx, cache.KeyAdmissionStats, &cached); err != nil {
		log.Warn().Err(err).Msg("admission stats cache read failed")
	} else if hit {
		return &cached, nil
	}

	out, err := s.repo.AdmissionStats(ctx, time.Now().In(s.loc))
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, cache.KeyAdmissionStats, out); err != nil {
		log.Warn().Err(err).Msg("admission stats cache write failed")
	}
	return out, nil
}
