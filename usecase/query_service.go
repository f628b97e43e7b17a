package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/quranchallenge/server/domain"
	"github.com/quranchallenge/server/domain/entities"
	"github.com/quranchallenge/server/domain/repositories"
)

// Default leaderboard sizes per grouping
const (
	DefaultMasjidLeaderboardLimit = 20
	DefaultChildLeaderboardLimit  = 50
)

// QueryService computes leaderboard and statistics views over all readings.
// Every call recomputes from the stored readings.
type QueryService struct {
	readings    repositories.ReadingRepository
	masjidLimit int
	childLimit  int
	logger      *zap.Logger
}

// NewQueryService creates a new query service; non-positive limits use the defaults
func NewQueryService(readings repositories.ReadingRepository, masjidLimit, childLimit int, logger *zap.Logger) *QueryService {
	if masjidLimit <= 0 {
		masjidLimit = DefaultMasjidLeaderboardLimit
	}
	if childLimit <= 0 {
		childLimit = DefaultChildLeaderboardLimit
	}
	return &QueryService{
		readings:    readings,
		masjidLimit: masjidLimit,
		childLimit:  childLimit,
		logger:      logger,
	}
}

// Leaderboard returns the top groups for the requested grouping
func (s *QueryService) Leaderboard(ctx context.Context, group entities.LeaderboardGroup) ([]entities.LeaderboardEntry, error) {
	limit := s.masjidLimit
	if group == entities.GroupByChild {
		limit = s.childLimit
	}

	entries, err := s.readings.Leaderboard(ctx, group, limit)
	if err != nil {
		return nil, domain.Persistence("fetch leaderboard", err)
	}
	return entries, nil
}

// Stats returns totals and the category histogram across all readings
func (s *QueryService) Stats(ctx context.Context) (*entities.Stats, error) {
	stats, err := s.readings.Stats(ctx)
	if err != nil {
		return nil, domain.Persistence("fetch stats", err)
	}
	return stats, nil
}
