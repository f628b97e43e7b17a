package repositories

import (
	"context"

	"github.com/quranchallenge/server/domain/entities"
)

// ReadingRepository defines data access methods for reading submissions
type ReadingRepository interface {
	Create(ctx context.Context, reading *entities.Reading) error
	GetByChildName(ctx context.Context, childName string) ([]*entities.Reading, error)
	// Leaderboard returns at most limit group summaries in leaderboard order
	Leaderboard(ctx context.Context, group entities.LeaderboardGroup, limit int) ([]entities.LeaderboardEntry, error)
	Stats(ctx context.Context) (*entities.Stats, error)
}

// HistoricalEntryRepository defines data access methods for backdated entries
type HistoricalEntryRepository interface {
	Create(ctx context.Context, entry *entities.HistoricalEntry) error
}

// UserRepository defines data access methods for users
type UserRepository interface {
	// Create fails with domain.ErrDuplicateEmail when the email is taken
	Create(ctx context.Context, user *entities.User) error
	// GetByEmail fails with domain.ErrNotFound when no user matches
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}
