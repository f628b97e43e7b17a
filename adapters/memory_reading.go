package adapters

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quranchallenge/server/domain/entities"
)

// MemoryReadingRepository is an in-memory implementation of ReadingRepository.
// Aggregates are recomputed from every stored reading on each call.
type MemoryReadingRepository struct {
	mu       sync.RWMutex
	readings []*entities.Reading
}

// NewMemoryReadingRepository creates a new in-memory reading repository
func NewMemoryReadingRepository() *MemoryReadingRepository {
	return &MemoryReadingRepository{
		readings: make([]*entities.Reading, 0),
	}
}

// Create implements ReadingRepository interface
func (m *MemoryReadingRepository) Create(ctx context.Context, reading *entities.Reading) error {
	if reading == nil {
		return errors.New("reading cannot be nil")
	}

	if err := reading.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if reading.ID.IsZero() {
		reading.ID = primitive.NewObjectID()
	}

	m.readings = append(m.readings, copyReading(reading))
	return nil
}

// GetByChildName implements ReadingRepository interface
func (m *MemoryReadingRepository) GetByChildName(ctx context.Context, childName string) ([]*entities.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*entities.Reading, 0)
	for _, r := range m.readings {
		if r.ChildName == childName {
			result = append(result, copyReading(r))
		}
	}

	// Newest first
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SubmissionDate.After(result[j].SubmissionDate)
	})

	return result, nil
}

// Leaderboard implements ReadingRepository interface
func (m *MemoryReadingRepository) Leaderboard(ctx context.Context, group entities.LeaderboardGroup, limit int) ([]entities.LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type bucket struct {
		entry    entities.LeaderboardEntry
		children map[string]struct{}
	}

	buckets := make(map[string]*bucket)
	for _, r := range m.readings {
		key := r.Masjid
		if group == entities.GroupByChild {
			key = r.ChildName
		}

		b, exists := buckets[key]
		if !exists {
			b = &bucket{children: make(map[string]struct{})}
			if group == entities.GroupByChild {
				b.entry.ChildName = key
			} else {
				b.entry.Masjid = key
			}
			buckets[key] = b
		}

		b.entry.TotalReadings += r.TotalReadings()
		b.entry.Submissions++
		if r.SubmissionDate.After(b.entry.LastReading) {
			b.entry.LastReading = r.SubmissionDate
		}
		b.children[r.ChildName] = struct{}{}
	}

	entries := make([]entities.LeaderboardEntry, 0, len(buckets))
	for _, b := range buckets {
		if group != entities.GroupByChild {
			b.entry.UniqueChildren = len(b.children)
		}
		entries = append(entries, b.entry)
	}

	entities.SortLeaderboard(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// Stats implements ReadingRepository interface
func (m *MemoryReadingRepository) Stats(ctx context.Context) (*entities.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := entities.NewStats()
	children := make(map[string]struct{})
	masjids := make(map[string]struct{})

	for _, r := range m.readings {
		stats.TotalReadings += r.TotalReadings()
		children[r.ChildName] = struct{}{}
		masjids[r.Masjid] = struct{}{}
		for _, c := range r.Categories {
			stats.ReadingsByType[c]++
		}
	}

	stats.TotalChildren = len(children)
	stats.TotalMasjids = len(masjids)

	return stats, nil
}

// Count returns the number of stored readings
func (m *MemoryReadingRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.readings)
}

func copyReading(r *entities.Reading) *entities.Reading {
	readingCopy := *r
	readingCopy.Categories = append([]entities.Category(nil), r.Categories...)
	return &readingCopy
}
