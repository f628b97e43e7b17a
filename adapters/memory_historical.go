package adapters

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quranchallenge/server/domain/entities"
)

// MemoryHistoricalEntryRepository is an in-memory implementation of HistoricalEntryRepository
type MemoryHistoricalEntryRepository struct {
	mu      sync.RWMutex
	entries []*entities.HistoricalEntry
}

// NewMemoryHistoricalEntryRepository creates a new in-memory historical entry repository
func NewMemoryHistoricalEntryRepository() *MemoryHistoricalEntryRepository {
	return &MemoryHistoricalEntryRepository{
		entries: make([]*entities.HistoricalEntry, 0),
	}
}

// Create implements HistoricalEntryRepository interface
func (m *MemoryHistoricalEntryRepository) Create(ctx context.Context, entry *entities.HistoricalEntry) error {
	if entry == nil {
		return errors.New("historical entry cannot be nil")
	}

	if err := entry.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}

	entryCopy := *entry
	entryCopy.Categories = append([]entities.Category(nil), entry.Categories...)
	m.entries = append(m.entries, &entryCopy)

	return nil
}

// Count returns the number of stored entries
func (m *MemoryHistoricalEntryRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
