package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/quranchallenge/server/domain/entities"
)

// HistoricalEntryRepository stores backdated entries in their own collection
type HistoricalEntryRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewHistoricalEntryRepository creates a new MongoDB historical entry repository
func NewHistoricalEntryRepository(db *mongo.Database, logger *zap.Logger) *HistoricalEntryRepository {
	return &HistoricalEntryRepository{
		collection: db.Collection(HistoricalEntriesCollection),
		logger:     logger,
	}
}

// Create implements repositories.HistoricalEntryRepository
func (r *HistoricalEntryRepository) Create(ctx context.Context, entry *entities.HistoricalEntry) error {
	if entry == nil {
		return errors.New("historical entry cannot be nil")
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to create historical entry: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid
	}

	r.logger.Debug("Historical entry created", zap.String("entry_id", entry.ID.Hex()))
	return nil
}
