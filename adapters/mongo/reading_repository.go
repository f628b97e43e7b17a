package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/quranchallenge/server/domain/entities"
	"github.com/quranchallenge/server/domain/repositories"
)

// ReadingRepository implements repositories.ReadingRepository on MongoDB
type ReadingRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewReadingRepository creates a new MongoDB reading repository
func NewReadingRepository(db *mongo.Database, logger *zap.Logger) *ReadingRepository {
	return &ReadingRepository{
		collection: db.Collection(ReadingsCollection),
		logger:     logger,
	}
}

var _ repositories.ReadingRepository = (*ReadingRepository)(nil)

// EnsureIndexes creates the indexes the read paths rely on
func (r *ReadingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "childName", Value: 1}, {Key: "submissionDate", Value: -1}}},
		{Keys: bson.D{{Key: "masjid", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create reading indexes: %w", err)
	}
	return nil
}

// Create implements repositories.ReadingRepository
func (r *ReadingRepository) Create(ctx context.Context, reading *entities.Reading) error {
	if reading == nil {
		return errors.New("reading cannot be nil")
	}
	if err := reading.Validate(); err != nil {
		return err
	}

	result, err := r.collection.InsertOne(ctx, reading)
	if err != nil {
		return fmt.Errorf("failed to create reading: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reading.ID = oid
	}

	r.logger.Debug("Reading created",
		zap.String("reading_id", reading.ID.Hex()),
		zap.String("masjid", reading.Masjid))

	return nil
}

// GetByChildName implements repositories.ReadingRepository
func (r *ReadingRepository) GetByChildName(ctx context.Context, childName string) ([]*entities.Reading, error) {
	filter := bson.M{"childName": childName}
	opts := options.Find().SetSort(bson.D{{Key: "submissionDate", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find readings for child %s: %w", childName, err)
	}
	defer cursor.Close(ctx)

	readings := make([]*entities.Reading, 0)
	if err := cursor.All(ctx, &readings); err != nil {
		return nil, fmt.Errorf("failed to decode readings: %w", err)
	}

	return readings, nil
}

// Leaderboard implements repositories.ReadingRepository
func (r *ReadingRepository) Leaderboard(ctx context.Context, group entities.LeaderboardGroup, limit int) ([]entities.LeaderboardEntry, error) {
	cursor, err := r.collection.Aggregate(ctx, leaderboardPipeline(group, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate leaderboard: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]entities.LeaderboardEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard: %w", err)
	}

	return entries, nil
}

// Stats implements repositories.ReadingRepository
func (r *ReadingRepository) Stats(ctx context.Context) (*entities.Stats, error) {
	cursor, err := r.collection.Aggregate(ctx, statsPipeline())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	defer cursor.Close(ctx)

	var facets []statsFacet
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}

	stats := entities.NewStats()
	if len(facets) == 0 {
		return stats, nil
	}
	if totals := facets[0].Totals; len(totals) > 0 {
		stats.TotalReadings = totals[0].TotalReadings
		stats.TotalChildren = totals[0].TotalChildren
		stats.TotalMasjids = totals[0].TotalMasjids
	}
	for _, bucket := range facets[0].ByType {
		stats.ReadingsByType[bucket.Category] = bucket.Count
	}

	return stats, nil
}

type statsFacet struct {
	Totals []struct {
		TotalReadings int `bson:"totalReadings"`
		TotalChildren int `bson:"totalChildren"`
		TotalMasjids  int `bson:"totalMasjids"`
	} `bson:"totals"`
	ByType []struct {
		Category entities.Category `bson:"_id"`
		Count    int               `bson:"count"`
	} `bson:"byType"`
}

// categoryCount is the number of categories on a reading document
var categoryCount = bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$categories", bson.A{}}}}}}

func leaderboardPipeline(group entities.LeaderboardGroup, limit int) mongo.Pipeline {
	keyField := "masjid"
	if group == entities.GroupByChild {
		keyField = "childName"
	}

	groupStage := bson.D{
		{Key: "_id", Value: "$" + keyField},
		{Key: "totalReadings", Value: bson.D{{Key: "$sum", Value: categoryCount}}},
		{Key: "submissions", Value: bson.D{{Key: "$sum", Value: 1}}},
		{Key: "lastReading", Value: bson.D{{Key: "$max", Value: "$submissionDate"}}},
	}
	projectStage := bson.D{
		{Key: "_id", Value: 0},
		{Key: keyField, Value: "$_id"},
		{Key: "totalReadings", Value: 1},
		{Key: "submissions", Value: 1},
		{Key: "lastReading", Value: 1},
	}
	if group != entities.GroupByChild {
		groupStage = append(groupStage, bson.E{Key: "children", Value: bson.D{{Key: "$addToSet", Value: "$childName"}}})
		projectStage = append(projectStage, bson.E{Key: "uniqueChildren", Value: bson.D{{Key: "$size", Value: "$children"}}})
	}

	return mongo.Pipeline{
		{{Key: "$group", Value: groupStage}},
		{{Key: "$project", Value: projectStage}},
		{{Key: "$sort", Value: bson.D{
			{Key: "totalReadings", Value: -1},
			{Key: "lastReading", Value: -1},
			{Key: keyField, Value: 1},
		}}},
		{{Key: "$limit", Value: int64(limit)}},
	}
}

func statsPipeline() mongo.Pipeline {
	totals := bson.A{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalReadings", Value: bson.D{{Key: "$sum", Value: categoryCount}}},
			{Key: "children", Value: bson.D{{Key: "$addToSet", Value: "$childName"}}},
			{Key: "masjids", Value: bson.D{{Key: "$addToSet", Value: "$masjid"}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "totalReadings", Value: 1},
			{Key: "totalChildren", Value: bson.D{{Key: "$size", Value: "$children"}}},
			{Key: "totalMasjids", Value: bson.D{{Key: "$size", Value: "$masjids"}}},
		}}},
	}
	byType := bson.A{
		bson.D{{Key: "$unwind", Value: "$categories"}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$categories"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	return mongo.Pipeline{
		{{Key: "$facet", Value: bson.D{
			{Key: "totals", Value: totals},
			{Key: "byType", Value: byType},
		}}},
	}
}
