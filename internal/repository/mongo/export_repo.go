package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"alcyxob/training-calendar/internal/domain"
	"alcyxob/training-calendar/internal/repository"
)

const exportCollectionName = "schedule_exports"

// mongoExportRepository implements repository.ExportRepository
type mongoExportRepository struct {
	collection *mongo.Collection
}

// NewMongoExportRepository creates a new export metadata repository backed by MongoDB.
func NewMongoExportRepository(db *mongo.Database) repository.ExportRepository {
	return &mongoExportRepository{
		collection: db.Collection(exportCollectionName),
	}
}

// Create inserts export metadata for a generated weekly snapshot.
func (r *mongoExportRepository) Create(ctx context.Context, e *domain.ScheduleExport) (primitive.ObjectID, error) {
	if e.WeekStart == "" || e.S3ObjectKey == "" {
		return primitive.NilObjectID, errors.New("export week start and object key are required")
	}

	e.ID = primitive.NewObjectID()
	e.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, e)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetLatestByWeek retrieves the most recent export generated for a week.
func (r *mongoExportRepository) GetLatestByWeek(ctx context.Context, weekStart string) (*domain.ScheduleExport, error) {
	var e domain.ScheduleExport
	filter := bson.M{"weekStart": weekStart}

	findOptions := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// EnsureExportIndexes creates necessary indexes for the exports collection.
func EnsureExportIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "weekStart", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
