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

const trainingTypeCollectionName = "training_types"

// mongoTrainingTypeRepository implements repository.TrainingTypeRepository
type mongoTrainingTypeRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainingTypeRepository creates a new training type repository backed by MongoDB.
func NewMongoTrainingTypeRepository(db *mongo.Database) repository.TrainingTypeRepository {
	return &mongoTrainingTypeRepository{
		collection: db.Collection(trainingTypeCollectionName),
	}
}

// Create inserts a new training type into the database.
func (r *mongoTrainingTypeRepository) Create(ctx context.Context, tt *domain.TrainingType) (primitive.ObjectID, error) {
	if tt.Name == "" {
		return primitive.NilObjectID, errors.New("training type name is required")
	}

	tt.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	tt.CreatedAt = now
	tt.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, tt)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a training type by its ID.
func (r *mongoTrainingTypeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingType, error) {
	var tt domain.TrainingType
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&tt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tt, nil
}

// GetAll retrieves every training type, sorted by name.
func (r *mongoTrainingTypeRepository) GetAll(ctx context.Context) ([]domain.TrainingType, error) {
	var types []domain.TrainingType

	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &types); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return types, nil
}

// EnsureTrainingTypeIndexes creates necessary indexes for the training types collection.
func EnsureTrainingTypeIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
