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

const templateCollectionName = "training_templates"

// mongoTemplateRepository implements repository.TemplateRepository
type mongoTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoTemplateRepository creates a new template repository backed by MongoDB.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		collection: db.Collection(templateCollectionName),
	}
}

// Create inserts a new recurring template into the database.
func (r *mongoTemplateRepository) Create(ctx context.Context, tpl *domain.TrainingTemplate) (primitive.ObjectID, error) {
	if tpl.DayNumber < 1 || tpl.DayNumber > 7 {
		return primitive.NilObjectID, errors.New("template day number must be between 1 and 7")
	}
	if tpl.StartTime == "" || tpl.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("template start time and trainer ID are required")
	}

	tpl.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, tpl)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a template by its ID.
func (r *mongoTemplateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingTemplate, error) {
	var tpl domain.TrainingTemplate
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&tpl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

// GetAll retrieves every recurring template, sorted by weekday and start time.
// Templates are week-independent, so the full list backs any displayed week.
func (r *mongoTemplateRepository) GetAll(ctx context.Context) ([]domain.TrainingTemplate, error) {
	var templates []domain.TrainingTemplate

	findOptions := options.Find().SetSort(bson.D{
		{Key: "dayNumber", Value: 1},
		{Key: "startTime", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}

// Move re-slots a template to a new weekday and start time. Assigned
// students travel with the template untouched.
func (r *mongoTemplateRepository) Move(ctx context.Context, id primitive.ObjectID, dayNumber int, startTime string) error {
	if dayNumber < 1 || dayNumber > 7 {
		return errors.New("template day number must be between 1 and 7")
	}

	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"dayNumber": dayNumber,
			"startTime": domain.NormalizeTime(startTime),
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AddStudent appends a student link to the template's assigned list.
// $addToSet is not usable here because the link carries its own _id, so the
// duplicate check is done by filter instead.
func (r *mongoTemplateRepository) AddStudent(ctx context.Context, templateID primitive.ObjectID, student domain.TemplateStudent) error {
	if student.StudentID == primitive.NilObjectID {
		return errors.New("student ID is required")
	}
	if student.ID == primitive.NilObjectID {
		student.ID = primitive.NewObjectID()
	}

	filter := bson.M{
		"_id":                        templateID,
		"assignedStudents.studentId": bson.M{"$ne": student.StudentID},
	}
	update := bson.M{
		"$push": bson.M{"assignedStudents": student},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Template missing, or the student is already assigned.
		return repository.ErrUpdateFailed
	}

	return nil
}

// EnsureTemplateIndexes creates necessary indexes for the templates collection.
func EnsureTemplateIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Index for slotting templates into the weekly grid.
			Keys:    bson.D{{Key: "dayNumber", Value: 1}, {Key: "startTime", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
