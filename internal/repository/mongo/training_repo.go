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

const trainingCollectionName = "real_trainings"

// mongoTrainingRepository implements repository.TrainingRepository
type mongoTrainingRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainingRepository creates a new real-training repository backed by MongoDB.
func NewMongoTrainingRepository(db *mongo.Database) repository.TrainingRepository {
	return &mongoTrainingRepository{
		collection: db.Collection(trainingCollectionName),
	}
}

// Create inserts a new real training into the database.
func (r *mongoTrainingRepository) Create(ctx context.Context, t *domain.RealTraining) (primitive.ObjectID, error) {
	if t.TrainingDate == "" || t.StartTime == "" || t.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("training date, start time, and trainer ID are required")
	}
	if t.Status == "" {
		t.Status = domain.TrainingPlanned
	}

	t.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, t)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a real training by its ID.
func (r *mongoTrainingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.RealTraining, error) {
	var t domain.RealTraining
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetByDateRange retrieves trainings with from <= trainingDate <= to.
// Dates are YYYY-MM-DD strings, so lexicographic comparison is correct.
func (r *mongoTrainingRepository) GetByDateRange(ctx context.Context, from, to string) ([]domain.RealTraining, error) {
	var trainings []domain.RealTraining
	filter := bson.M{"trainingDate": bson.M{"$gte": from, "$lte": to}}

	findOptions := options.Find().SetSort(bson.D{
		{Key: "trainingDate", Value: 1},
		{Key: "startTime", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &trainings); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return trainings, nil
}

// Move re-dates a training. Attendance records travel with it untouched.
func (r *mongoTrainingRepository) Move(ctx context.Context, id primitive.ObjectID, date, startTime string) error {
	if date == "" || startTime == "" {
		return errors.New("training date and start time are required")
	}

	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"trainingDate": date,
			"startTime":    domain.NormalizeTime(startTime),
			"updatedAt":    time.Now().UTC(),
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

// SetStatus updates the training's lifecycle status.
func (r *mongoTrainingRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status domain.TrainingStatus) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"status":    status,
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

// AddStudent appends an attendance record, refusing a second record for the
// same student.
func (r *mongoTrainingRepository) AddStudent(ctx context.Context, trainingID primitive.ObjectID, student domain.RealTrainingStudent) error {
	if student.StudentID == primitive.NilObjectID {
		return errors.New("student ID is required")
	}
	if student.ID == primitive.NilObjectID {
		student.ID = primitive.NewObjectID()
	}
	if student.Status == "" {
		student.Status = domain.AttendanceRegistered
	}
	student.UpdatedAt = time.Now().UTC()

	filter := bson.M{
		"_id":                trainingID,
		"students.studentId": bson.M{"$ne": student.StudentID},
	}
	update := bson.M{
		"$push": bson.M{"students": student},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Training missing, or the student already has a record.
		return repository.ErrUpdateFailed
	}

	return nil
}

// UpdateStudentStatus sets the attendance status (and optional cancellation
// details) of one embedded student record, via the positional operator.
func (r *mongoTrainingRepository) UpdateStudentStatus(ctx context.Context, trainingID, studentID primitive.ObjectID, status domain.AttendanceStatus, reason string, notifiedAt *time.Time) error {
	filter := bson.M{
		"_id":                trainingID,
		"students.studentId": studentID,
	}

	set := bson.M{
		"students.$.status":    status,
		"students.$.updatedAt": time.Now().UTC(),
		"updatedAt":            time.Now().UTC(),
	}
	if reason != "" {
		set["students.$.cancellationReason"] = reason
	}
	if notifiedAt != nil {
		set["students.$.notifiedAt"] = notifiedAt.UTC()
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// EnsureTrainingIndexes creates necessary indexes for the trainings collection.
func EnsureTrainingIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Index for the week-view date range query.
			Keys:    bson.D{{Key: "trainingDate", Value: 1}, {Key: "startTime", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "trainingDate", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
