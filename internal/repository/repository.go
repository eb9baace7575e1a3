package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/training-calendar/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// TrainingTypeRepository defines the interface for interacting with training
// type data.
type TrainingTypeRepository interface {
	Create(ctx context.Context, tt *domain.TrainingType) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingType, error)
	GetAll(ctx context.Context) ([]domain.TrainingType, error)
}

// TemplateRepository defines the interface for interacting with recurring
// training templates.
type TemplateRepository interface {
	Create(ctx context.Context, tpl *domain.TrainingTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingTemplate, error)
	GetAll(ctx context.Context) ([]domain.TrainingTemplate, error)
	// Move re-slots the template; it does not touch assigned students.
	Move(ctx context.Context, id primitive.ObjectID, dayNumber int, startTime string) error
	AddStudent(ctx context.Context, templateID primitive.ObjectID, student domain.TemplateStudent) error
}

// TrainingRepository defines the interface for interacting with real (dated)
// trainings and their embedded attendance records.
type TrainingRepository interface {
	Create(ctx context.Context, t *domain.RealTraining) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.RealTraining, error)
	GetByDateRange(ctx context.Context, from, to string) ([]domain.RealTraining, error)
	Move(ctx context.Context, id primitive.ObjectID, date, startTime string) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status domain.TrainingStatus) error
	AddStudent(ctx context.Context, trainingID primitive.ObjectID, student domain.RealTrainingStudent) error
	UpdateStudentStatus(ctx context.Context, trainingID, studentID primitive.ObjectID, status domain.AttendanceStatus, reason string, notifiedAt *time.Time) error
}

// ExportRepository defines the interface for interacting with weekly export
// metadata.
type ExportRepository interface {
	Create(ctx context.Context, e *domain.ScheduleExport) (primitive.ObjectID, error)
	GetLatestByWeek(ctx context.Context, weekStart string) (*domain.ScheduleExport, error)
}
