package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/training-calendar/internal/domain"
	"alcyxob/training-calendar/internal/repository"
	"alcyxob/training-calendar/internal/schedule"
)

// --- Error Definitions ---
var (
	ErrAttendanceNotFound   = errors.New("student has no attendance record on this training")
	ErrAttendanceTransition = errors.New("attendance status does not allow marking absent")
	ErrAlreadyCancelled     = errors.New("student attendance is already cancelled")
)

// TrainerSalaryResult reports how a student cancellation affects the
// trainer's compensation for the slot.
type TrainerSalaryResult struct {
	Counted bool   `json:"counted"` // Whether the slot still counts toward paid hours
	Reason  string `json:"reason"`
}

// CancellationResult is the outcome of cancelling a student's attendance.
type CancellationResult struct {
	Status        domain.AttendanceStatus `json:"status"` // CANCELLED_SAFE or CANCELLED_PENALTY
	TrainerSalary TrainerSalaryResult     `json:"trainerSalary"`
}

// --- Service Interface ---

// AttendanceService manages attendance records embedded in real trainings.
type AttendanceService interface {
	MarkStudentAbsent(ctx context.Context, trainingID, studentID primitive.ObjectID) (*domain.RealTraining, error)
	CancelStudent(ctx context.Context, trainingID, studentID primitive.ObjectID, reason string, notifiedAt time.Time) (*CancellationResult, error)
}

// --- Service Implementation ---

// attendanceService implements the AttendanceService interface.
type attendanceService struct {
	trainingRepo repository.TrainingRepository
	calendar     CalendarService

	now func() time.Time
}

// NewAttendanceService creates a new instance of attendanceService.
func NewAttendanceService(trainingRepo repository.TrainingRepository, calendar CalendarService) AttendanceService {
	return &attendanceService{
		trainingRepo: trainingRepo,
		calendar:     calendar,
		now:          time.Now,
	}
}

// MarkStudentAbsent transitions a student's attendance to ABSENT. Allowed
// only from REGISTERED or PRESENT, and only while the parent training is
// neither past nor cancelled.
func (s *attendanceService) MarkStudentAbsent(ctx context.Context, trainingID, studentID primitive.ObjectID) (*domain.RealTraining, error) {
	t, err := s.getTraining(ctx, trainingID)
	if err != nil {
		return nil, err
	}
	if !schedule.CanModifyTraining(t, s.now()) {
		return nil, ErrTrainingImmutable
	}

	record := t.Student(studentID)
	if record == nil {
		return nil, ErrAttendanceNotFound
	}
	if !record.CanBeMarkedAbsent() {
		return nil, ErrAttendanceTransition
	}

	err = s.trainingRepo.UpdateStudentStatus(ctx, trainingID, studentID, domain.AttendanceAbsent, "", nil)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAttendanceNotFound
		}
		return nil, err
	}

	s.calendar.InvalidateWeek(t.TrainingDate)
	return s.getTraining(ctx, trainingID)
}

// CancelStudent cancels a student's attendance. Notifications at least the
// safe window before the training start are safe; later ones are flagged as
// penalty and the slot still counts toward the trainer's paid hours.
func (s *attendanceService) CancelStudent(ctx context.Context, trainingID, studentID primitive.ObjectID, reason string, notifiedAt time.Time) (*CancellationResult, error) {
	t, err := s.getTraining(ctx, trainingID)
	if err != nil {
		return nil, err
	}
	if !schedule.CanModifyTraining(t, s.now()) {
		return nil, ErrTrainingImmutable
	}

	record := t.Student(studentID)
	if record == nil {
		return nil, ErrAttendanceNotFound
	}
	switch record.Status {
	case domain.AttendanceCancelledSafe, domain.AttendanceCancelledPenalty:
		return nil, ErrAlreadyCancelled
	}

	start, err := t.StartsAt()
	if err != nil {
		return nil, err
	}
	if notifiedAt.IsZero() {
		notifiedAt = s.now()
	}

	status := schedule.CancellationStatus(start, notifiedAt)
	err = s.trainingRepo.UpdateStudentStatus(ctx, trainingID, studentID, status, reason, &notifiedAt)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAttendanceNotFound
		}
		return nil, err
	}

	s.calendar.InvalidateWeek(t.TrainingDate)

	result := &CancellationResult{Status: status}
	if status == domain.AttendanceCancelledPenalty {
		result.TrainerSalary = TrainerSalaryResult{
			Counted: true,
			Reason:  "cancellation inside the penalty window",
		}
	} else {
		result.TrainerSalary = TrainerSalaryResult{
			Counted: false,
			Reason:  "cancellation before the safe cutoff",
		}
	}
	return result, nil
}

func (s *attendanceService) getTraining(ctx context.Context, trainingID primitive.ObjectID) (*domain.RealTraining, error) {
	t, err := s.trainingRepo.GetByID(ctx, trainingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainingNotFound
		}
		return nil, err
	}
	return t, nil
}
