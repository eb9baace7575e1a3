package service

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/training-calendar/internal/cache"
	"alcyxob/training-calendar/internal/domain"
	"alcyxob/training-calendar/internal/repository"
	"alcyxob/training-calendar/internal/schedule"
)

// --- Error Definitions ---
var (
	ErrTrainerNotFound      = errors.New("trainer user not found")
	ErrNotTrainer           = errors.New("user found but is not a trainer")
	ErrStudentNotFound      = errors.New("student user not found")
	ErrNotStudent           = errors.New("user found but is not a student")
	ErrTrainingTypeNotFound = errors.New("training type not found")
	ErrTemplateNotFound     = errors.New("training template not found")
	ErrTrainingNotFound     = errors.New("training not found")
	ErrTrainingFull         = errors.New("training has no free places")
	ErrTrainingImmutable    = errors.New("past or cancelled trainings cannot be modified")
	ErrStudentAlreadyAdded  = errors.New("student is already assigned to this training")
	ErrInvalidDayNumber     = errors.New("day number must be between 1 and 7")
)

// --- Service Interface ---

// CalendarService owns templates, real trainings and their placement on the
// weekly grid. Its Move/Create/AddStudent methods double as the persistence
// backend of the drop orchestrator.
type CalendarService interface {
	// Week view
	WeekEvents(ctx context.Context, weekStart time.Time) ([]domain.CalendarEvent, error)
	GetTemplate(ctx context.Context, id primitive.ObjectID) (*domain.TrainingTemplate, error)
	GetRealTraining(ctx context.Context, id primitive.ObjectID) (*domain.RealTraining, error)
	GetTrainingTypes(ctx context.Context) ([]domain.TrainingType, error)
	CreateTrainingType(ctx context.Context, tt *domain.TrainingType) (primitive.ObjectID, error)

	// Persistence contract used by the drop orchestrator
	CreateTemplate(ctx context.Context, tpl *domain.TrainingTemplate) (primitive.ObjectID, error)
	CreateRealTraining(ctx context.Context, t *domain.RealTraining) (primitive.ObjectID, error)
	MoveTemplate(ctx context.Context, id primitive.ObjectID, dayNumber int, startTime string) error
	MoveRealTraining(ctx context.Context, id primitive.ObjectID, date, startTime string) error
	AddStudentToTemplate(ctx context.Context, templateID, studentID primitive.ObjectID, startDate string) error
	AddStudentToRealTraining(ctx context.Context, trainingID, studentID primitive.ObjectID) error

	// Cache control
	InvalidateWeek(date string)
}

// --- Service Implementation ---

// calendarService implements the CalendarService interface.
type calendarService struct {
	templateRepo repository.TemplateRepository
	trainingRepo repository.TrainingRepository
	typeRepo     repository.TrainingTypeRepository
	userRepo     repository.UserRepository
	cache        *cache.Cache
	cacheTTL     time.Duration

	now func() time.Time
}

// NewCalendarService creates a new instance of calendarService.
func NewCalendarService(
	templateRepo repository.TemplateRepository,
	trainingRepo repository.TrainingRepository,
	typeRepo repository.TrainingTypeRepository,
	userRepo repository.UserRepository,
	eventCache *cache.Cache,
	cacheTTL time.Duration,
) CalendarService {
	return &calendarService{
		templateRepo: templateRepo,
		trainingRepo: trainingRepo,
		typeRepo:     typeRepo,
		userRepo:     userRepo,
		cache:        eventCache,
		cacheTTL:     cacheTTL,
		now:          time.Now,
	}
}

// === Week View ===

func weekCacheKey(weekStart string) string {
	return "week:" + weekStart
}

// WeekEvents returns the combined event list for the week starting at
// weekStart: every recurring template plus the real trainings dated within
// the week. Results are cached per week and dropped after mutations.
func (s *calendarService) WeekEvents(ctx context.Context, weekStart time.Time) ([]domain.CalendarEvent, error) {
	weekStart = schedule.WeekStart(weekStart)
	key := weekCacheKey(weekStart.Format(domain.DateLayout))

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if events, ok := cached.([]domain.CalendarEvent); ok {
				return events, nil
			}
		}
	}

	templates, err := s.templateRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	from := weekStart.Format(domain.DateLayout)
	to := weekStart.AddDate(0, 0, 6).Format(domain.DateLayout)
	trainings, err := s.trainingRepo.GetByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	events := make([]domain.CalendarEvent, 0, len(templates)+len(trainings))
	for i := range templates {
		events = append(events, &templates[i])
	}
	for i := range trainings {
		events = append(events, &trainings[i])
	}

	if s.cache != nil {
		s.cache.Set(key, events, s.cacheTTL)
	}
	return events, nil
}

// InvalidateWeek drops the cached event list of the week containing the
// given date. Unparseable dates flush the whole cache rather than leave a
// stale week behind.
func (s *calendarService) InvalidateWeek(date string) {
	if s.cache == nil {
		return
	}
	d, err := schedule.ParseDate(date)
	if err != nil {
		log.Printf("WARN: invalidating full event cache, bad date %q: %v", date, err)
		s.cache.Flush()
		return
	}
	s.cache.Delete(weekCacheKey(schedule.WeekStart(d).Format(domain.DateLayout)))
}

func (s *calendarService) GetTemplate(ctx context.Context, id primitive.ObjectID) (*domain.TrainingTemplate, error) {
	tpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return tpl, nil
}

func (s *calendarService) GetRealTraining(ctx context.Context, id primitive.ObjectID) (*domain.RealTraining, error) {
	t, err := s.trainingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainingNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *calendarService) GetTrainingTypes(ctx context.Context) ([]domain.TrainingType, error) {
	return s.typeRepo.GetAll(ctx)
}

func (s *calendarService) CreateTrainingType(ctx context.Context, tt *domain.TrainingType) (primitive.ObjectID, error) {
	return s.typeRepo.Create(ctx, tt)
}

// === Event Creation ===

// CreateTemplate validates references and inserts a recurring template.
func (s *calendarService) CreateTemplate(ctx context.Context, tpl *domain.TrainingTemplate) (primitive.ObjectID, error) {
	if tpl.DayNumber < 1 || tpl.DayNumber > 7 {
		return primitive.NilObjectID, ErrInvalidDayNumber
	}
	if err := s.verifyTrainer(ctx, tpl.TrainerID); err != nil {
		return primitive.NilObjectID, err
	}
	if err := s.resolveTypeRef(ctx, &tpl.TrainingType); err != nil {
		return primitive.NilObjectID, err
	}

	id, err := s.templateRepo.Create(ctx, tpl)
	if err != nil {
		return primitive.NilObjectID, err
	}

	// Templates are re-projected onto every displayed week.
	if s.cache != nil {
		s.cache.Flush()
	}
	return id, nil
}

// CreateRealTraining validates references and inserts a dated training.
func (s *calendarService) CreateRealTraining(ctx context.Context, t *domain.RealTraining) (primitive.ObjectID, error) {
	if _, err := schedule.ParseDate(t.TrainingDate); err != nil {
		return primitive.NilObjectID, err
	}
	if err := s.verifyTrainer(ctx, t.TrainerID); err != nil {
		return primitive.NilObjectID, err
	}
	if err := s.resolveTypeRef(ctx, &t.TrainingType); err != nil {
		return primitive.NilObjectID, err
	}

	id, err := s.trainingRepo.Create(ctx, t)
	if err != nil {
		return primitive.NilObjectID, err
	}

	s.InvalidateWeek(t.TrainingDate)
	return id, nil
}

// === Moves ===

// MoveTemplate re-slots a recurring template.
func (s *calendarService) MoveTemplate(ctx context.Context, id primitive.ObjectID, dayNumber int, startTime string) error {
	if dayNumber < 1 || dayNumber > 7 {
		return ErrInvalidDayNumber
	}

	err := s.templateRepo.Move(ctx, id, dayNumber, startTime)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}

	if s.cache != nil {
		s.cache.Flush()
	}
	return nil
}

// MoveRealTraining re-dates a training. Past and cancelled trainings are
// immutable; this is the authoritative check behind the orchestrator's
// client-side gate.
func (s *calendarService) MoveRealTraining(ctx context.Context, id primitive.ObjectID, date, startTime string) error {
	t, err := s.GetRealTraining(ctx, id)
	if err != nil {
		return err
	}
	if !schedule.CanModifyTraining(t, s.now()) {
		return ErrTrainingImmutable
	}
	if _, err := schedule.ParseDate(date); err != nil {
		return err
	}

	oldDate := t.TrainingDate
	if err := s.trainingRepo.Move(ctx, id, date, startTime); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTrainingNotFound
		}
		return err
	}

	s.InvalidateWeek(oldDate)
	s.InvalidateWeek(date)
	return nil
}

// === Student Assignment ===

// AddStudentToTemplate links a student to a recurring slot, starting from
// the given date.
func (s *calendarService) AddStudentToTemplate(ctx context.Context, templateID, studentID primitive.ObjectID, startDate string) error {
	if err := s.verifyStudent(ctx, studentID); err != nil {
		return err
	}

	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return err
	}

	capacity := schedule.CalculateCapacity(len(tpl.AssignedStudents), tpl.TrainingType.MaxParticipants)
	if capacity.IsFull {
		return ErrTrainingFull
	}

	if startDate == "" {
		startDate = s.now().UTC().Format(domain.DateLayout)
	} else if _, err := schedule.ParseDate(startDate); err != nil {
		return err
	}

	err = s.templateRepo.AddStudent(ctx, templateID, domain.TemplateStudent{
		StudentID: studentID,
		StartDate: startDate,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			return ErrStudentAlreadyAdded
		}
		return err
	}

	if s.cache != nil {
		s.cache.Flush()
	}
	return nil
}

// AddStudentToRealTraining registers a student on a dated training.
func (s *calendarService) AddStudentToRealTraining(ctx context.Context, trainingID, studentID primitive.ObjectID) error {
	if err := s.verifyStudent(ctx, studentID); err != nil {
		return err
	}

	t, err := s.GetRealTraining(ctx, trainingID)
	if err != nil {
		return err
	}
	if !schedule.CanModifyTraining(t, s.now()) {
		return ErrTrainingImmutable
	}

	capacity := schedule.CalculateCapacity(t.ActiveStudentCount(), t.TrainingType.MaxParticipants)
	if capacity.IsFull {
		return ErrTrainingFull
	}

	err = s.trainingRepo.AddStudent(ctx, trainingID, domain.RealTrainingStudent{
		StudentID: studentID,
		Status:    domain.AttendanceRegistered,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			return ErrStudentAlreadyAdded
		}
		return err
	}

	s.InvalidateWeek(t.TrainingDate)
	return nil
}

// === Helpers ===

func (s *calendarService) verifyTrainer(ctx context.Context, trainerID primitive.ObjectID) error {
	if trainerID == primitive.NilObjectID {
		return ErrTrainerNotFound
	}
	user, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTrainerNotFound
		}
		return err
	}
	if !user.IsTrainer() {
		return ErrNotTrainer
	}
	return nil
}

func (s *calendarService) verifyStudent(ctx context.Context, studentID primitive.ObjectID) error {
	if studentID == primitive.NilObjectID {
		return ErrStudentNotFound
	}
	user, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStudentNotFound
		}
		return err
	}
	if !user.IsStudent() {
		return ErrNotStudent
	}
	return nil
}

// resolveTypeRef fills the embedded type snapshot from the referenced
// training type, so events always carry current name/color/capacity.
func (s *calendarService) resolveTypeRef(ctx context.Context, ref *domain.TrainingTypeRef) error {
	if ref.ID == primitive.NilObjectID {
		return ErrTrainingTypeNotFound
	}
	tt, err := s.typeRepo.GetByID(ctx, ref.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTrainingTypeNotFound
		}
		return err
	}
	*ref = tt.Ref()
	return nil
}
