package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/training-calendar/internal/domain"
	"alcyxob/training-calendar/internal/repository"
)

// In-memory repository fakes shared by the service tests. They implement
// just enough of the repository contracts, including the duplicate-student
// rejection the mongo layer expresses as ErrUpdateFailed.

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) add(role domain.Role) primitive.ObjectID {
	id := primitive.NewObjectID()
	r.users[id] = &domain.User{ID: id, Name: string(role), Email: id.Hex() + "@example.com", Role: role}
	return id
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := *user
	stored.ID = id
	r.users[id] = &stored
	return id, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeTypeRepo struct {
	types map[primitive.ObjectID]*domain.TrainingType
}

func newFakeTypeRepo() *fakeTypeRepo {
	return &fakeTypeRepo{types: make(map[primitive.ObjectID]*domain.TrainingType)}
}

func (r *fakeTypeRepo) add(name string, maxParticipants int) primitive.ObjectID {
	id := primitive.NewObjectID()
	r.types[id] = &domain.TrainingType{ID: id, Name: name, MaxParticipants: maxParticipants}
	return id
}

func (r *fakeTypeRepo) Create(ctx context.Context, tt *domain.TrainingType) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	tt.ID = id
	r.types[id] = tt
	return id, nil
}

func (r *fakeTypeRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingType, error) {
	tt, ok := r.types[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return tt, nil
}

func (r *fakeTypeRepo) GetAll(ctx context.Context) ([]domain.TrainingType, error) {
	var out []domain.TrainingType
	for _, tt := range r.types {
		out = append(out, *tt)
	}
	return out, nil
}

type fakeTemplateRepo struct {
	templates map[primitive.ObjectID]*domain.TrainingTemplate
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[primitive.ObjectID]*domain.TrainingTemplate)}
}

func (r *fakeTemplateRepo) Create(ctx context.Context, tpl *domain.TrainingTemplate) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	tpl.ID = id
	r.templates[id] = tpl
	return id, nil
}

func (r *fakeTemplateRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingTemplate, error) {
	tpl, ok := r.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return tpl, nil
}

func (r *fakeTemplateRepo) GetAll(ctx context.Context) ([]domain.TrainingTemplate, error) {
	var out []domain.TrainingTemplate
	for _, tpl := range r.templates {
		out = append(out, *tpl)
	}
	return out, nil
}

func (r *fakeTemplateRepo) Move(ctx context.Context, id primitive.ObjectID, dayNumber int, startTime string) error {
	tpl, ok := r.templates[id]
	if !ok {
		return repository.ErrNotFound
	}
	tpl.DayNumber = dayNumber
	tpl.StartTime = domain.NormalizeTime(startTime)
	return nil
}

func (r *fakeTemplateRepo) AddStudent(ctx context.Context, templateID primitive.ObjectID, student domain.TemplateStudent) error {
	tpl, ok := r.templates[templateID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, s := range tpl.AssignedStudents {
		if s.StudentID == student.StudentID {
			return repository.ErrUpdateFailed
		}
	}
	tpl.AssignedStudents = append(tpl.AssignedStudents, student)
	return nil
}

type fakeTrainingRepo struct {
	trainings map[primitive.ObjectID]*domain.RealTraining
}

func newFakeTrainingRepo() *fakeTrainingRepo {
	return &fakeTrainingRepo{trainings: make(map[primitive.ObjectID]*domain.RealTraining)}
}

func (r *fakeTrainingRepo) Create(ctx context.Context, t *domain.RealTraining) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	t.ID = id
	r.trainings[id] = t
	return id, nil
}

func (r *fakeTrainingRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.RealTraining, error) {
	t, ok := r.trainings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Copy, so callers never mutate stored state through the pointer.
	cp := *t
	cp.Students = append([]domain.RealTrainingStudent(nil), t.Students...)
	return &cp, nil
}

func (r *fakeTrainingRepo) GetByDateRange(ctx context.Context, from, to string) ([]domain.RealTraining, error) {
	var out []domain.RealTraining
	for _, t := range r.trainings {
		if t.TrainingDate >= from && t.TrainingDate <= to {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTrainingRepo) Move(ctx context.Context, id primitive.ObjectID, date, startTime string) error {
	t, ok := r.trainings[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.TrainingDate = date
	t.StartTime = domain.NormalizeTime(startTime)
	return nil
}

func (r *fakeTrainingRepo) SetStatus(ctx context.Context, id primitive.ObjectID, status domain.TrainingStatus) error {
	t, ok := r.trainings[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTrainingRepo) AddStudent(ctx context.Context, trainingID primitive.ObjectID, student domain.RealTrainingStudent) error {
	t, ok := r.trainings[trainingID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, s := range t.Students {
		if s.StudentID == student.StudentID {
			return repository.ErrUpdateFailed
		}
	}
	t.Students = append(t.Students, student)
	return nil
}

func (r *fakeTrainingRepo) UpdateStudentStatus(ctx context.Context, trainingID, studentID primitive.ObjectID, status domain.AttendanceStatus, reason string, notifiedAt *time.Time) error {
	t, ok := r.trainings[trainingID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range t.Students {
		if t.Students[i].StudentID == studentID {
			t.Students[i].Status = status
			t.Students[i].CancellationReason = reason
			t.Students[i].NotifiedAt = notifiedAt
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeExportRepo struct {
	exports []*domain.ScheduleExport
}

func (r *fakeExportRepo) Create(ctx context.Context, e *domain.ScheduleExport) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	e.ID = id
	r.exports = append(r.exports, e)
	return id, nil
}

func (r *fakeExportRepo) GetLatestByWeek(ctx context.Context, weekStart string) (*domain.ScheduleExport, error) {
	for i := len(r.exports) - 1; i >= 0; i-- {
		if r.exports[i].WeekStart == weekStart {
			return r.exports[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

// fakeStorage records uploads and hands out deterministic URLs.
type fakeStorage struct {
	objects map[string][]byte
	putErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) PutObject(ctx context.Context, objectKey string, contentType string, body []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[objectKey] = body
	return nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return "https://storage.local/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(ctx context.Context, objectKey string) error {
	delete(s.objects, objectKey)
	return nil
}
