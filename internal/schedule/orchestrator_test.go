package schedule

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/training-calendar/internal/domain"
)

// fakeBackend records persistence calls and can fail selected students.
type fakeBackend struct {
	mu sync.Mutex

	moveTemplateCalls   int
	moveTrainingCalls   int
	createTemplateCalls int
	createTrainingCalls int
	addedStudents       []primitive.ObjectID
	failStudents        map[primitive.ObjectID]error
	moveErr             error
	createErr           error
	lastMoveDay         int
	lastMoveDate        string
	lastMoveTime        string
	blockUntil          chan struct{} // When set, MoveRealTraining blocks until closed
	createdTemplateID   primitive.ObjectID
	createdTrainingID   primitive.ObjectID
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		failStudents:      make(map[primitive.ObjectID]error),
		createdTemplateID: primitive.NewObjectID(),
		createdTrainingID: primitive.NewObjectID(),
	}
}

func (f *fakeBackend) MoveTemplate(ctx context.Context, id primitive.ObjectID, dayNumber int, startTime string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moveTemplateCalls++
	f.lastMoveDay = dayNumber
	f.lastMoveTime = startTime
	return f.moveErr
}

func (f *fakeBackend) MoveRealTraining(ctx context.Context, id primitive.ObjectID, date, startTime string) error {
	if f.blockUntil != nil {
		select {
		case <-f.blockUntil:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moveTrainingCalls++
	f.lastMoveDate = date
	f.lastMoveTime = startTime
	return f.moveErr
}

func (f *fakeBackend) CreateTemplate(ctx context.Context, t *domain.TrainingTemplate) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createTemplateCalls++
	if f.createErr != nil {
		return primitive.NilObjectID, f.createErr
	}
	return f.createdTemplateID, nil
}

func (f *fakeBackend) CreateRealTraining(ctx context.Context, t *domain.RealTraining) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createTrainingCalls++
	if f.createErr != nil {
		return primitive.NilObjectID, f.createErr
	}
	return f.createdTrainingID, nil
}

func (f *fakeBackend) AddStudentToTemplate(ctx context.Context, templateID, studentID primitive.ObjectID, startDate string) error {
	return f.addStudent(studentID)
}

func (f *fakeBackend) AddStudentToRealTraining(ctx context.Context, trainingID, studentID primitive.ObjectID) error {
	return f.addStudent(studentID)
}

func (f *fakeBackend) addStudent(studentID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failStudents[studentID]; ok {
		return err
	}
	f.addedStudents = append(f.addedStudents, studentID)
	return nil
}

func (f *fakeBackend) mutationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moveTemplateCalls + f.moveTrainingCalls + f.createTemplateCalls + f.createTrainingCalls + len(f.addedStudents)
}

// fakeInvalidator records invalidated weeks.
type fakeInvalidator struct {
	mu    sync.Mutex
	dates []string
}

func (f *fakeInvalidator) InvalidateWeek(date string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dates = append(f.dates, date)
}

func futureTraining(students ...domain.RealTrainingStudent) *domain.RealTraining {
	return &domain.RealTraining{
		ID:           primitive.NewObjectID(),
		TrainingDate: "2026-03-05",
		StartTime:    "10:00:00",
		TrainerID:    primitive.NewObjectID(),
		Status:       domain.TrainingPlanned,
		Students:     students,
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
}

func TestHandleDrop_SameSlotIsNoOp(t *testing.T) {
	backend := newFakeBackend()
	o := NewOrchestrator(backend, nil, 0)
	o.now = fixedNow

	out, err := o.HandleDrop(context.Background(), DropRequest{
		Event:      futureTraining(),
		SourceDate: "2026-03-05",
		SourceTime: "10:00:00",
		TargetDate: "2026-03-05",
		TargetTime: "10:00",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.NoOp {
		t.Error("expected no-op outcome")
	}
	if backend.mutationCount() != 0 {
		t.Error("expected no persistence calls for same-slot drop")
	}
}

func TestHandleDrop_MoveTraining(t *testing.T) {
	backend := newFakeBackend()
	inv := &fakeInvalidator{}
	o := NewOrchestrator(backend, inv, 0)
	o.now = fixedNow

	out, err := o.HandleDrop(context.Background(), DropRequest{
		Event:      futureTraining(),
		SourceDate: "2026-03-05",
		SourceTime: "10:00",
		TargetDate: "2026-03-06",
		TargetTime: "11:00",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Moved {
		t.Error("expected moved outcome")
	}
	if backend.moveTrainingCalls != 1 {
		t.Errorf("expected exactly one move call, got %d", backend.moveTrainingCalls)
	}
	if backend.createTrainingCalls != 0 || backend.createTemplateCalls != 0 {
		t.Error("move must not create events")
	}
	if backend.lastMoveDate != "2026-03-06" || backend.lastMoveTime != "11:00" {
		t.Errorf("moved to wrong slot: %s %s", backend.lastMoveDate, backend.lastMoveTime)
	}
	if len(inv.dates) != 2 {
		t.Errorf("expected target and source weeks invalidated, got %v", inv.dates)
	}
}

func TestHandleDrop_MoveTemplateUsesTargetDayNumber(t *testing.T) {
	backend := newFakeBackend()
	o := NewOrchestrator(backend, nil, 0)
	o.now = fixedNow

	tpl := &domain.TrainingTemplate{
		ID:        primitive.NewObjectID(),
		DayNumber: 2,
		StartTime: "09:00:00",
		TrainerID: primitive.NewObjectID(),
	}

	// Friday March 6th.
	_, err := o.HandleDrop(context.Background(), DropRequest{
		Event:      tpl,
		SourceDate: "2026-03-03",
		SourceTime: "09:00",
		TargetDate: "2026-03-06",
		TargetTime: "10:00",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.moveTemplateCalls != 1 {
		t.Fatalf("expected one template move, got %d", backend.moveTemplateCalls)
	}
	if backend.lastMoveDay != 5 {
		t.Errorf("expected day number 5, got %d", backend.lastMoveDay)
	}
	if backend.lastMoveTime != "10:00" {
		t.Errorf("expected start time 10:00, got %s", backend.lastMoveTime)
	}
}

func TestHandleDrop_TrainerConflictAbortsBeforeMutation(t *testing.T) {
	backend := newFakeBackend()
	trainerID := primitive.NewObjectID()

	dragged := futureTraining()
	dragged.TrainerID = trainerID
	occupant := futureTraining()
	occupant.TrainerID = trainerID

	for _, duplicate := range []bool{false, true} {
		o := NewOrchestrator(backend, nil, 0)
		o.now = fixedNow

		_, err := o.HandleDrop(context.Background(), DropRequest{
			Event:           dragged,
			SourceDate:      "2026-03-05",
			SourceTime:      "10:00",
			TargetDate:      "2026-03-06",
			TargetTime:      "11:00",
			TargetOccupants: []domain.CalendarEvent{occupant},
			IsDuplicate:     duplicate,
		}, nil)
		if !errors.Is(err, ErrTrainerConflict) {
			t.Errorf("duplicate=%v: expected ErrTrainerConflict, got %v", duplicate, err)
		}
	}
	if backend.mutationCount() != 0 {
		t.Error("conflict must abort before any mutation")
	}
}

func TestHandleDrop_SelfOccupancyIsNotAConflict(t *testing.T) {
	backend := newFakeBackend()
	o := NewOrchestrator(backend, nil, 0)
	o.now = fixedNow

	dragged := futureTraining()

	// The dragged event itself showing up among the target occupants (stale
	// grid data) must not count as a conflict.
	_, err := o.HandleDrop(context.Background(), DropRequest{
		Event:           dragged,
		SourceDate:      "2026-03-05",
		SourceTime:      "10:00",
		TargetDate:      "2026-03-06",
		TargetTime:      "11:00",
		TargetOccupants: []domain.CalendarEvent{dragged},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.moveTrainingCalls != 1 {
		t.Errorf("expected move to proceed, got %d calls", backend.moveTrainingCalls)
	}
}

func TestHandleDrop_ImmutableTrainingRejected(t *testing.T) {
	backend := newFakeBackend()
	o := NewOrchestrator(backend, nil, 0)
	o.now = fixedNow

	cancelled := futureTraining()
	cancelled.Status = domain.TrainingCancelledByCoach

	_, err := o.HandleDrop(context.Background(), DropRequest{
		Event:      cancelled,
		SourceDate: "2026-03-05",
		SourceTime: "10:00",
		TargetDate: "2026-03-06",
		TargetTime: "11:00",
	}, nil)
	if !errors.Is(err, ErrTrainingImmutable) {
		t.Fatalf("expected ErrTrainingImmutable, got %v", err)
	}
	if backend.mutationCount() != 0 {
		t.Error("expected no mutation for an immutable training")
	}
}

func TestHandleDrop_Reentrancy(t *testing.T) {
	backend := newFakeBackend()
	backend.blockUntil = make(chan struct{})
	o := NewOrchestrator(backend, nil, 0)
	o.now = fixedNow

	req := DropRequest{
		Event:      futureTraining(),
		SourceDate: "2026-03-05",
		SourceTime: "10:00",
		TargetDate: "2026-03-06",
		TargetTime: "11:00",
	}

	firstDone := make(chan error, 1)
	go func() {
		_, err := o.HandleDrop(context.Background(), req, nil)
		firstDone <- err
	}()

	// Wait until the first drop holds the in-flight flag.
	deadline := time.Now().Add(time.Second)
	for !o.inFlight.Load() {
		if time.Now().After(deadline) {
			t.Fatal("first drop never took the in-flight flag")
		}
		time.Sleep(time.Millisecond)
	}

	_, err := o.HandleDrop(context.Background(), req, nil)
	if !errors.Is(err, ErrDropInFlight) {
		t.Errorf("expected ErrDropInFlight for concurrent drop, got %v", err)
	}

	close(backend.blockUntil)
	if err := <-firstDone; err != nil {
		t.Errorf("first drop failed: %v", err)
	}

	// The flag is released; a fresh drop goes through.
	if _, err := o.HandleDrop(context.Background(), req, nil); err != nil {
		t.Errorf("drop after release failed: %v", err)
	}
}

func TestHandleDrop_DuplicateCopiesStudents(t *testing.T) {
	students := []domain.RealTrainingStudent{
		{StudentID: primitive.NewObjectID(), Status: domain.AttendanceRegistered},
		{StudentID: primitive.NewObjectID(), Status: domain.AttendanceRegistered},
		{StudentID: primitive.NewObjectID(), Status: domain.AttendanceRegistered},
	}
	backend := newFakeBackend()
	o := NewOrchestrator(backend, nil, 0)
	o.now = fixedNow

	out, err := o.HandleDrop(context.Background(), DropRequest{
		Event:       futureTraining(students...),
		SourceDate:  "2026-03-05",
		SourceTime:  "10:00",
		TargetDate:  "2026-03-06",
		TargetTime:  "11:00",
		IsDuplicate: true,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Duplicated {
		t.Error("expected duplicated outcome")
	}
	if backend.createTrainingCalls != 1 {
		t.Errorf("expected one create, got %d", backend.createTrainingCalls)
	}
	if backend.moveTrainingCalls != 0 {
		t.Error("duplicate must not move the original")
	}
	if out.StudentsCopied != 3 || out.StudentsFailed != 0 {
		t.Errorf("expected 3/0 students, got %d/%d", out.StudentsCopied, out.StudentsFailed)
	}
	if out.NewEventID != backend.createdTrainingID {
		t.Error("outcome carries wrong new event ID")
	}
	if out.Message != "Event duplicated, 3 students copied." {
		t.Errorf("unexpected message %q", out.Message)
	}
}

func TestHandleDrop_DuplicatePartialStudentFailureIsStillSuccess(t *testing.T) {
	students := []domain.RealTrainingStudent{
		{StudentID: primitive.NewObjectID(), Status: domain.AttendanceRegistered},
		{StudentID: primitive.NewObjectID(), Status: domain.AttendanceRegistered},
		{StudentID: primitive.NewObjectID(), Status: domain.AttendanceRegistered},
	}
	backend := newFakeBackend()
	backend.failStudents[students[1].StudentID] = errors.New("student already booked")

	o := NewOrchestrator(backend, nil, 0)
	o.now = fixedNow

	out, err := o.HandleDrop(context.Background(), DropRequest{
		Event:       futureTraining(students...),
		SourceDate:  "2026-03-05",
		SourceTime:  "10:00",
		TargetDate:  "2026-03-06",
		TargetTime:  "11:00",
		IsDuplicate: true,
	}, nil)
	if err != nil {
		t.Fatalf("partial student failure must not fail the drop: %v", err)
	}
	if out.StudentsCopied != 2 || out.StudentsFailed != 1 {
		t.Errorf("expected 2/1 students, got %d/%d", out.StudentsCopied, out.StudentsFailed)
	}
	if out.Message != "Event duplicated, 2 of 3 students copied." {
		t.Errorf("unexpected message %q", out.Message)
	}
	// No rollback of the created event.
	if backend.createTrainingCalls != 1 {
		t.Errorf("expected the created event to stay, got %d creates", backend.createTrainingCalls)
	}
}

func TestHandleDrop_DuplicateWithoutStudents(t *testing.T) {
	backend := newFakeBackend()
	o := NewOrchestrator(backend, nil, 0)
	o.now = fixedNow

	out, err := o.HandleDrop(context.Background(), DropRequest{
		Event:       futureTraining(),
		SourceDate:  "2026-03-05",
		SourceTime:  "10:00",
		TargetDate:  "2026-03-06",
		TargetTime:  "11:00",
		IsDuplicate: true,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Message != "Event duplicated." {
		t.Errorf("unexpected message %q", out.Message)
	}
}

func TestHandleDrop_CreateFailureAbortsReplication(t *testing.T) {
	students := []domain.RealTrainingStudent{
		{StudentID: primitive.NewObjectID(), Status: domain.AttendanceRegistered},
	}
	backend := newFakeBackend()
	backend.createErr = errors.New("slot taken")

	o := NewOrchestrator(backend, nil, 0)
	o.now = fixedNow

	_, err := o.HandleDrop(context.Background(), DropRequest{
		Event:       futureTraining(students...),
		SourceDate:  "2026-03-05",
		SourceTime:  "10:00",
		TargetDate:  "2026-03-06",
		TargetTime:  "11:00",
		IsDuplicate: true,
	}, nil)
	if err == nil {
		t.Fatal("expected error when the parent create fails")
	}
	if len(backend.addedStudents) != 0 {
		t.Error("no students may be copied when the parent create fails")
	}
}

func TestHandleDrop_SchedulesModifierReset(t *testing.T) {
	backend := newFakeBackend()
	o := NewOrchestrator(backend, nil, 0)
	o.now = fixedNow

	tracker := NewModifierTracker(DefaultModifierMaxHold)
	tracker.SetPressed(true)

	_, err := o.HandleDrop(context.Background(), DropRequest{
		Event:      futureTraining(),
		SourceDate: "2026-03-05",
		SourceTime: "10:00",
		TargetDate: "2026-03-06",
		TargetTime: "11:00",
	}, tracker)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for tracker.Pressed() {
		if time.Now().After(deadline) {
			t.Fatal("modifier flag not reset after drop")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: ""},
		{
			name:     "detail surfaced verbatim",
			err:      &DetailError{Detail: "Trainer already booked at 10:00", Err: errors.New("conflict")},
			expected: "Trainer already booked at 10:00",
		},
		{
			name:     "timeout gets generic text",
			err:      context.DeadlineExceeded,
			expected: "The operation timed out. Please try again.",
		},
		{
			name:     "plain error text",
			err:      ErrTrainerConflict,
			expected: ErrTrainerConflict.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestUserMessage_WrappedTimeout(t *testing.T) {
	wrapped := &DetailError{Err: context.DeadlineExceeded}
	got := UserMessage(wrapped)
	if !strings.Contains(got, "timed out") {
		t.Errorf("expected timeout message, got %q", got)
	}
}
