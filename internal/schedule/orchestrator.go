package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/training-calendar/internal/domain"
)

// --- Error Definitions ---
var (
	ErrDropInFlight      = errors.New("a previous drop operation is still in progress")
	ErrTrainerConflict   = errors.New("the trainer already has a training in the target slot")
	ErrTrainingImmutable = errors.New("past or cancelled trainings cannot be modified")
	ErrUnknownEventKind  = errors.New("event is neither a template nor a real training")
)

// DetailError carries a server-supplied detail message suitable for showing
// to the user verbatim.
type DetailError struct {
	Detail string
	Err    error
}

func (e *DetailError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Err.Error()
}

func (e *DetailError) Unwrap() error { return e.Err }

// UserMessage converts an orchestration failure into the single user-facing
// notification shown for it: the upstream detail verbatim when present, the
// error text otherwise, and a generic message for timeouts.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var de *DetailError
	if errors.As(err, &de) && de.Detail != "" {
		return de.Detail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The operation timed out. Please try again."
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Could not complete the operation."
}

// CalendarBackend is what the orchestrator needs from the persistence layer.
type CalendarBackend interface {
	MoveTemplate(ctx context.Context, id primitive.ObjectID, dayNumber int, startTime string) error
	MoveRealTraining(ctx context.Context, id primitive.ObjectID, date, startTime string) error
	CreateTemplate(ctx context.Context, t *domain.TrainingTemplate) (primitive.ObjectID, error)
	CreateRealTraining(ctx context.Context, t *domain.RealTraining) (primitive.ObjectID, error)
	AddStudentToTemplate(ctx context.Context, templateID, studentID primitive.ObjectID, startDate string) error
	AddStudentToRealTraining(ctx context.Context, trainingID, studentID primitive.ObjectID) error
}

// WeekInvalidator drops cached event lists after a mutation so occupancy
// counts reflect the new state on the next fetch.
type WeekInvalidator interface {
	InvalidateWeek(date string)
}

// DropRequest describes a completed drag gesture: the dragged event, its
// source and target slots, the events already occupying the target, and the
// move-vs-duplicate flag snapshotted at drag start.
type DropRequest struct {
	Event           domain.CalendarEvent
	SourceDate      string // YYYY-MM-DD; for templates, the placement in the displayed week
	SourceTime      string // HH:MM
	TargetDate      string
	TargetTime      string
	TargetOccupants []domain.CalendarEvent
	IsDuplicate     bool
}

// ReplicationFailure records one student that could not be copied.
type ReplicationFailure struct {
	StudentID primitive.ObjectID
	Err       error
}

// ReplicationResult is the settled outcome of a student replication fan-out.
// Partial failure is an explicit policy, not an error: the parent event's
// existence is the operation's success criterion.
type ReplicationResult struct {
	Succeeded []primitive.ObjectID
	Failed    []ReplicationFailure
}

// DropOutcome reports what a drop did, plus the user-facing message.
type DropOutcome struct {
	NoOp           bool               `json:"noOp"`
	Moved          bool               `json:"moved"`
	Duplicated     bool               `json:"duplicated"`
	NewEventID     primitive.ObjectID `json:"newEventId,omitempty"`
	StudentsCopied int                `json:"studentsCopied"`
	StudentsFailed int                `json:"studentsFailed"`
	Message        string             `json:"message"`
}

// Orchestrator interprets drop gestures and drives the persistence calls for
// them. A single in-flight flag guards reentrancy: a second drop started
// while one is running is rejected with ErrDropInFlight, not queued.
type Orchestrator struct {
	backend   CalendarBackend
	cache     WeekInvalidator
	opTimeout time.Duration
	inFlight  atomic.Bool

	now func() time.Time
}

// NewOrchestrator creates a drop orchestrator. opTimeout bounds each drop's
// persistence work so a hung call cannot hold the in-flight flag forever;
// non-positive means no timeout.
func NewOrchestrator(backend CalendarBackend, cache WeekInvalidator, opTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		backend:   backend,
		cache:     cache,
		opTimeout: opTimeout,
		now:       time.Now,
	}
}

// HandleDrop validates and executes one drop gesture.
//
//  1. dropping an event onto its own slot is a silent no-op;
//  2. a drop while another is in flight is rejected (ErrDropInFlight);
//  3. a trainer conflict in the target slot aborts before any mutation,
//     regardless of the duplicate flag;
//  4. otherwise the event is moved, or duplicated with best-effort student
//     replication.
//
// Regardless of outcome, a short-delayed reset of the modifier tracker is
// scheduled so duplicate mode cannot stay stuck after the gesture.
func (o *Orchestrator) HandleDrop(ctx context.Context, req DropRequest, tracker *ModifierTracker) (*DropOutcome, error) {
	if tracker != nil {
		defer tracker.ForceResetAfter(ModifierResetDelay)
	}

	if req.Event == nil {
		return nil, ErrUnknownEventKind
	}

	if req.SourceDate == req.TargetDate && domain.ShortTime(req.SourceTime) == domain.ShortTime(req.TargetTime) {
		return &DropOutcome{NoOp: true}, nil
	}

	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrDropInFlight
	}
	defer o.inFlight.Store(false)

	if !CanModifyTraining(req.Event, o.now()) {
		return nil, ErrTrainingImmutable
	}

	if o.hasTrainerConflict(req) {
		return nil, ErrTrainerConflict
	}

	if o.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opTimeout)
		defer cancel()
	}

	if req.IsDuplicate {
		return o.duplicate(ctx, req)
	}
	return o.move(ctx, req)
}

// hasTrainerConflict reports whether any other event already occupying the
// target slot shares the dragged event's trainer. Best-effort client of the
// persistence layer: the store remains the authority and may still reject
// for reasons invisible here (cross-week conflicts, for one).
func (o *Orchestrator) hasTrainerConflict(req DropRequest) bool {
	trainerID := req.Event.EventTrainerID()
	for _, occ := range req.TargetOccupants {
		if occ.EventID() == req.Event.EventID() {
			continue
		}
		if occ.EventTrainerID() == trainerID {
			return true
		}
	}
	return false
}

func (o *Orchestrator) move(ctx context.Context, req DropRequest) (*DropOutcome, error) {
	switch e := req.Event.(type) {
	case *domain.TrainingTemplate:
		targetDate, err := ParseDate(req.TargetDate)
		if err != nil {
			return nil, fmt.Errorf("invalid target date %q: %w", req.TargetDate, err)
		}
		if err := o.backend.MoveTemplate(ctx, e.ID, DayNumber(targetDate), domain.ShortTime(req.TargetTime)); err != nil {
			return nil, err
		}
		o.invalidate(req)
		return &DropOutcome{Moved: true, Message: "Template moved."}, nil

	case *domain.RealTraining:
		if err := o.backend.MoveRealTraining(ctx, e.ID, req.TargetDate, domain.ShortTime(req.TargetTime)); err != nil {
			return nil, err
		}
		o.invalidate(req)
		return &DropOutcome{Moved: true, Message: "Training moved."}, nil

	default:
		return nil, ErrUnknownEventKind
	}
}

// duplicate creates a copy of the event at the target slot, then replicates
// each originally-assigned student as an independent call. Partial student
// failure does not roll back the created event and is reported as a success
// with a students-count caveat.
func (o *Orchestrator) duplicate(ctx context.Context, req DropRequest) (*DropOutcome, error) {
	switch e := req.Event.(type) {
	case *domain.TrainingTemplate:
		targetDate, err := ParseDate(req.TargetDate)
		if err != nil {
			return nil, fmt.Errorf("invalid target date %q: %w", req.TargetDate, err)
		}
		dup := &domain.TrainingTemplate{
			DayNumber:    DayNumber(targetDate),
			StartTime:    domain.NormalizeTime(req.TargetTime),
			TrainingType: e.TrainingType,
			TrainerID:    e.TrainerID,
		}
		id, err := o.backend.CreateTemplate(ctx, dup)
		if err != nil {
			return nil, err
		}

		res := o.replicate(ctx, len(e.AssignedStudents), func(ctx context.Context, i int) (primitive.ObjectID, error) {
			s := e.AssignedStudents[i]
			return s.StudentID, o.backend.AddStudentToTemplate(ctx, id, s.StudentID, s.StartDate)
		})
		o.invalidate(req)
		return duplicateOutcome(id, res), nil

	case *domain.RealTraining:
		dup := &domain.RealTraining{
			TrainingDate: req.TargetDate,
			StartTime:    domain.NormalizeTime(req.TargetTime),
			TrainingType: e.TrainingType,
			TrainerID:    e.TrainerID,
			Status:       domain.TrainingPlanned,
		}
		id, err := o.backend.CreateRealTraining(ctx, dup)
		if err != nil {
			return nil, err
		}

		res := o.replicate(ctx, len(e.Students), func(ctx context.Context, i int) (primitive.ObjectID, error) {
			s := e.Students[i]
			return s.StudentID, o.backend.AddStudentToRealTraining(ctx, id, s.StudentID)
		})
		o.invalidate(req)
		return duplicateOutcome(id, res), nil

	default:
		return nil, ErrUnknownEventKind
	}
}

// replicate fans out n student creation calls concurrently and collects the
// settled results. Order of completion is not guaranteed and does not matter.
func (o *Orchestrator) replicate(ctx context.Context, n int, call func(ctx context.Context, i int) (primitive.ObjectID, error)) ReplicationResult {
	var (
		mu  sync.Mutex
		res ReplicationResult
		wg  sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			studentID, err := call(ctx, i)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed = append(res.Failed, ReplicationFailure{StudentID: studentID, Err: err})
				return
			}
			res.Succeeded = append(res.Succeeded, studentID)
		}(i)
	}
	wg.Wait()

	for _, f := range res.Failed {
		log.Printf("WARN: failed to copy student %s during duplication: %v", f.StudentID.Hex(), f.Err)
	}
	return res
}

func duplicateOutcome(id primitive.ObjectID, res ReplicationResult) *DropOutcome {
	out := &DropOutcome{
		Duplicated:     true,
		NewEventID:     id,
		StudentsCopied: len(res.Succeeded),
		StudentsFailed: len(res.Failed),
	}
	total := len(res.Succeeded) + len(res.Failed)
	switch {
	case total == 0:
		out.Message = "Event duplicated."
	case len(res.Failed) == 0:
		out.Message = fmt.Sprintf("Event duplicated, %d students copied.", len(res.Succeeded))
	default:
		out.Message = fmt.Sprintf("Event duplicated, %d of %d students copied.", len(res.Succeeded), total)
	}
	return out
}

func (o *Orchestrator) invalidate(req DropRequest) {
	if o.cache == nil {
		return
	}
	o.cache.InvalidateWeek(req.TargetDate)
	if req.SourceDate != req.TargetDate {
		o.cache.InvalidateWeek(req.SourceDate)
	}
}
