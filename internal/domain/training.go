package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingStatus type for real training lifecycle
type TrainingStatus string

const (
	TrainingPlanned          TrainingStatus = "planned"
	TrainingCompleted        TrainingStatus = "completed"
	TrainingCancelledByCoach TrainingStatus = "cancelled_by_coach"
	TrainingCancelledByAdmin TrainingStatus = "cancelled_by_admin"
	TrainingIssue            TrainingStatus = "issue"
)

// AttendanceStatus type for a student's attendance record
type AttendanceStatus string

const (
	AttendanceRegistered       AttendanceStatus = "REGISTERED"
	AttendancePresent          AttendanceStatus = "PRESENT"
	AttendanceAbsent           AttendanceStatus = "ABSENT"
	AttendanceCancelledSafe    AttendanceStatus = "CANCELLED_SAFE"
	AttendanceCancelledPenalty AttendanceStatus = "CANCELLED_PENALTY"
	AttendanceWaitlist         AttendanceStatus = "WAITLIST"
)

// RealTrainingStudent is an attendance record embedded in a real training.
type RealTrainingStudent struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID          primitive.ObjectID `bson:"studentId" json:"studentId"`
	Status             AttendanceStatus   `bson:"status" json:"status"`
	CancellationReason string             `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	NotifiedAt         *time.Time         `bson:"notifiedAt,omitempty" json:"notifiedAt,omitempty"` // When the cancellation was reported
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CanBeMarkedAbsent reports whether the record may transition to ABSENT.
func (s *RealTrainingStudent) CanBeMarkedAbsent() bool {
	for _, st := range AbsentableStatuses {
		if s.Status == st {
			return true
		}
	}
	return false
}

// RealTraining is a concrete dated occurrence of a training, optionally
// instantiated from a template.
type RealTraining struct {
	ID           primitive.ObjectID    `bson:"_id,omitempty" json:"id"`
	TrainingDate string                `bson:"trainingDate" json:"trainingDate"` // YYYY-MM-DD
	StartTime    string                `bson:"startTime" json:"startTime"`       // HH:MM:SS
	TrainingType TrainingTypeRef       `bson:"trainingType" json:"trainingType"`
	TrainerID    primitive.ObjectID    `bson:"trainerId" json:"trainerId"`
	TemplateID   *primitive.ObjectID   `bson:"templateId,omitempty" json:"templateId,omitempty"` // Set when derived from a template
	Status       TrainingStatus        `bson:"status" json:"status"`
	Students     []RealTrainingStudent `bson:"students,omitempty" json:"students,omitempty"`
	CreatedAt    time.Time             `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time             `bson:"updatedAt" json:"updatedAt"`
}

func (t *RealTraining) EventID() primitive.ObjectID        { return t.ID }
func (t *RealTraining) EventTrainerID() primitive.ObjectID { return t.TrainerID }
func (t *RealTraining) EventStartTime() string             { return ShortTime(t.StartTime) }

func (t *RealTraining) calendarEvent() {}

// IsCancelled reports whether the training is in one of the cancelled states.
func (t *RealTraining) IsCancelled() bool {
	for _, st := range CancelledTrainingStatuses {
		if t.Status == st {
			return true
		}
	}
	return false
}

// StartsAt combines the training's date and start time into a single instant.
// Wall-clock times are interpreted in UTC.
func (t *RealTraining) StartsAt() (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeSecLayout, t.TrainingDate+" "+NormalizeTime(t.StartTime), time.UTC)
}

// Student returns the attendance record for the given student, nil if absent
// from the list.
func (t *RealTraining) Student(studentID primitive.ObjectID) *RealTrainingStudent {
	for i := range t.Students {
		if t.Students[i].StudentID == studentID {
			return &t.Students[i]
		}
	}
	return nil
}

// ActiveStudentCount counts students occupying a place (not cancelled, not
// waitlisted).
func (t *RealTraining) ActiveStudentCount() int {
	n := 0
	for i := range t.Students {
		switch t.Students[i].Status {
		case AttendanceCancelledSafe, AttendanceCancelledPenalty, AttendanceWaitlist:
		default:
			n++
		}
	}
	return n
}
