package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateStudent links a student to a recurring template slot.
type TemplateStudent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID primitive.ObjectID `bson:"studentId" json:"studentId"`
	StartDate string             `bson:"startDate" json:"startDate"` // YYYY-MM-DD, first week the student attends
	IsFrozen  bool               `bson:"isFrozen" json:"isFrozen"`   // Frozen students keep their place but are not expected
}

// TrainingTemplate is a recurring weekly training slot. It has no concrete
// date, only a Monday-indexed weekday number and a start time; the calendar
// re-projects it onto whichever week is displayed.
//
// Uniqueness of (trainer, day, time) is NOT enforced here; the drop
// orchestrator performs a best-effort conflict check at drop time only.
type TrainingTemplate struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DayNumber        int                `bson:"dayNumber" json:"dayNumber"` // 1 (Monday) .. 7 (Sunday)
	StartTime        string             `bson:"startTime" json:"startTime"` // HH:MM:SS, fixed 60-minute duration
	TrainingType     TrainingTypeRef    `bson:"trainingType" json:"trainingType"`
	TrainerID        primitive.ObjectID `bson:"trainerId" json:"responsibleTrainerId"`
	AssignedStudents []TemplateStudent  `bson:"assignedStudents,omitempty" json:"assignedStudents,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (t *TrainingTemplate) EventID() primitive.ObjectID        { return t.ID }
func (t *TrainingTemplate) EventTrainerID() primitive.ObjectID { return t.TrainerID }

// EventStartTime returns the start time at slot-key (HH:MM) granularity.
func (t *TrainingTemplate) EventStartTime() string { return ShortTime(t.StartTime) }

func (t *TrainingTemplate) calendarEvent() {}
