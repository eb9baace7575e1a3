package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleExport stores metadata about a generated weekly calendar snapshot.
// The actual ICS file resides in S3.
type ScheduleExport struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WeekStart   string             `bson:"weekStart" json:"weekStart"` // YYYY-MM-DD, a Monday
	S3ObjectKey string             `bson:"s3ObjectKey" json:"-"`       // Internal use only
	ContentType string             `bson:"contentType" json:"contentType"`
	Size        int64              `bson:"size" json:"size"`
	Trainings   int                `bson:"trainings" json:"trainings"` // Number of trainings in the snapshot
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
