package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingType represents a kind of training offered by the business,
// e.g. "Group swim" or "Personal strength session".
type TrainingType struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Color           string             `bson:"color,omitempty" json:"color,omitempty"` // Hex color used by calendar clients
	MaxParticipants int                `bson:"maxParticipants" json:"maxParticipants"` // 0 means unbounded
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TrainingTypeRef is the denormalized snapshot of a TrainingType embedded in
// templates and real trainings, so the calendar can be rendered without a
// second lookup per event.
type TrainingTypeRef struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Color           string             `bson:"color,omitempty" json:"color,omitempty"`
	MaxParticipants int                `bson:"maxParticipants" json:"maxParticipants"`
}

// Ref returns the embeddable snapshot of the training type.
func (t *TrainingType) Ref() TrainingTypeRef {
	return TrainingTypeRef{
		ID:              t.ID,
		Name:            t.Name,
		Color:           t.Color,
		MaxParticipants: t.MaxParticipants,
	}
}
