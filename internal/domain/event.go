package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// CalendarEvent is the closed union of the two kinds of event that can occupy
// a calendar slot: a recurring TrainingTemplate or a dated RealTraining. The
// union is sealed (unexported marker method) so it is constructed once, at
// the ingestion boundary, instead of being re-discriminated ad hoc.
type CalendarEvent interface {
	EventID() primitive.ObjectID
	EventTrainerID() primitive.ObjectID
	// EventStartTime returns the start time at HH:MM granularity.
	EventStartTime() string

	calendarEvent()
}

// IsTrainingTemplate reports whether the event is a recurring weekly slot
// with a valid Monday-indexed weekday number. Templates with a day number
// outside [1,7] are malformed and classify as neither kind, which excludes
// them from grid placement.
func IsTrainingTemplate(e CalendarEvent) bool {
	t, ok := e.(*TrainingTemplate)
	return ok && t.DayNumber >= 1 && t.DayNumber <= 7
}

// IsRealTraining reports whether the event is a concrete dated training.
func IsRealTraining(e CalendarEvent) bool {
	t, ok := e.(*RealTraining)
	return ok && t.TrainingDate != ""
}

// ShortTime truncates an HH:MM:SS time string to HH:MM. Already-short values
// pass through unchanged.
func ShortTime(s string) string {
	if len(s) > len(TimeLayout) {
		return s[:len(TimeLayout)]
	}
	return s
}

// NormalizeTime pads an HH:MM time string to HH:MM:SS.
func NormalizeTime(s string) string {
	if len(s) == len(TimeLayout) {
		return s + ":00"
	}
	return s
}
