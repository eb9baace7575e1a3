package schedule

import (
	"time"

	"alcyxob/training-calendar/internal/domain"
)

// CapacityColor is the color band for an occupancy level.
type CapacityColor string

const (
	CapacityGreen  CapacityColor = "green"
	CapacityYellow CapacityColor = "yellow"
	CapacityOrange CapacityColor = "orange"
	CapacityRed    CapacityColor = "red"
)

// Capacity describes the occupancy of a training slot.
type Capacity struct {
	Percentage int           `json:"percentage"`
	Color      CapacityColor `json:"color"`
	IsFull     bool          `json:"isFull"`
	ShowBadge  bool          `json:"showBadge"` // Suppressed when max is unbounded
}

// CalculateCapacity buckets current/max occupancy into four color bands.
// A max of zero (or below) is treated as effectively unbounded via the 999
// sentinel, and the badge is suppressed.
func CalculateCapacity(current, max int) Capacity {
	showBadge := max > 0
	if max <= 0 {
		max = domain.UnboundedParticipants
	}

	pct := current * 100 / max
	c := Capacity{Percentage: pct, ShowBadge: showBadge}
	switch {
	case pct >= 100:
		c.Color = CapacityRed
		c.IsFull = true
	case pct >= 90:
		c.Color = CapacityOrange
	case pct >= 70:
		c.Color = CapacityYellow
	default:
		c.Color = CapacityGreen
	}
	return c
}

// IsPastTraining reports whether the event's date and start time are strictly
// before now. Templates are not date-bound, so this is always false for them.
func IsPastTraining(e domain.CalendarEvent, now time.Time) bool {
	t, ok := e.(*domain.RealTraining)
	if !ok {
		return false
	}
	start, err := t.StartsAt()
	if err != nil {
		return false
	}
	return start.Before(now)
}

// IsCancelledTraining reports whether the event is a real training in one of
// the two cancelled states. Always false for templates.
func IsCancelledTraining(e domain.CalendarEvent) bool {
	t, ok := e.(*domain.RealTraining)
	return ok && t.IsCancelled()
}

// CanModifyTraining is the single gate used before allowing move, duplicate
// or attendance edits: past and cancelled trainings are immutable.
func CanModifyTraining(e domain.CalendarEvent, now time.Time) bool {
	return !IsPastTraining(e, now) && !IsCancelledTraining(e)
}

// CancellationStatus classifies a student cancellation as safe or penalty
// relative to the training start: notifications at least the safe window
// ahead of start are safe, later ones carry a penalty.
func CancellationStatus(start, notifiedAt time.Time) domain.AttendanceStatus {
	if notifiedAt.Add(domain.SafeCancellationWindow).After(start) {
		return domain.AttendanceCancelledPenalty
	}
	return domain.AttendanceCancelledSafe
}
