package schedule

import (
	"time"

	"alcyxob/training-calendar/internal/domain"
)

// SlotMap indexes calendar events by "{date}-{time}" slot key, so the weekly
// grid can look up any cell in O(1) instead of filtering the event list per
// cell. A slot may hold more than one event; that is an overbooking
// indicator, not an error. The map is cheap to rebuild and is rebuilt in
// full whenever the event list or the displayed week changes.
type SlotMap map[string][]domain.CalendarEvent

// SlotKey builds the map key for a date (YYYY-MM-DD) and time (HH:MM).
func SlotKey(date, hhmm string) string {
	return date + "-" + hhmm
}

// BuildSlotMap places each event into its slot for the week starting at
// weekStart (a Monday):
//
//   - templates are re-projected onto the displayed week from their weekday
//     number;
//   - real trainings use their training date verbatim.
//
// Events that classify as neither kind are malformed and are skipped.
// Within a bucket, input order is preserved.
func BuildSlotMap(events []domain.CalendarEvent, weekStart time.Time) SlotMap {
	m := make(SlotMap, len(events))
	for _, e := range events {
		var date string
		switch {
		case domain.IsTrainingTemplate(e):
			t := e.(*domain.TrainingTemplate)
			date = DateForDay(weekStart, t.DayNumber).Format(domain.DateLayout)
		case domain.IsRealTraining(e):
			date = e.(*domain.RealTraining).TrainingDate
		default:
			continue
		}
		key := SlotKey(date, e.EventStartTime())
		m[key] = append(m[key], e)
	}
	return m
}

// EventsForSlot returns the events occupying the (day, time) cell. The
// returned slice is nil when the slot is empty.
func (m SlotMap) EventsForSlot(day time.Time, hhmm string) []domain.CalendarEvent {
	return m[SlotKey(day.Format(domain.DateLayout), hhmm)]
}
