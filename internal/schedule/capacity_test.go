package schedule

import (
	"testing"
	"time"

	"alcyxob/training-calendar/internal/domain"
)

func TestCalculateCapacity(t *testing.T) {
	tests := []struct {
		name      string
		current   int
		max       int
		color     CapacityColor
		isFull    bool
		showBadge bool
	}{
		{name: "empty", current: 0, max: 10, color: CapacityGreen, showBadge: true},
		{name: "under 70", current: 6, max: 10, color: CapacityGreen, showBadge: true},
		{name: "70 percent", current: 7, max: 10, color: CapacityYellow, showBadge: true},
		{name: "90 percent", current: 9, max: 10, color: CapacityOrange, showBadge: true},
		{name: "full", current: 10, max: 10, color: CapacityRed, isFull: true, showBadge: true},
		{name: "overbooked", current: 12, max: 10, color: CapacityRed, isFull: true, showBadge: true},
		{name: "unbounded suppresses badge", current: 3, max: 0, color: CapacityGreen, showBadge: false},
		{name: "negative max treated as unbounded", current: 3, max: -1, color: CapacityGreen, showBadge: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CalculateCapacity(tt.current, tt.max)
			if c.Color != tt.color {
				t.Errorf("expected color %s, got %s", tt.color, c.Color)
			}
			if c.IsFull != tt.isFull {
				t.Errorf("expected isFull %v, got %v", tt.isFull, c.IsFull)
			}
			if c.ShowBadge != tt.showBadge {
				t.Errorf("expected showBadge %v, got %v", tt.showBadge, c.ShowBadge)
			}
		})
	}
}

func TestCalculateCapacity_UnboundedPercentage(t *testing.T) {
	// 3 students against the 999 sentinel rounds down to zero percent.
	c := CalculateCapacity(3, 0)
	if c.Percentage != 0 {
		t.Errorf("expected 0 percent, got %d", c.Percentage)
	}
}

func TestIsPastTraining(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	past := &domain.RealTraining{TrainingDate: "2026-03-04", StartTime: "09:00:00"}
	future := &domain.RealTraining{TrainingDate: "2026-03-04", StartTime: "18:00:00"}
	tpl := &domain.TrainingTemplate{DayNumber: 1, StartTime: "09:00:00"}

	if !IsPastTraining(past, now) {
		t.Error("expected 09:00 training to be past at noon")
	}
	if IsPastTraining(future, now) {
		t.Error("expected 18:00 training not to be past at noon")
	}
	// Templates have no date, so they are never past.
	if IsPastTraining(tpl, now) {
		t.Error("expected template never to be past")
	}
}

func TestCanModifyTraining(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		event    domain.CalendarEvent
		expected bool
	}{
		{
			name:     "future planned training",
			event:    &domain.RealTraining{TrainingDate: "2026-03-04", StartTime: "18:00:00", Status: domain.TrainingPlanned},
			expected: true,
		},
		{
			name:     "past training",
			event:    &domain.RealTraining{TrainingDate: "2026-03-03", StartTime: "18:00:00", Status: domain.TrainingPlanned},
			expected: false,
		},
		{
			name:     "cancelled by coach",
			event:    &domain.RealTraining{TrainingDate: "2026-03-04", StartTime: "18:00:00", Status: domain.TrainingCancelledByCoach},
			expected: false,
		},
		{
			name:     "cancelled by admin",
			event:    &domain.RealTraining{TrainingDate: "2026-03-04", StartTime: "18:00:00", Status: domain.TrainingCancelledByAdmin},
			expected: false,
		},
		{
			name:     "past and cancelled",
			event:    &domain.RealTraining{TrainingDate: "2026-03-03", StartTime: "09:00:00", Status: domain.TrainingCancelledByCoach},
			expected: false,
		},
		{
			name:     "template always modifiable",
			event:    &domain.TrainingTemplate{DayNumber: 2, StartTime: "09:00:00"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModifyTraining(tt.event, now); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCancellationStatus(t *testing.T) {
	start := time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		notifiedAt time.Time
		expected   domain.AttendanceStatus
	}{
		{
			name:       "a day ahead is safe",
			notifiedAt: start.Add(-24 * time.Hour),
			expected:   domain.AttendanceCancelledSafe,
		},
		{
			name:       "exactly at the cutoff is safe",
			notifiedAt: start.Add(-domain.SafeCancellationWindow),
			expected:   domain.AttendanceCancelledSafe,
		},
		{
			name:       "just inside the window is penalty",
			notifiedAt: start.Add(-domain.SafeCancellationWindow + time.Minute),
			expected:   domain.AttendanceCancelledPenalty,
		},
		{
			name:       "an hour before is penalty",
			notifiedAt: start.Add(-time.Hour),
			expected:   domain.AttendanceCancelledPenalty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CancellationStatus(start, tt.notifiedAt); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}
