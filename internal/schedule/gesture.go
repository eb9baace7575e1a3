package schedule

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"alcyxob/training-calendar/internal/domain"
)

const (
	// DefaultModifierMaxHold bounds how long a pressed modifier flag is
	// trusted. Clients occasionally lose the key-up event (focus leaving the
	// window mid-press is the classic case), so a flag older than this reads
	// as released.
	DefaultModifierMaxHold = 30 * time.Second

	// ModifierResetDelay is the short delay before the post-drop forced
	// reset of the modifier flag.
	ModifierResetDelay = 150 * time.Millisecond
)

// DragPayload is the snapshot taken at the moment a drag gesture begins.
// IsDuplicate is fixed here: changing the modifier mid-drag does not change
// the outcome of that drag.
type DragPayload struct {
	GestureID   string    `json:"gestureId"` // Correlates drag start and drop in logs
	EventID     string    `json:"eventId"`
	SourceDate  string    `json:"sourceDate"` // YYYY-MM-DD
	SourceTime  string    `json:"sourceTime"` // HH:MM
	IsDuplicate bool      `json:"isDuplicate"`
	StartedAt   time.Time `json:"startedAt"`
}

// ModifierTracker tracks the duplicate-mode modifier key for one interaction
// session. It is an owned object handed to whoever initiates drags, not
// process-global state.
type ModifierTracker struct {
	mu         sync.Mutex
	pressed    bool
	pressedAt  time.Time
	maxHold    time.Duration
	resetTimer *time.Timer

	now func() time.Time
}

// NewModifierTracker creates a tracker. A non-positive maxHold falls back to
// DefaultModifierMaxHold.
func NewModifierTracker(maxHold time.Duration) *ModifierTracker {
	if maxHold <= 0 {
		maxHold = DefaultModifierMaxHold
	}
	return &ModifierTracker{maxHold: maxHold, now: time.Now}
}

// SetPressed records a modifier key-down or key-up reported by the client.
func (t *ModifierTracker) SetPressed(pressed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pressed = pressed
	if pressed {
		t.pressedAt = t.now()
	}
}

// Pressed reports the current modifier state. A flag held longer than the
// max-hold window is considered stuck and reads as released.
func (t *ModifierTracker) Pressed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pressed && t.now().Sub(t.pressedAt) > t.maxHold {
		t.pressed = false
	}
	return t.pressed
}

// BeginDrag snapshots the modifier state into a drag payload. The snapshot,
// not a live re-check, determines move-vs-duplicate semantics for the whole
// gesture.
func (t *ModifierTracker) BeginDrag(e domain.CalendarEvent, sourceDate, sourceTime string) DragPayload {
	return DragPayload{
		GestureID:   uuid.NewString(),
		EventID:     e.EventID().Hex(),
		SourceDate:  sourceDate,
		SourceTime:  domain.ShortTime(sourceTime),
		IsDuplicate: t.Pressed(),
		StartedAt:   t.now(),
	}
}

// ForceReset clears the modifier flag immediately and cancels any pending
// delayed reset.
func (t *ModifierTracker) ForceReset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pressed = false
	if t.resetTimer != nil {
		t.resetTimer.Stop()
		t.resetTimer = nil
	}
}

// ForceResetAfter schedules a forced reset after the given delay. Invoked
// after every drop to clear a modifier flag the client failed to report as
// released. A later call supersedes a pending one.
func (t *ModifierTracker) ForceResetAfter(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resetTimer != nil {
		t.resetTimer.Stop()
	}
	t.resetTimer = time.AfterFunc(d, t.ForceReset)
}

// TrackerRegistry hands out one modifier tracker per user session.
type TrackerRegistry struct {
	mu       sync.Mutex
	trackers map[string]*ModifierTracker
	maxHold  time.Duration
}

// NewTrackerRegistry creates an empty registry.
func NewTrackerRegistry(maxHold time.Duration) *TrackerRegistry {
	return &TrackerRegistry{
		trackers: make(map[string]*ModifierTracker),
		maxHold:  maxHold,
	}
}

// For returns the tracker for the given user, creating it on first use.
func (r *TrackerRegistry) For(userID string) *ModifierTracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[userID]
	if !ok {
		t = NewModifierTracker(r.maxHold)
		r.trackers[userID] = t
	}
	return t
}
