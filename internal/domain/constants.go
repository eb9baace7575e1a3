package domain

import "time"

// Time format constants
const (
	TimeLayout    = "15:04"      // HH:MM, the slot-key granularity
	TimeSecLayout = "15:04:05"   // HH:MM:SS, how start times are stored
	DateLayout    = "2006-01-02" // YYYY-MM-DD
)

// Calendar constants
const (
	// Every template slot is exactly one hour long.
	SlotDuration = 60 * time.Minute

	// Cancellations at least this long before the scheduled start are "safe";
	// later ones are flagged as penalty cancellations. Fixed business rule,
	// not configurable per training type.
	SafeCancellationWindow = 12 * time.Hour

	// Sentinel used when a training type has no participant limit. The
	// capacity badge is suppressed instead of showing "3/999".
	UnboundedParticipants = 999
)

// CancelledTrainingStatuses are the statuses under which a real training is
// treated as immutable.
var CancelledTrainingStatuses = []TrainingStatus{
	TrainingCancelledByCoach,
	TrainingCancelledByAdmin,
}

// AbsentableStatuses are the attendance statuses from which a student may be
// marked absent.
var AbsentableStatuses = []AttendanceStatus{
	AttendanceRegistered,
	AttendancePresent,
}
