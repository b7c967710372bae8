package enums

import "fmt"

// ScheduledAssignmentStatus is the state machine of a deferred assignment
// request. Pending and processing rows block other bookings of the same
// driver; completed, cancelled and failed are terminal.
type ScheduledAssignmentStatus string

const (
	ScheduledAssignmentStatusPending    ScheduledAssignmentStatus = "pending"
	ScheduledAssignmentStatusProcessing ScheduledAssignmentStatus = "processing"
	ScheduledAssignmentStatusCompleted  ScheduledAssignmentStatus = "completed"
	ScheduledAssignmentStatusCancelled  ScheduledAssignmentStatus = "cancelled"
	ScheduledAssignmentStatusFailed     ScheduledAssignmentStatus = "failed"
)

var validScheduledAssignmentStatuses = []ScheduledAssignmentStatus{
	ScheduledAssignmentStatusPending,
	ScheduledAssignmentStatusProcessing,
	ScheduledAssignmentStatusCompleted,
	ScheduledAssignmentStatusCancelled,
	ScheduledAssignmentStatusFailed,
}

// String implements fmt.Stringer.
func (s ScheduledAssignmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ScheduledAssignmentStatus.
func (s ScheduledAssignmentStatus) IsValid() bool {
	for _, candidate := range validScheduledAssignmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave the status.
func (s ScheduledAssignmentStatus) IsTerminal() bool {
	switch s {
	case ScheduledAssignmentStatusCompleted, ScheduledAssignmentStatusCancelled, ScheduledAssignmentStatusFailed:
		return true
	default:
		return false
	}
}

// IsBlocking reports whether the status counts as a conflict source for
// assignability checks.
func (s ScheduledAssignmentStatus) IsBlocking() bool {
	return s == ScheduledAssignmentStatusPending || s == ScheduledAssignmentStatusProcessing
}

// ParseScheduledAssignmentStatus converts raw input.
func ParseScheduledAssignmentStatus(value string) (ScheduledAssignmentStatus, error) {
	for _, candidate := range validScheduledAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scheduled assignment status %q", value)
}
