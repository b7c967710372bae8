package enums

import "fmt"

// ActivityType labels entries in the append-only activity log.
type ActivityType string

const (
	ActivityTypeAssignNow           ActivityType = "assign_now"
	ActivityTypeUnassign            ActivityType = "unassign"
	ActivityTypeSchedule            ActivityType = "schedule"
	ActivityTypeReschedule          ActivityType = "reschedule"
	ActivityTypeCancelSchedule      ActivityType = "cancel_schedule"
	ActivityTypeExecution           ActivityType = "execution"
	ActivityTypeExecutionFailed     ActivityType = "execution_failed"
	ActivityTypeStatusChange        ActivityType = "status_change"
	ActivityTypeUnavailabilityAdded ActivityType = "unavailability_added"
)

var validActivityTypes = []ActivityType{
	ActivityTypeAssignNow,
	ActivityTypeUnassign,
	ActivityTypeSchedule,
	ActivityTypeReschedule,
	ActivityTypeCancelSchedule,
	ActivityTypeExecution,
	ActivityTypeExecutionFailed,
	ActivityTypeStatusChange,
	ActivityTypeUnavailabilityAdded,
}

// String implements fmt.Stringer.
func (a ActivityType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityType.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}
