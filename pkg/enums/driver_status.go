package enums

import "fmt"

// DriverLifecycleStatus tracks whether a driver is employable at all.
type DriverLifecycleStatus string

const (
	DriverLifecycleStatusActive   DriverLifecycleStatus = "active"
	DriverLifecycleStatusInactive DriverLifecycleStatus = "inactive"
)

var validDriverLifecycleStatuses = []DriverLifecycleStatus{
	DriverLifecycleStatusActive,
	DriverLifecycleStatusInactive,
}

// String implements fmt.Stringer.
func (d DriverLifecycleStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DriverLifecycleStatus.
func (d DriverLifecycleStatus) IsValid() bool {
	for _, candidate := range validDriverLifecycleStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDriverLifecycleStatus converts raw input into a DriverLifecycleStatus.
func ParseDriverLifecycleStatus(value string) (DriverLifecycleStatus, error) {
	for _, candidate := range validDriverLifecycleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid driver lifecycle status %q", value)
}

// DriverWorkflowStatus is the informational day-to-day state of a driver.
// Only the paused value participates in assignability checks.
type DriverWorkflowStatus string

const (
	DriverWorkflowStatusAvailable DriverWorkflowStatus = "available"
	DriverWorkflowStatusOnTrip    DriverWorkflowStatus = "on_trip"
	DriverWorkflowStatusPaused    DriverWorkflowStatus = "paused"
)

var validDriverWorkflowStatuses = []DriverWorkflowStatus{
	DriverWorkflowStatusAvailable,
	DriverWorkflowStatusOnTrip,
	DriverWorkflowStatusPaused,
}

// String implements fmt.Stringer.
func (d DriverWorkflowStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DriverWorkflowStatus.
func (d DriverWorkflowStatus) IsValid() bool {
	for _, candidate := range validDriverWorkflowStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDriverWorkflowStatus converts raw input into a DriverWorkflowStatus.
func ParseDriverWorkflowStatus(value string) (DriverWorkflowStatus, error) {
	for _, candidate := range validDriverWorkflowStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid driver workflow status %q", value)
}
