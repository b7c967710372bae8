package enums

import "fmt"

// AssignmentSource records whether an assignment was created by an operator
// or by the sweep executing a deferred request.
type AssignmentSource string

const (
	AssignmentSourceManual    AssignmentSource = "manual"
	AssignmentSourceScheduled AssignmentSource = "scheduled"
)

var validAssignmentSources = []AssignmentSource{
	AssignmentSourceManual,
	AssignmentSourceScheduled,
}

// String implements fmt.Stringer.
func (a AssignmentSource) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssignmentSource.
func (a AssignmentSource) IsValid() bool {
	for _, candidate := range validAssignmentSources {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAssignmentSource converts raw input into an AssignmentSource.
func ParseAssignmentSource(value string) (AssignmentSource, error) {
	for _, candidate := range validAssignmentSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment source %q", value)
}
