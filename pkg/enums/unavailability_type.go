package enums

import "fmt"

// UnavailabilityType classifies a driver unavailability window. Windows only
// merge with windows of the same type.
type UnavailabilityType string

const (
	UnavailabilityTypeVacation    UnavailabilityType = "vacation"
	UnavailabilityTypeAppointment UnavailabilityType = "appointment"
	UnavailabilityTypeIllness     UnavailabilityType = "illness"
	UnavailabilityTypeOther       UnavailabilityType = "other"
)

var validUnavailabilityTypes = []UnavailabilityType{
	UnavailabilityTypeVacation,
	UnavailabilityTypeAppointment,
	UnavailabilityTypeIllness,
	UnavailabilityTypeOther,
}

// String implements fmt.Stringer.
func (u UnavailabilityType) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UnavailabilityType.
func (u UnavailabilityType) IsValid() bool {
	for _, candidate := range validUnavailabilityTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnavailabilityType converts raw input into an UnavailabilityType.
func ParseUnavailabilityType(value string) (UnavailabilityType, error) {
	for _, candidate := range validUnavailabilityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unavailability type %q", value)
}
