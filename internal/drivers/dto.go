package drivers

import (
	"time"

	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	"github.com/google/uuid"
)

// CreateDriverInput carries the fields accepted at driver creation.
type CreateDriverInput struct {
	FullName string  `json:"full_name" validate:"required,min=2"`
	Phone    *string `json:"phone,omitempty"`
}

// AddUnavailabilityInput describes a new window submitted for a driver.
type AddUnavailabilityInput struct {
	DriverID uuid.UUID
	Type     enums.UnavailabilityType
	StartsAt time.Time
	EndsAt   time.Time
	Reason   *string
	Actor    string
}

// SetWorkflowStatusInput switches a driver's day-to-day state.
type SetWorkflowStatusInput struct {
	DriverID uuid.UUID
	Status   enums.DriverWorkflowStatus
	Actor    string
}
