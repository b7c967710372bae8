package schedules

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleInput defers a driver assignment until ExecuteAt. The delivery
// window is snapshotted from the order at schedule time.
type ScheduleInput struct {
	OrderID   uuid.UUID
	DriverID  uuid.UUID
	ExecuteAt time.Time
	Actor     string
}

// RescheduleInput moves a pending entry to a new driver or execution time.
// Zero-value fields keep the entry's current value.
type RescheduleInput struct {
	ScheduleID uuid.UUID
	DriverID   uuid.UUID
	ExecuteAt  time.Time
	Actor      string
}

// CancelInput cancels a pending entry.
type CancelInput struct {
	ScheduleID uuid.UUID
	Actor      string
}
