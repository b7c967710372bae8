package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelazquez/courierdesk-backend/pkg/enums"
)

// ScheduledAssignment is a deferred request to bind a driver to an order once
// ExecuteAt arrives. At most one non-terminal row may exist per order; a
// second schedule call supersedes the first in place. Rows are never deleted.
type ScheduledAssignment struct {
	ID            uuid.UUID                       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID                       `gorm:"column:order_id;type:uuid;not null;index"`
	DriverID      uuid.UUID                       `gorm:"column:driver_id;type:uuid;not null;index"`
	StartsAt      time.Time                       `gorm:"column:starts_at;not null"`
	EndsAt        time.Time                       `gorm:"column:ends_at;not null"`
	ExecuteAt     time.Time                       `gorm:"column:execute_at;not null;index"`
	Status        enums.ScheduledAssignmentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	FailureReason *string                         `gorm:"column:failure_reason;type:text"`
	ExecutedAt    *time.Time                      `gorm:"column:executed_at"`
	CreatedAt     time.Time                       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                       `gorm:"column:updated_at;autoUpdateTime"`
}
