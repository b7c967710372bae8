package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelazquez/courierdesk-backend/pkg/enums"
)

// Assignment is a concrete driver-to-order commitment for a time window. At
// most one row per order may be open (EndedAt IS NULL); rows are never
// deleted, only ended.
type Assignment struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	DriverID  uuid.UUID              `gorm:"column:driver_id;type:uuid;not null;index"`
	StartsAt  time.Time              `gorm:"column:starts_at;not null"`
	EndsAt    time.Time              `gorm:"column:ends_at;not null"`
	Source    enums.AssignmentSource `gorm:"column:source;type:text;not null;default:'manual'"`
	EndedAt   *time.Time             `gorm:"column:ended_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}

// Open reports whether the assignment is the order's current binding.
func (a Assignment) Open() bool {
	return a.EndedAt == nil
}
