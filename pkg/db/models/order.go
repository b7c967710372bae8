package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelazquez/courierdesk-backend/pkg/enums"
)

// Order is a delivery job with a required pickup-to-delivery time
// bracket. Intake creates it; status and the driver link are only written by
// assignment operations.
type Order struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference             string            `gorm:"column:reference;type:text;not null;uniqueIndex"`
	Status                enums.OrderStatus `gorm:"column:status;type:text;not null;default:'awaiting_assignment'"`
	WindowStart           time.Time         `gorm:"column:window_start;not null"`
	WindowEnd             time.Time         `gorm:"column:window_end;not null"`
	PickupAddress         string            `gorm:"column:pickup_address;type:text;not null"`
	DropoffAddress        string            `gorm:"column:dropoff_address;type:text;not null"`
	AssignedDriverID      *uuid.UUID        `gorm:"column:assigned_driver_id;type:uuid"`
	ScheduledAssignmentID *uuid.UUID        `gorm:"column:scheduled_assignment_id;type:uuid"`
	StatusHistory         []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderStatusHistory is the append-only, actor-attributed transition trail.
type OrderStatusHistory struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus enums.OrderStatus `gorm:"column:from_status;type:text;not null"`
	ToStatus   enums.OrderStatus `gorm:"column:to_status;type:text;not null"`
	Actor      string            `gorm:"column:actor;type:text;not null"`
	Note       *string           `gorm:"column:note;type:text"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the singular table from the schema migration.
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
