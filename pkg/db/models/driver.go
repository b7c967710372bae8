package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelazquez/courierdesk-backend/pkg/enums"
)

// Driver is the canonical driver record. Directory-admin operations own every
// field; the scheduling engine only reads it.
type Driver struct {
	ID               uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FullName         string                      `gorm:"column:full_name;type:text;not null"`
	Phone            *string                     `gorm:"column:phone;type:text"`
	LifecycleStatus  enums.DriverLifecycleStatus `gorm:"column:lifecycle_status;type:text;not null;default:'active'"`
	WorkflowStatus   enums.DriverWorkflowStatus  `gorm:"column:workflow_status;type:text;not null;default:'available'"`
	Unavailabilities []DriverUnavailability      `gorm:"foreignKey:DriverID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

// DriverUnavailability is a typed half-open window during which a driver
// cannot be assigned. Per (driver, type) the stored set is always the minimal
// merged set: no two rows overlap or touch.
type DriverUnavailability struct {
	ID        uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DriverID  uuid.UUID                `gorm:"column:driver_id;type:uuid;not null"`
	Type      enums.UnavailabilityType `gorm:"column:type;type:text;not null"`
	StartsAt  time.Time                `gorm:"column:starts_at;not null"`
	EndsAt    time.Time                `gorm:"column:ends_at;not null"`
	Reason    *string                  `gorm:"column:reason;type:text"`
	CreatedAt time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
