package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelazquez/courierdesk-backend/pkg/enums"
)

// ActivityEntry is an immutable audit record. The log is append-only and
// listed newest first.
type ActivityEntry struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type      enums.ActivityType `gorm:"column:type;type:text;not null"`
	OrderID   *uuid.UUID         `gorm:"column:order_id;type:uuid;index"`
	DriverID  *uuid.UUID         `gorm:"column:driver_id;type:uuid;index"`
	Actor     string             `gorm:"column:actor;type:text;not null"`
	Note      *string            `gorm:"column:note;type:text"`
	Payload   map[string]any     `gorm:"column:payload;type:jsonb;serializer:json"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}
