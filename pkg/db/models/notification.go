package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelazquez/courierdesk-backend/pkg/enums"
)

// Notification is an audience-scoped entry in the append-only outbox consumed
// by the notification center.
type Notification struct {
	ID        uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Audience  enums.NotificationAudience `gorm:"column:audience;type:text;not null;index"`
	OrderID   *uuid.UUID                 `gorm:"column:order_id;type:uuid;index"`
	DriverID  *uuid.UUID                 `gorm:"column:driver_id;type:uuid;index"`
	Title     string                     `gorm:"column:title;type:text;not null"`
	Message   string                     `gorm:"column:message;type:text;not null"`
	ReadAt    *time.Time                 `gorm:"column:read_at"`
	CreatedAt time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
