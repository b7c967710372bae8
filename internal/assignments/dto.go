package assignments

import (
	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/google/uuid"
)

// AssignNowInput binds a driver to an order immediately.
type AssignNowInput struct {
	OrderID  uuid.UUID
	DriverID uuid.UUID
	Actor    string
}

// UnassignInput releases an order's current driver.
type UnassignInput struct {
	OrderID uuid.UUID
	Actor   string
	Note    *string
}

// AssignableDriver pairs a candidate driver with the evaluator's verdict for
// a specific order window.
type AssignableDriver struct {
	Driver   models.Driver `json:"driver"`
	Decision Decision      `json:"decision"`
}
