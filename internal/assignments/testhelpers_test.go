package assignments

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/avelazquez/courierdesk-backend/internal/activity"
	"github.com/avelazquez/courierdesk-backend/internal/drivers"
	"github.com/avelazquez/courierdesk-backend/internal/notifications"
	"github.com/avelazquez/courierdesk-backend/internal/orders"
	"github.com/avelazquez/courierdesk-backend/internal/schedules"
	"github.com/avelazquez/courierdesk-backend/pkg/db"
	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	"github.com/avelazquez/courierdesk-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var baseDay = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func hour(h int) time.Time {
	return baseDay.Add(time.Duration(h) * time.Hour)
}

func setupAssignmentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS drivers (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL,
  phone TEXT,
  lifecycle_status TEXT NOT NULL DEFAULT 'active',
  workflow_status TEXT NOT NULL DEFAULT 'available',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS driver_unavailabilities (
  id TEXT PRIMARY KEY,
  driver_id TEXT NOT NULL,
  type TEXT NOT NULL,
  starts_at DATETIME NOT NULL,
  ends_at DATETIME NOT NULL,
  reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'awaiting_assignment',
  window_start DATETIME NOT NULL,
  window_end DATETIME NOT NULL,
  pickup_address TEXT NOT NULL,
  dropoff_address TEXT NOT NULL,
  assigned_driver_id TEXT,
  scheduled_assignment_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_status_history (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  from_status TEXT NOT NULL,
  to_status TEXT NOT NULL,
  actor TEXT NOT NULL,
  note TEXT,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS assignments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  driver_id TEXT NOT NULL,
  starts_at DATETIME NOT NULL,
  ends_at DATETIME NOT NULL,
  source TEXT NOT NULL DEFAULT 'manual',
  ended_at DATETIME,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS scheduled_assignments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  driver_id TEXT NOT NULL,
  starts_at DATETIME NOT NULL,
  ends_at DATETIME NOT NULL,
  execute_at DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  failure_reason TEXT,
  executed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS activity_entries (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  order_id TEXT,
  driver_id TEXT,
  actor TEXT NOT NULL,
  note TEXT,
  payload TEXT,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  audience TEXT NOT NULL,
  order_id TEXT,
  driver_id TEXT,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func seedDriver(t *testing.T, conn *gorm.DB, name string) *models.Driver {
	t.Helper()

	driver := &models.Driver{
		ID:              uuid.New(),
		FullName:        name,
		LifecycleStatus: enums.DriverLifecycleStatusActive,
		WorkflowStatus:  enums.DriverWorkflowStatusAvailable,
	}
	require.NoError(t, conn.Create(driver).Error)
	return driver
}

func seedOrder(t *testing.T, conn *gorm.DB, reference string, start, end time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:             uuid.New(),
		Reference:      reference,
		Status:         enums.OrderStatusAwaitingAssignment,
		WindowStart:    start,
		WindowEnd:      end,
		PickupAddress:  "Calle Mayor 1",
		DropoffAddress: "Gran Via 44",
	}
	require.NoError(t, conn.Create(order).Error)
	return order
}

func seedOpenAssignment(t *testing.T, conn *gorm.DB, orderID, driverID uuid.UUID, start, end time.Time) *models.Assignment {
	t.Helper()

	assignment := &models.Assignment{
		ID:       uuid.New(),
		OrderID:  orderID,
		DriverID: driverID,
		StartsAt: start,
		EndsAt:   end,
		Source:   enums.AssignmentSourceManual,
	}
	require.NoError(t, conn.Create(assignment).Error)
	return assignment
}

func seedSchedule(t *testing.T, conn *gorm.DB, orderID, driverID uuid.UUID, start, end, executeAt time.Time, status enums.ScheduledAssignmentStatus) *models.ScheduledAssignment {
	t.Helper()

	entry := &models.ScheduledAssignment{
		ID:        uuid.New(),
		OrderID:   orderID,
		DriverID:  driverID,
		StartsAt:  start,
		EndsAt:    end,
		ExecuteAt: executeAt,
		Status:    status,
	}
	require.NoError(t, conn.Create(entry).Error)
	return entry
}

func seedUnavailability(t *testing.T, conn *gorm.DB, driverID uuid.UUID, kind enums.UnavailabilityType, start, end time.Time) {
	t.Helper()

	require.NoError(t, conn.Create(&models.DriverUnavailability{
		ID:       uuid.New(),
		DriverID: driverID,
		Type:     kind,
		StartsAt: start,
		EndsAt:   end,
	}).Error)
}

func newAssignmentsService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	client := db.NewFromConn(conn)
	recorder := activity.NewRecorder(activity.NewRepository(conn))
	outbox := notifications.NewOutbox(notifications.NewRepository(conn))
	logg := logger.New(logger.Options{ServiceName: "test"})

	svc, err := NewService(
		orders.NewRepository(conn),
		drivers.NewRepository(conn),
		NewRepository(conn),
		schedules.NewRepository(conn),
		client,
		recorder,
		outbox,
		logg,
	)
	require.NoError(t, err)
	return svc
}

func newEvaluator(t *testing.T, conn *gorm.DB) *Evaluator {
	t.Helper()

	evaluator, err := NewEvaluator(
		drivers.NewRepository(conn),
		NewRepository(conn),
		schedules.NewRepository(conn),
	)
	require.NoError(t, err)
	return evaluator
}
