package orders

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/avelazquez/courierdesk-backend/internal/activity"
	"github.com/avelazquez/courierdesk-backend/pkg/db"
	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	pkgerrors "github.com/avelazquez/courierdesk-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var orderDay = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func orderHour(h int) time.Time {
	return orderDay.Add(time.Duration(h) * time.Hour)
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
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
CREATE TABLE IF NOT EXISTS activity_entries (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  order_id TEXT,
  driver_id TEXT,
  actor TEXT NOT NULL,
  note TEXT,
  payload TEXT,
  created_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func newOrdersService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(
		NewRepository(conn),
		db.NewFromConn(conn),
		activity.NewRecorder(activity.NewRepository(conn)),
	)
	require.NoError(t, err)
	return svc
}

func intakeOrder(t *testing.T, svc Service, reference string) *models.Order {
	t.Helper()

	order, err := svc.Intake(context.Background(), IntakeInput{
		Reference:      reference,
		WindowStart:    orderHour(9),
		WindowEnd:      orderHour(12),
		PickupAddress:  "Calle Mayor 1",
		DropoffAddress: "Gran Via 44",
	})
	require.NoError(t, err)
	return order
}

func TestIntakeCreatesAwaitingAssignment(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newOrdersService(t, conn)

	order := intakeOrder(t, svc, "ORD-100")
	assert.Equal(t, enums.OrderStatusAwaitingAssignment, order.Status)
	assert.Nil(t, order.AssignedDriverID)
	assert.Nil(t, order.ScheduledAssignmentID)

	var stored models.Order
	require.NoError(t, conn.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, "ORD-100", stored.Reference)
}

func TestIntakeRejectsInvertedWindow(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newOrdersService(t, conn)

	_, err := svc.Intake(context.Background(), IntakeInput{
		Reference:      "ORD-101",
		WindowStart:    orderHour(12),
		WindowEnd:      orderHour(9),
		PickupAddress:  "Calle Mayor 1",
		DropoffAddress: "Gran Via 44",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestIntakeRequiresAddresses(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newOrdersService(t, conn)

	_, err := svc.Intake(context.Background(), IntakeInput{
		Reference:   "ORD-102",
		WindowStart: orderHour(9),
		WindowEnd:   orderHour(12),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestTransitionForwardChain(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newOrdersService(t, conn)
	ctx := context.Background()

	order := intakeOrder(t, svc, "ORD-103")

	chain := []enums.OrderStatus{
		enums.OrderStatusAwaitingPickup,
		enums.OrderStatusPickedUp,
		enums.OrderStatusInTransit,
		enums.OrderStatusDelivered,
	}
	for _, target := range chain {
		updated, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: target, Actor: "admin"})
		require.NoError(t, err, "target %s", target)
		assert.Equal(t, target, updated.Status)
	}

	var history []models.OrderStatusHistory
	require.NoError(t, conn.Where("order_id = ?", order.ID).Order("created_at").Find(&history).Error)
	require.Len(t, history, 4)
	assert.Equal(t, enums.OrderStatusAwaitingAssignment, history[0].FromStatus)
	assert.Equal(t, enums.OrderStatusDelivered, history[3].ToStatus)

	var entries []models.ActivityEntry
	require.NoError(t, conn.Where("order_id = ? AND type = ?", order.ID, enums.ActivityTypeStatusChange).Find(&entries).Error)
	assert.Len(t, entries, 4)
}

func TestTransitionAllowsForwardSkip(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newOrdersService(t, conn)

	order := intakeOrder(t, svc, "ORD-104")

	// Ranks must only increase; jumping straight to in_transit is legal.
	updated, err := svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Target:  enums.OrderStatusInTransit,
		Actor:   "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInTransit, updated.Status)
}

func TestTransitionRejectsBackwardMove(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newOrdersService(t, conn)
	ctx := context.Background()

	order := intakeOrder(t, svc, "ORD-105")
	_, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: enums.OrderStatusPickedUp, Actor: "admin"})
	require.NoError(t, err)

	for _, target := range []enums.OrderStatus{
		enums.OrderStatusAwaitingAssignment,
		enums.OrderStatusAwaitingPickup,
		enums.OrderStatusPickedUp,
	} {
		_, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: target, Actor: "admin"})
		require.Error(t, err, "target %s", target)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	}
}

func TestCancelOnlyFromEarlyStates(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newOrdersService(t, conn)
	ctx := context.Background()

	fresh := intakeOrder(t, svc, "ORD-106")
	updated, err := svc.Transition(ctx, TransitionInput{OrderID: fresh.ID, Target: enums.OrderStatusCancelled, Actor: "admin"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, updated.Status)

	pickup := intakeOrder(t, svc, "ORD-107")
	_, err = svc.Transition(ctx, TransitionInput{OrderID: pickup.ID, Target: enums.OrderStatusAwaitingPickup, Actor: "admin"})
	require.NoError(t, err)
	_, err = svc.Transition(ctx, TransitionInput{OrderID: pickup.ID, Target: enums.OrderStatusCancelled, Actor: "admin"})
	require.NoError(t, err)

	rolling := intakeOrder(t, svc, "ORD-108")
	_, err = svc.Transition(ctx, TransitionInput{OrderID: rolling.ID, Target: enums.OrderStatusPickedUp, Actor: "admin"})
	require.NoError(t, err)
	_, err = svc.Transition(ctx, TransitionInput{OrderID: rolling.ID, Target: enums.OrderStatusCancelled, Actor: "admin"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestCancelledIsTerminal(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newOrdersService(t, conn)
	ctx := context.Background()

	order := intakeOrder(t, svc, "ORD-109")
	_, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: enums.OrderStatusCancelled, Actor: "admin"})
	require.NoError(t, err)

	for _, target := range []enums.OrderStatus{
		enums.OrderStatusAwaitingPickup,
		enums.OrderStatusDelivered,
	} {
		_, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: target, Actor: "admin"})
		require.Error(t, err, "target %s", target)
	}
}

func TestTransitionRecordsNote(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newOrdersService(t, conn)

	order := intakeOrder(t, svc, "ORD-110")
	note := "client asked to cancel"
	_, err := svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Target:  enums.OrderStatusCancelled,
		Actor:   "support@desk",
		Note:    &note,
	})
	require.NoError(t, err)

	var history models.OrderStatusHistory
	require.NoError(t, conn.First(&history, "order_id = ?", order.ID).Error)
	assert.Equal(t, "support@desk", history.Actor)
	require.NotNil(t, history.Note)
	assert.Equal(t, note, *history.Note)
}

func TestGetPreloadsStatusHistory(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newOrdersService(t, conn)
	ctx := context.Background()

	order := intakeOrder(t, svc, "ORD-111")
	_, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: enums.OrderStatusAwaitingPickup, Actor: "admin"})
	require.NoError(t, err)
	_, err = svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: enums.OrderStatusPickedUp, Actor: "admin"})
	require.NoError(t, err)

	loaded, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.StatusHistory, 2)
	assert.Equal(t, enums.OrderStatusAwaitingPickup, loaded.StatusHistory[0].ToStatus)
	assert.Equal(t, enums.OrderStatusPickedUp, loaded.StatusHistory[1].ToStatus)
}

func TestTransitionUnknownOrder(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newOrdersService(t, conn)

	_, err := svc.Transition(context.Background(), TransitionInput{
		OrderID: uuid.New(),
		Target:  enums.OrderStatusAwaitingPickup,
		Actor:   "admin",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
