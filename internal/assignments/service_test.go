package assignments

import (
	"context"
	"fmt"
	"testing"

	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	pkgerrors "github.com/avelazquez/courierdesk-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignNowHappyPath(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	svc := newAssignmentsService(t, conn)
	ctx := context.Background()

	driver := seedDriver(t, conn, "Ana Soler")
	order := seedOrder(t, conn, "ORD-200", hour(9), hour(12))

	updated, err := svc.AssignNow(ctx, AssignNowInput{OrderID: order.ID, DriverID: driver.ID, Actor: "ops@desk"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAwaitingPickup, updated.Status)
	require.NotNil(t, updated.AssignedDriverID)
	assert.Equal(t, driver.ID, *updated.AssignedDriverID)

	var open []models.Assignment
	require.NoError(t, conn.Where("order_id = ? AND ended_at IS NULL", order.ID).Find(&open).Error)
	require.Len(t, open, 1)
	assert.Equal(t, driver.ID, open[0].DriverID)
	assert.Equal(t, enums.AssignmentSourceManual, open[0].Source)

	var history []models.OrderStatusHistory
	require.NoError(t, conn.Where("order_id = ?", order.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, enums.OrderStatusAwaitingAssignment, history[0].FromStatus)
	assert.Equal(t, enums.OrderStatusAwaitingPickup, history[0].ToStatus)
	assert.Equal(t, "ops@desk", history[0].Actor)

	var entries []models.ActivityEntry
	require.NoError(t, conn.Where("order_id = ?", order.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.ActivityTypeAssignNow, entries[0].Type)

	var notices []models.Notification
	require.NoError(t, conn.Where("order_id = ?", order.ID).Find(&notices).Error)
	assert.Len(t, notices, 3)
	audiences := map[enums.NotificationAudience]bool{}
	for _, notice := range notices {
		audiences[notice.Audience] = true
	}
	assert.True(t, audiences[enums.NotificationAudienceAdmin])
	assert.True(t, audiences[enums.NotificationAudienceClient])
	assert.True(t, audiences[enums.NotificationAudienceDriver])
}

func TestAssignNowRefusesDoubleBooking(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	svc := newAssignmentsService(t, conn)
	ctx := context.Background()

	driver := seedDriver(t, conn, "Bruno Vidal")
	first := seedOrder(t, conn, "ORD-201", hour(9), hour(12))
	second := seedOrder(t, conn, "ORD-202", hour(11), hour(14))

	_, err := svc.AssignNow(ctx, AssignNowInput{OrderID: first.ID, DriverID: driver.ID, Actor: "admin"})
	require.NoError(t, err)

	_, err = svc.AssignNow(ctx, AssignNowInput{OrderID: second.ID, DriverID: driver.ID, Actor: "admin"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Contains(t, typed.Message(), "time conflict with order")

	// The second order is untouched.
	var reloaded models.Order
	require.NoError(t, conn.First(&reloaded, "id = ?", second.ID).Error)
	assert.Equal(t, enums.OrderStatusAwaitingAssignment, reloaded.Status)
	assert.Nil(t, reloaded.AssignedDriverID)

	var open []models.Assignment
	require.NoError(t, conn.Where("driver_id = ? AND ended_at IS NULL", driver.ID).Find(&open).Error)
	assert.Len(t, open, 1)
}

func TestAssignNowRefusesPendingScheduleConflict(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	svc := newAssignmentsService(t, conn)
	ctx := context.Background()

	driver := seedDriver(t, conn, "Celia Arnau")
	booked := seedOrder(t, conn, "ORD-212", hour(9), hour(12))
	entry := seedSchedule(t, conn, booked.ID, driver.ID, hour(9), hour(12), hour(8), enums.ScheduledAssignmentStatusPending)

	// A pending queue entry reserves the driver's window for manual
	// assignment too; only the sweep may consume it.
	overlapping := seedOrder(t, conn, "ORD-213", hour(11), hour(14))
	_, err := svc.AssignNow(ctx, AssignNowInput{OrderID: overlapping.ID, DriverID: driver.ID, Actor: "admin"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Equal(t, fmt.Sprintf("time conflict with a scheduled order %s", entry.OrderID), typed.Message())

	var open []models.Assignment
	require.NoError(t, conn.Where("driver_id = ? AND ended_at IS NULL", driver.ID).Find(&open).Error)
	assert.Empty(t, open)
}

func TestAssignNowAllowsDisjointWindows(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	svc := newAssignmentsService(t, conn)
	ctx := context.Background()

	driver := seedDriver(t, conn, "Clara Ponce")
	morning := seedOrder(t, conn, "ORD-203", hour(9), hour(12))
	afternoon := seedOrder(t, conn, "ORD-204", hour(12), hour(15))

	_, err := svc.AssignNow(ctx, AssignNowInput{OrderID: morning.ID, DriverID: driver.ID, Actor: "admin"})
	require.NoError(t, err)

	// Touching windows never conflict.
	_, err = svc.AssignNow(ctx, AssignNowInput{OrderID: afternoon.ID, DriverID: driver.ID, Actor: "admin"})
	require.NoError(t, err)

	var open []models.Assignment
	require.NoError(t, conn.Where("driver_id = ? AND ended_at IS NULL", driver.ID).Find(&open).Error)
	assert.Len(t, open, 2)
}

func TestAssignNowReassignsOpenOrder(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	svc := newAssignmentsService(t, conn)
	ctx := context.Background()

	first := seedDriver(t, conn, "Dario Fuentes")
	second := seedDriver(t, conn, "Elena Roca")
	order := seedOrder(t, conn, "ORD-205", hour(9), hour(12))

	_, err := svc.AssignNow(ctx, AssignNowInput{OrderID: order.ID, DriverID: first.ID, Actor: "admin"})
	require.NoError(t, err)

	updated, err := svc.AssignNow(ctx, AssignNowInput{OrderID: order.ID, DriverID: second.ID, Actor: "admin"})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedDriverID)
	assert.Equal(t, second.ID, *updated.AssignedDriverID)
	// No second status transition: the order was already awaiting pickup.
	assert.Equal(t, enums.OrderStatusAwaitingPickup, updated.Status)

	var all []models.Assignment
	require.NoError(t, conn.Where("order_id = ?", order.ID).Find(&all).Error)
	require.Len(t, all, 2)

	var open []models.Assignment
	require.NoError(t, conn.Where("order_id = ? AND ended_at IS NULL", order.ID).Find(&open).Error)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].DriverID)
}

func TestAssignNowRejectsLateStatus(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	svc := newAssignmentsService(t, conn)
	ctx := context.Background()

	driver := seedDriver(t, conn, "Fede Llanos")
	order := seedOrder(t, conn, "ORD-206", hour(9), hour(12))
	require.NoError(t, conn.Model(order).Update("status", enums.OrderStatusInTransit).Error)

	_, err := svc.AssignNow(ctx, AssignNowInput{OrderID: order.ID, DriverID: driver.ID, Actor: "admin"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestUnassignClearsDriverAndKeepsStatus(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	svc := newAssignmentsService(t, conn)
	ctx := context.Background()

	driver := seedDriver(t, conn, "Gema Ortiz")
	order := seedOrder(t, conn, "ORD-207", hour(9), hour(12))

	_, err := svc.AssignNow(ctx, AssignNowInput{OrderID: order.ID, DriverID: driver.ID, Actor: "admin"})
	require.NoError(t, err)

	updated, err := svc.Unassign(ctx, UnassignInput{OrderID: order.ID, Actor: "admin"})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedDriverID)
	assert.Equal(t, enums.OrderStatusAwaitingPickup, updated.Status)

	var open []models.Assignment
	require.NoError(t, conn.Where("order_id = ? AND ended_at IS NULL", order.ID).Find(&open).Error)
	assert.Empty(t, open)

	// The ledger keeps the ended row.
	var all []models.Assignment
	require.NoError(t, conn.Where("order_id = ?", order.ID).Find(&all).Error)
	require.Len(t, all, 1)
	assert.NotNil(t, all[0].EndedAt)
}

func TestUnassignWithoutAssignment(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	svc := newAssignmentsService(t, conn)

	order := seedOrder(t, conn, "ORD-208", hour(9), hour(12))

	_, err := svc.Unassign(context.Background(), UnassignInput{OrderID: order.ID, Actor: "admin"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestMultipleOpenAssignmentsRefused(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	svc := newAssignmentsService(t, conn)
	ctx := context.Background()

	driver := seedDriver(t, conn, "Hugo Peral")
	other := seedDriver(t, conn, "Irene Salas")
	order := seedOrder(t, conn, "ORD-209", hour(9), hour(12))

	// Corrupt ledger: two open rows for one order.
	seedOpenAssignment(t, conn, order.ID, driver.ID, hour(9), hour(12))
	seedOpenAssignment(t, conn, order.ID, other.ID, hour(9), hour(12))

	_, err := svc.Unassign(ctx, UnassignInput{OrderID: order.ID, Actor: "admin"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	// Nothing was silently repaired.
	var open []models.Assignment
	require.NoError(t, conn.Where("order_id = ? AND ended_at IS NULL", order.ID).Find(&open).Error)
	assert.Len(t, open, 2)
}

func TestListAssignableDrivers(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	svc := newAssignmentsService(t, conn)
	ctx := context.Background()

	free := seedDriver(t, conn, "Jorge Lema")
	busy := seedDriver(t, conn, "Karla Mena")
	blocked := seedOrder(t, conn, "ORD-210", hour(9), hour(12))
	seedOpenAssignment(t, conn, blocked.ID, busy.ID, hour(9), hour(12))

	target := seedOrder(t, conn, "ORD-211", hour(10), hour(13))

	result, err := svc.ListAssignableDrivers(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, result, 2)

	byID := map[uuid.UUID]AssignableDriver{}
	for _, candidate := range result {
		byID[candidate.Driver.ID] = candidate
	}
	assert.True(t, byID[free.ID].Decision.Assignable)
	assert.False(t, byID[busy.ID].Decision.Assignable)
	assert.Contains(t, byID[busy.ID].Decision.Reason, "time conflict with order")
}

func TestEvaluateEndpointOrderNotFound(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	svc := newAssignmentsService(t, conn)

	_, err := svc.Evaluate(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
