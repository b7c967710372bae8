package drivers

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

func setupDriversTestDB(t *testing.T) *gorm.DB {
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

func newDriversService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	client := db.NewFromConn(conn)
	recorder := activity.NewRecorder(activity.NewRepository(conn))
	svc, err := NewService(NewRepository(conn), client, recorder)
	require.NoError(t, err)
	return svc
}

func TestCreateAndGetDriver(t *testing.T) {
	conn := setupDriversTestDB(t)
	svc := newDriversService(t, conn)
	ctx := context.Background()

	phone := "+34600111222"
	created, err := svc.Create(ctx, CreateDriverInput{FullName: "Marta Iglesias", Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, enums.DriverLifecycleStatusActive, created.LifecycleStatus)
	assert.Equal(t, enums.DriverWorkflowStatusAvailable, created.WorkflowStatus)

	loaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Marta Iglesias", loaded.FullName)
	require.NotNil(t, loaded.Phone)
	assert.Equal(t, phone, *loaded.Phone)
}

func TestGetDriverNotFound(t *testing.T) {
	conn := setupDriversTestDB(t)
	svc := newDriversService(t, conn)

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDeactivateDriver(t *testing.T) {
	conn := setupDriversTestDB(t)
	svc := newDriversService(t, conn)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateDriverInput{FullName: "Luis Romero"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, created.ID, "admin"))

	loaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DriverLifecycleStatusInactive, loaded.LifecycleStatus)

	// Deactivating again is a no-op.
	require.NoError(t, svc.Deactivate(ctx, created.ID, "admin"))
}

func TestSetWorkflowStatus(t *testing.T) {
	conn := setupDriversTestDB(t)
	svc := newDriversService(t, conn)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateDriverInput{FullName: "Nadia Kim"})
	require.NoError(t, err)

	require.NoError(t, svc.SetWorkflowStatus(ctx, SetWorkflowStatusInput{
		DriverID: created.ID,
		Status:   enums.DriverWorkflowStatusPaused,
		Actor:    "admin",
	}))

	loaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DriverWorkflowStatusPaused, loaded.WorkflowStatus)
}

func TestAddUnavailabilityPersistsMergedSet(t *testing.T) {
	conn := setupDriversTestDB(t)
	svc := newDriversService(t, conn)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateDriverInput{FullName: "Pablo Duarte"})
	require.NoError(t, err)

	monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	_, err = svc.AddUnavailability(ctx, AddUnavailabilityInput{
		DriverID: created.ID,
		Type:     enums.UnavailabilityTypeIllness,
		StartsAt: monday.Add(9 * time.Hour),
		EndsAt:   monday.Add(17 * time.Hour),
		Actor:    "admin",
	})
	require.NoError(t, err)

	updated, err := svc.AddUnavailability(ctx, AddUnavailabilityInput{
		DriverID: created.ID,
		Type:     enums.UnavailabilityTypeIllness,
		StartsAt: monday.Add(15 * time.Hour),
		EndsAt:   monday.Add(33 * time.Hour),
		Actor:    "admin",
	})
	require.NoError(t, err)

	require.Len(t, updated.Unavailabilities, 1)
	assert.Equal(t, monday.Add(9*time.Hour), updated.Unavailabilities[0].StartsAt.UTC())
	assert.Equal(t, monday.Add(33*time.Hour), updated.Unavailabilities[0].EndsAt.UTC())

	var stored []models.DriverUnavailability
	require.NoError(t, conn.Where("driver_id = ?", created.ID).Find(&stored).Error)
	require.Len(t, stored, 1)

	var entries []models.ActivityEntry
	require.NoError(t, conn.Where("driver_id = ?", created.ID).Find(&entries).Error)
	assert.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, enums.ActivityTypeUnavailabilityAdded, entry.Type)
	}
}

func TestAddUnavailabilityRejectsInvertedWindow(t *testing.T) {
	conn := setupDriversTestDB(t)
	svc := newDriversService(t, conn)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateDriverInput{FullName: "Iris Chen"})
	require.NoError(t, err)

	start := time.Date(2026, time.March, 2, 17, 0, 0, 0, time.UTC)
	_, err = svc.AddUnavailability(ctx, AddUnavailabilityInput{
		DriverID: created.ID,
		Type:     enums.UnavailabilityTypeVacation,
		StartsAt: start,
		EndsAt:   start.Add(-time.Hour),
		Actor:    "admin",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
