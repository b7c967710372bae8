package drivers

import (
	"context"
	"fmt"
	"time"

	"github.com/avelazquez/courierdesk-backend/internal/activity"
	"github.com/avelazquez/courierdesk-backend/pkg/db"
	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	pkgerrors "github.com/avelazquez/courierdesk-backend/pkg/errors"
	"github.com/avelazquez/courierdesk-backend/pkg/interval"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines directory-admin operations on drivers.
type Service interface {
	Create(ctx context.Context, input CreateDriverInput) (*models.Driver, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	List(ctx context.Context, lifecycle *enums.DriverLifecycleStatus) ([]models.Driver, error)
	Deactivate(ctx context.Context, id uuid.UUID, actor string) error
	SetWorkflowStatus(ctx context.Context, input SetWorkflowStatusInput) error
	AddUnavailability(ctx context.Context, input AddUnavailabilityInput) (*models.Driver, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	recorder *activity.Recorder
	now      func() time.Time
}

// NewService builds the driver directory service.
func NewService(repo Repository, tx txRunner, recorder *activity.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("drivers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		recorder: recorder,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateDriverInput) (*models.Driver, error) {
	if input.FullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver name required")
	}

	driver := &models.Driver{
		ID:              uuid.New(),
		FullName:        input.FullName,
		Phone:           input.Phone,
		LifecycleStatus: enums.DriverLifecycleStatusActive,
		WorkflowStatus:  enums.DriverWorkflowStatusAvailable,
	}
	if _, err := s.repo.Create(ctx, driver); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create driver")
	}
	return driver, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	driver, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
	}
	return driver, nil
}

func (s *service) List(ctx context.Context, lifecycle *enums.DriverLifecycleStatus) ([]models.Driver, error) {
	result, err := s.repo.List(ctx, lifecycle)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list drivers")
	}
	return result, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID, actor string) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		driver, err := repo.FindByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
		}
		if driver.LifecycleStatus == enums.DriverLifecycleStatusInactive {
			return nil
		}
		if err := repo.Update(ctx, id, map[string]any{
			"lifecycle_status": enums.DriverLifecycleStatusInactive,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate driver")
		}
		return nil
	})
}

func (s *service) SetWorkflowStatus(ctx context.Context, input SetWorkflowStatusInput) error {
	if input.DriverID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	if !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid workflow status")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, input.DriverID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
		}
		if err := repo.Update(ctx, input.DriverID, map[string]any{
			"workflow_status": input.Status,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update workflow status")
		}
		return nil
	})
}

// AddUnavailability appends a window and rewrites the driver's set as the
// merged minimum, all in one transaction. Readers never observe an unmerged
// set.
func (s *service) AddUnavailability(ctx context.Context, input AddUnavailabilityInput) (*models.Driver, error) {
	if input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unavailability type")
	}
	window := interval.Window{Start: input.StartsAt, End: input.EndsAt}
	if err := window.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unavailability window")
	}

	var updated *models.Driver
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		driver, err := repo.FindByID(ctx, input.DriverID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
		}

		now := s.now().UTC()
		incoming := models.DriverUnavailability{
			ID:        uuid.New(),
			DriverID:  driver.ID,
			Type:      input.Type,
			StartsAt:  input.StartsAt,
			EndsAt:    input.EndsAt,
			Reason:    input.Reason,
			CreatedAt: now,
			UpdatedAt: now,
		}
		merged := MergeUnavailabilities(append(driver.Unavailabilities, incoming), now)

		if err := repo.ReplaceUnavailabilities(ctx, driver.ID, merged); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rewrite unavailability windows")
		}

		driverID := driver.ID
		entry := models.ActivityEntry{
			Type:     enums.ActivityTypeUnavailabilityAdded,
			DriverID: &driverID,
			Actor:    input.Actor,
			Payload: map[string]any{
				"type":      input.Type.String(),
				"starts_at": input.StartsAt,
				"ends_at":   input.EndsAt,
			},
		}
		if err := s.recorder.Append(ctx, tx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record unavailability activity")
		}

		driver.Unavailabilities = merged
		updated = driver
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
