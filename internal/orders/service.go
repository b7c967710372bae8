package orders

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

// IntakeInput carries the fields accepted when registering a new order.
type IntakeInput struct {
	Reference      string    `json:"reference" validate:"required"`
	WindowStart    time.Time `json:"window_start" validate:"required"`
	WindowEnd      time.Time `json:"window_end" validate:"required"`
	PickupAddress  string    `json:"pickup_address" validate:"required"`
	DropoffAddress string    `json:"dropoff_address" validate:"required"`
}

// TransitionInput carries a requested status change.
type TransitionInput struct {
	OrderID uuid.UUID
	Target  enums.OrderStatus
	Actor   string
	Note    *string
}

// Service defines order intake and lifecycle operations.
type Service interface {
	Intake(ctx context.Context, input IntakeInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	recorder *activity.Recorder
}

// NewService builds the orders service.
func NewService(repo Repository, tx txRunner, recorder *activity.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	return &service{repo: repo, tx: tx, recorder: recorder}, nil
}

func (s *service) Intake(ctx context.Context, input IntakeInput) (*models.Order, error) {
	if input.Reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}
	window := interval.Window{Start: input.WindowStart, End: input.WindowEnd}
	if err := window.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery window")
	}
	if input.PickupAddress == "" || input.DropoffAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup and dropoff addresses required")
	}

	order := &models.Order{
		ID:             uuid.New(),
		Reference:      input.Reference,
		Status:         enums.OrderStatusAwaitingAssignment,
		WindowStart:    input.WindowStart,
		WindowEnd:      input.WindowEnd,
		PickupAddress:  input.PickupAddress,
		DropoffAddress: input.DropoffAddress,
	}
	if _, err := s.repo.Create(ctx, order); err != nil {
		if db.IsDuplicateKey(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("order reference %s already exists", input.Reference))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context) ([]models.Order, error) {
	result, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return result, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		previous := order.Status
		if err := ApplyTransition(ctx, repo, order, input.Target, input.Actor, input.Note); err != nil {
			return err
		}

		orderID := order.ID
		entry := models.ActivityEntry{
			Type:     enums.ActivityTypeStatusChange,
			OrderID:  &orderID,
			DriverID: order.AssignedDriverID,
			Actor:    input.Actor,
			Note:     input.Note,
			Payload: map[string]any{
				"from": previous.String(),
				"to":   input.Target.String(),
			},
		}
		if err := s.recorder.Append(ctx, tx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status activity")
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
