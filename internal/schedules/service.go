package schedules

import (
	"context"
	"fmt"
	"time"

	"github.com/avelazquez/courierdesk-backend/internal/activity"
	"github.com/avelazquez/courierdesk-backend/internal/drivers"
	"github.com/avelazquez/courierdesk-backend/internal/notifications"
	"github.com/avelazquez/courierdesk-backend/internal/orders"
	"github.com/avelazquez/courierdesk-backend/pkg/db"
	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	pkgerrors "github.com/avelazquez/courierdesk-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the deferred assignment queue. Scheduling deliberately does
// not evaluate driver availability: conditions at execution time are what
// matter, and the sweep re-checks them before binding.
type Service interface {
	Schedule(ctx context.Context, input ScheduleInput) (*models.ScheduledAssignment, error)
	Reschedule(ctx context.Context, input RescheduleInput) (*models.ScheduledAssignment, error)
	Cancel(ctx context.Context, input CancelInput) (*models.ScheduledAssignment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ScheduledAssignment, error)
}

type service struct {
	repo     Repository
	orders   orders.Repository
	drivers  drivers.Repository
	tx       txRunner
	recorder *activity.Recorder
	outbox   *notifications.Outbox
	now      func() time.Time
}

// NewService wires the schedule queue dependencies.
func NewService(repo Repository, orderRepo orders.Repository, driverRepo drivers.Repository, tx txRunner, recorder *activity.Recorder, outbox *notifications.Outbox) (Service, error) {
	if repo == nil || orderRepo == nil || driverRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "schedule repositories required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if recorder == nil || outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity recorder and notification outbox required")
	}
	return &service{
		repo:     repo,
		orders:   orderRepo,
		drivers:  driverRepo,
		tx:       tx,
		recorder: recorder,
		outbox:   outbox,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Schedule creates the order's deferred entry, or updates the live one in
// place when the order already has one. A second schedule call supersedes the
// first rather than stacking.
func (s *service) Schedule(ctx context.Context, input ScheduleInput) (*models.ScheduledAssignment, error) {
	if input.OrderID == uuid.Nil || input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and driver id required")
	}
	if input.ExecuteAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "execute_at required")
	}
	if input.Actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor required")
	}

	var entry *models.ScheduledAssignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindByID(ctx, input.OrderID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusAwaitingAssignment && order.Status != enums.OrderStatusAwaitingPickup {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot schedule assignment for order in status %s", order.Status))
		}

		driver, err := s.drivers.WithTx(tx).FindByID(ctx, input.DriverID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
		}

		repo := s.repo.WithTx(tx)
		live, err := repo.FindLiveByOrder(ctx, order.ID)
		if err != nil && !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load live schedule")
		}

		activityType := enums.ActivityTypeSchedule
		switch {
		case live != nil && live.Status == enums.ScheduledAssignmentStatusProcessing:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "scheduled assignment is being executed")
		case live != nil:
			if err := repo.Update(ctx, live.ID, map[string]any{
				"driver_id":  input.DriverID,
				"execute_at": input.ExecuteAt,
				"starts_at":  order.WindowStart,
				"ends_at":    order.WindowEnd,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update scheduled assignment")
			}
			live.DriverID = input.DriverID
			live.ExecuteAt = input.ExecuteAt
			live.StartsAt = order.WindowStart
			live.EndsAt = order.WindowEnd
			entry = live
			activityType = enums.ActivityTypeReschedule
		default:
			created, err := repo.Create(ctx, &models.ScheduledAssignment{
				ID:        uuid.New(),
				OrderID:   order.ID,
				DriverID:  input.DriverID,
				StartsAt:  order.WindowStart,
				EndsAt:    order.WindowEnd,
				ExecuteAt: input.ExecuteAt,
				Status:    enums.ScheduledAssignmentStatusPending,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create scheduled assignment")
			}
			entry = created
		}

		if order.ScheduledAssignmentID == nil || *order.ScheduledAssignmentID != entry.ID {
			if err := s.orders.WithTx(tx).Update(ctx, order.ID, map[string]any{"scheduled_assignment_id": entry.ID}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link schedule to order")
			}
		}

		record := models.ActivityEntry{
			Type:     activityType,
			OrderID:  &order.ID,
			DriverID: &input.DriverID,
			Actor:    input.Actor,
			Payload: map[string]any{
				"schedule_id": entry.ID.String(),
				"execute_at":  input.ExecuteAt,
			},
		}
		if err := s.recorder.Append(ctx, tx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record schedule")
		}

		notices := []models.Notification{
			{
				Audience: enums.NotificationAudienceAdmin,
				OrderID:  &order.ID,
				DriverID: &input.DriverID,
				Title:    "Assignment scheduled",
				Message:  fmt.Sprintf("order %s will be assigned to %s at %s", order.Reference, driver.FullName, input.ExecuteAt.Format(time.RFC3339)),
			},
			{
				Audience: enums.NotificationAudienceClient,
				OrderID:  &order.ID,
				Title:    "Driver scheduled",
				Message:  fmt.Sprintf("a driver was scheduled for order %s", order.Reference),
			},
		}
		for _, notice := range notices {
			if err := s.outbox.Emit(ctx, tx, notice); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit notification")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Reschedule moves a pending entry. Processing and terminal entries cannot be
// moved.
func (s *service) Reschedule(ctx context.Context, input RescheduleInput) (*models.ScheduledAssignment, error) {
	if input.ScheduleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "schedule id required")
	}
	if input.Actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor required")
	}
	if input.DriverID == uuid.Nil && input.ExecuteAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to reschedule")
	}

	var entry *models.ScheduledAssignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, input.ScheduleID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "scheduled assignment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scheduled assignment")
		}

		updates := map[string]any{}
		if input.DriverID != uuid.Nil {
			updates["driver_id"] = input.DriverID
			current.DriverID = input.DriverID
		}
		if !input.ExecuteAt.IsZero() {
			updates["execute_at"] = input.ExecuteAt
			current.ExecuteAt = input.ExecuteAt
		}

		// Pending-to-pending compare-and-set: a concurrent claim wins.
		moved, err := repo.TransitionStatus(ctx, current.ID,
			enums.ScheduledAssignmentStatusPending, enums.ScheduledAssignmentStatusPending, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reschedule")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot reschedule assignment in status %s", current.Status))
		}

		record := models.ActivityEntry{
			Type:     enums.ActivityTypeReschedule,
			OrderID:  &current.OrderID,
			DriverID: &current.DriverID,
			Actor:    input.Actor,
			Payload: map[string]any{
				"schedule_id": current.ID.String(),
				"execute_at":  current.ExecuteAt,
			},
		}
		if err := s.recorder.Append(ctx, tx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record reschedule")
		}

		notices := []models.Notification{
			{
				Audience: enums.NotificationAudienceAdmin,
				OrderID:  &current.OrderID,
				DriverID: &current.DriverID,
				Title:    "Assignment rescheduled",
				Message: fmt.Sprintf("scheduled assignment moved to %s by %s",
					current.ExecuteAt.Format(time.RFC3339), input.Actor),
			},
			{
				Audience: enums.NotificationAudienceClient,
				OrderID:  &current.OrderID,
				Title:    "Driver schedule updated",
				Message:  "the scheduled driver for your order was updated",
			},
		}
		for _, notice := range notices {
			if err := s.outbox.Emit(ctx, tx, notice); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit notification")
			}
		}
		entry = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Cancel moves a pending entry to cancelled and detaches it from its order.
// Processing entries belong to the sweep and cannot be cancelled; terminal
// entries stay as they ended.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.ScheduledAssignment, error) {
	if input.ScheduleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "schedule id required")
	}
	if input.Actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor required")
	}

	var entry *models.ScheduledAssignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, input.ScheduleID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "scheduled assignment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scheduled assignment")
		}

		cancelled, err := repo.TransitionStatus(ctx, current.ID,
			enums.ScheduledAssignmentStatusPending, enums.ScheduledAssignmentStatusCancelled, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel scheduled assignment")
		}
		if !cancelled {
			if current.Status == enums.ScheduledAssignmentStatusProcessing {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "scheduled assignment is being executed")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot cancel assignment in status %s", current.Status))
		}
		current.Status = enums.ScheduledAssignmentStatusCancelled

		if err := s.orders.WithTx(tx).Update(ctx, current.OrderID, map[string]any{"scheduled_assignment_id": nil}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach schedule from order")
		}

		note := "cancelled by admin"
		record := models.ActivityEntry{
			Type:     enums.ActivityTypeCancelSchedule,
			OrderID:  &current.OrderID,
			DriverID: &current.DriverID,
			Actor:    input.Actor,
			Note:     &note,
			Payload:  map[string]any{"schedule_id": current.ID.String()},
		}
		if err := s.recorder.Append(ctx, tx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record cancellation")
		}

		notices := []models.Notification{
			{
				Audience: enums.NotificationAudienceAdmin,
				OrderID:  &current.OrderID,
				DriverID: &current.DriverID,
				Title:    "Schedule cancelled",
				Message:  fmt.Sprintf("scheduled assignment for order was cancelled by %s", input.Actor),
			},
			{
				Audience: enums.NotificationAudienceClient,
				OrderID:  &current.OrderID,
				Title:    "Driver schedule cancelled",
				Message:  "the scheduled driver for your order was cancelled",
			},
		}
		for _, notice := range notices {
			if err := s.outbox.Emit(ctx, tx, notice); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit notification")
			}
		}
		entry = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ScheduledAssignment, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scheduled assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scheduled assignment")
	}
	return entry, nil
}
