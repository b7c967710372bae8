package assignments

import (
	"context"
	"fmt"
	"time"

	"github.com/avelazquez/courierdesk-backend/internal/activity"
	"github.com/avelazquez/courierdesk-backend/internal/drivers"
	"github.com/avelazquez/courierdesk-backend/internal/notifications"
	"github.com/avelazquez/courierdesk-backend/internal/orders"
	"github.com/avelazquez/courierdesk-backend/internal/schedules"
	"github.com/avelazquez/courierdesk-backend/pkg/db"
	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	pkgerrors "github.com/avelazquez/courierdesk-backend/pkg/errors"
	"github.com/avelazquez/courierdesk-backend/pkg/interval"
	"github.com/avelazquez/courierdesk-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns every write to the commitment ledger and to the order fields
// it controls (status, assigned_driver_id, scheduled_assignment_id).
type Service interface {
	Evaluate(ctx context.Context, orderID, driverID uuid.UUID) (Decision, error)
	ListAssignableDrivers(ctx context.Context, orderID uuid.UUID) ([]AssignableDriver, error)
	AssignNow(ctx context.Context, input AssignNowInput) (*models.Order, error)
	Unassign(ctx context.Context, input UnassignInput) (*models.Order, error)
	// Apply performs the post-check mutation inside the caller's transaction.
	// The caller has already evaluated; Apply trusts the verdict.
	Apply(ctx context.Context, tx *gorm.DB, order *models.Order, driverID uuid.UUID, source enums.AssignmentSource, scheduled *models.ScheduledAssignment, actor string) error
	EvaluatorFor(tx *gorm.DB) *Evaluator
}

type service struct {
	orders    orders.Repository
	drivers   drivers.Repository
	ledger    Repository
	queue     schedules.Repository
	evaluator *Evaluator
	tx        txRunner
	recorder  *activity.Recorder
	outbox    *notifications.Outbox
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the assignment operations.
func NewService(
	orderRepo orders.Repository,
	driverRepo drivers.Repository,
	ledger Repository,
	queue schedules.Repository,
	tx txRunner,
	recorder *activity.Recorder,
	outbox *notifications.Outbox,
	logg *logger.Logger,
) (Service, error) {
	if orderRepo == nil || driverRepo == nil || ledger == nil || queue == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assignment repositories required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if recorder == nil || outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity recorder and notification outbox required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	evaluator, err := NewEvaluator(driverRepo, ledger, queue)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build evaluator")
	}
	return &service{
		orders:    orderRepo,
		drivers:   driverRepo,
		ledger:    ledger,
		queue:     queue,
		evaluator: evaluator,
		tx:        tx,
		recorder:  recorder,
		outbox:    outbox,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// EvaluatorFor exposes a tx-bound evaluator for callers that run their own
// claim-then-check sequence, such as the sweep job.
func (s *service) EvaluatorFor(tx *gorm.DB) *Evaluator {
	return s.evaluator.WithTx(tx)
}

func (s *service) Evaluate(ctx context.Context, orderID, driverID uuid.UUID) (Decision, error) {
	order, err := s.loadOrder(ctx, s.orders, orderID)
	if err != nil {
		return Decision{}, err
	}
	window := interval.Window{Start: order.WindowStart, End: order.WindowEnd}
	return s.evaluator.Evaluate(ctx, driverID, window, EvaluateOptions{CurrentOrderID: &order.ID})
}

func (s *service) ListAssignableDrivers(ctx context.Context, orderID uuid.UUID) ([]AssignableDriver, error) {
	order, err := s.loadOrder(ctx, s.orders, orderID)
	if err != nil {
		return nil, err
	}
	window := interval.Window{Start: order.WindowStart, End: order.WindowEnd}

	active := enums.DriverLifecycleStatusActive
	candidates, err := s.drivers.List(ctx, &active)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list drivers")
	}

	result := make([]AssignableDriver, 0, len(candidates))
	for _, candidate := range candidates {
		decision, err := s.evaluator.Evaluate(ctx, candidate.ID, window, EvaluateOptions{CurrentOrderID: &order.ID})
		if err != nil {
			return nil, err
		}
		result = append(result, AssignableDriver{Driver: candidate, Decision: decision})
	}
	return result, nil
}

func (s *service) AssignNow(ctx context.Context, input AssignNowInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil || input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and driver id required")
	}
	if input.Actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.loadOrder(ctx, s.orders.WithTx(tx), input.OrderID)
		if err != nil {
			return err
		}
		if loaded.Status != enums.OrderStatusAwaitingAssignment && loaded.Status != enums.OrderStatusAwaitingPickup {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot assign order in status %s", loaded.Status))
		}

		window := interval.Window{Start: loaded.WindowStart, End: loaded.WindowEnd}
		decision, err := s.evaluator.WithTx(tx).Evaluate(ctx, input.DriverID, window, EvaluateOptions{CurrentOrderID: &loaded.ID})
		if err != nil {
			return err
		}
		if !decision.Assignable {
			rejection := pkgerrors.New(pkgerrors.CodeStateConflict, decision.Reason)
			if decision.ConflictOrderID != nil {
				rejection = rejection.WithDetails(map[string]any{"conflict_order_id": decision.ConflictOrderID.String()})
			}
			return rejection
		}

		if err := s.Apply(ctx, tx, loaded, input.DriverID, enums.AssignmentSourceManual, nil, input.Actor); err != nil {
			return err
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Unassign(ctx context.Context, input UnassignInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.loadOrder(ctx, s.orders.WithTx(tx), input.OrderID)
		if err != nil {
			return err
		}

		ledger := s.ledger.WithTx(tx)
		open, err := ledger.FindOpenByOrder(ctx, loaded.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open assignment")
		}
		if len(open) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order has no active assignment")
		}
		if err := s.guardSingleOpen(ctx, loaded.ID, open); err != nil {
			return err
		}

		now := s.now()
		current := open[0]
		if err := ledger.End(ctx, current.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "end assignment")
		}
		if err := s.orders.WithTx(tx).Update(ctx, loaded.ID, map[string]any{"assigned_driver_id": nil}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear assigned driver")
		}
		loaded.AssignedDriverID = nil

		entry := models.ActivityEntry{
			Type:     enums.ActivityTypeUnassign,
			OrderID:  &loaded.ID,
			DriverID: &current.DriverID,
			Actor:    input.Actor,
			Note:     input.Note,
		}
		if err := s.recorder.Append(ctx, tx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record unassign")
		}

		notices := []models.Notification{
			{
				Audience: enums.NotificationAudienceAdmin,
				OrderID:  &loaded.ID,
				DriverID: &current.DriverID,
				Title:    "Order unassigned",
				Message:  fmt.Sprintf("order %s no longer has a driver", loaded.Reference),
			},
			{
				Audience: enums.NotificationAudienceDriver,
				OrderID:  &loaded.ID,
				DriverID: &current.DriverID,
				Title:    "Delivery unassigned",
				Message:  fmt.Sprintf("you were removed from order %s", loaded.Reference),
			},
		}
		for _, notice := range notices {
			if err := s.outbox.Emit(ctx, tx, notice); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit notification")
			}
		}

		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Apply ends any open assignment for the order, creates the new one and
// updates the order's link fields. With a non-nil scheduled entry it also
// completes that entry, which must already be claimed as processing.
func (s *service) Apply(ctx context.Context, tx *gorm.DB, order *models.Order, driverID uuid.UUID, source enums.AssignmentSource, scheduled *models.ScheduledAssignment, actor string) error {
	now := s.now()
	ledger := s.ledger.WithTx(tx)

	open, err := ledger.FindOpenByOrder(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open assignment")
	}
	if err := s.guardSingleOpen(ctx, order.ID, open); err != nil {
		return err
	}
	for _, previous := range open {
		if err := ledger.End(ctx, previous.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "end previous assignment")
		}
	}

	assignment := &models.Assignment{
		ID:       uuid.New(),
		OrderID:  order.ID,
		DriverID: driverID,
		StartsAt: order.WindowStart,
		EndsAt:   order.WindowEnd,
		Source:   source,
	}
	if _, err := ledger.Create(ctx, assignment); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
	}

	updates := map[string]any{"assigned_driver_id": driverID}
	if scheduled != nil {
		updates["scheduled_assignment_id"] = nil
	}
	if err := s.orders.WithTx(tx).Update(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link driver to order")
	}
	order.AssignedDriverID = &driverID
	if scheduled != nil {
		order.ScheduledAssignmentID = nil
	}

	if order.Status == enums.OrderStatusAwaitingAssignment {
		if err := orders.ApplyTransition(ctx, s.orders.WithTx(tx), order, enums.OrderStatusAwaitingPickup, actor, nil); err != nil {
			return err
		}
	}

	if scheduled != nil {
		claimed, err := s.queue.WithTx(tx).TransitionStatus(ctx, scheduled.ID,
			enums.ScheduledAssignmentStatusProcessing, enums.ScheduledAssignmentStatusCompleted,
			map[string]any{"executed_at": now})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete scheduled assignment")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeConflict, "scheduled assignment is no longer claimed")
		}
	}

	activityType := enums.ActivityTypeAssignNow
	if source == enums.AssignmentSourceScheduled {
		activityType = enums.ActivityTypeExecution
	}
	entry := models.ActivityEntry{
		Type:     activityType,
		OrderID:  &order.ID,
		DriverID: &driverID,
		Actor:    actor,
		Payload: map[string]any{
			"assignment_id": assignment.ID.String(),
			"window_start":  order.WindowStart,
			"window_end":    order.WindowEnd,
		},
	}
	if err := s.recorder.Append(ctx, tx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record assignment")
	}

	driver, err := s.drivers.WithTx(tx).FindByID(ctx, driverID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assigned driver")
	}
	notices := []models.Notification{
		{
			Audience: enums.NotificationAudienceAdmin,
			OrderID:  &order.ID,
			DriverID: &driverID,
			Title:    "Order assigned",
			Message:  fmt.Sprintf("order %s assigned to %s", order.Reference, driver.FullName),
		},
		{
			Audience: enums.NotificationAudienceClient,
			OrderID:  &order.ID,
			Title:    "Driver assigned",
			Message:  fmt.Sprintf("a driver was assigned to order %s", order.Reference),
		},
		{
			Audience: enums.NotificationAudienceDriver,
			OrderID:  &order.ID,
			DriverID: &driverID,
			Title:    "New delivery",
			Message:  fmt.Sprintf("you were assigned order %s", order.Reference),
		},
	}
	for _, notice := range notices {
		if err := s.outbox.Emit(ctx, tx, notice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit notification")
		}
	}
	return nil
}

// guardSingleOpen refuses to operate on an order whose ledger already shows
// more than one open row. The data is wrong; repairing it silently would hide
// the bug that produced it.
func (s *service) guardSingleOpen(ctx context.Context, orderID uuid.UUID, open []models.Assignment) error {
	if len(open) <= 1 {
		return nil
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())
	s.logg.Error(ctx, "multiple open assignments for one order", nil)
	return pkgerrors.New(pkgerrors.CodeConflict, "order has multiple open assignments").
		WithDetails(map[string]any{"open_assignments": len(open)})
}

func (s *service) loadOrder(ctx context.Context, repo orders.Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
