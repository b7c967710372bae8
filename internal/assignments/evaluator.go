package assignments

import (
	"context"
	"fmt"

	"github.com/avelazquez/courierdesk-backend/internal/drivers"
	"github.com/avelazquez/courierdesk-backend/internal/schedules"
	"github.com/avelazquez/courierdesk-backend/pkg/db"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	pkgerrors "github.com/avelazquez/courierdesk-backend/pkg/errors"
	"github.com/avelazquez/courierdesk-backend/pkg/interval"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Decision is the structured answer to "can this driver take this window?".
// Rejections are data, not errors: the caller decides what to do next.
type Decision struct {
	Assignable      bool       `json:"assignable"`
	Reason          string     `json:"reason,omitempty"`
	ConflictOrderID *uuid.UUID `json:"conflict_order_id,omitempty"`
}

// EvaluateOptions tune which existing commitments are excluded from the
// conflict scan. CurrentOrderID lets a window be re-validated against the
// order it already belongs to; IgnoreScheduledID lets the sweep re-validate a
// claimed entry without it conflicting with itself.
type EvaluateOptions struct {
	IgnoreScheduledID *uuid.UUID
	CurrentOrderID    *uuid.UUID
}

// Evaluator composes the driver directory, the commitment ledger and the
// deferred queue to answer assignability questions.
type Evaluator struct {
	drivers drivers.Repository
	ledger  Repository
	queue   schedules.Repository
}

// NewEvaluator wires the evaluator's read dependencies.
func NewEvaluator(driverRepo drivers.Repository, ledger Repository, queue schedules.Repository) (*Evaluator, error) {
	if driverRepo == nil {
		return nil, fmt.Errorf("drivers repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if queue == nil {
		return nil, fmt.Errorf("schedules repository required")
	}
	return &Evaluator{drivers: driverRepo, ledger: ledger, queue: queue}, nil
}

// WithTx returns an evaluator whose reads run inside tx, so a check and the
// mutation it guards observe the same snapshot.
func (e *Evaluator) WithTx(tx *gorm.DB) *Evaluator {
	if tx == nil {
		return e
	}
	return &Evaluator{
		drivers: e.drivers.WithTx(tx),
		ledger:  e.ledger.WithTx(tx),
		queue:   e.queue.WithTx(tx),
	}
}

// Evaluate runs the assignability checks in their canonical order, stopping
// at the first failure.
func (e *Evaluator) Evaluate(ctx context.Context, driverID uuid.UUID, window interval.Window, opts EvaluateOptions) (Decision, error) {
	driver, err := e.drivers.FindByID(ctx, driverID)
	if err != nil {
		if db.IsNotFound(err) {
			return Decision{Reason: "driver not found"}, nil
		}
		return Decision{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
	}

	if driver.LifecycleStatus == enums.DriverLifecycleStatusInactive {
		return Decision{Reason: "driver is inactive"}, nil
	}
	if driver.WorkflowStatus == enums.DriverWorkflowStatusPaused {
		return Decision{Reason: "driver is paused"}, nil
	}

	for _, unavailability := range driver.Unavailabilities {
		if interval.Overlaps(unavailability.StartsAt, unavailability.EndsAt, window.Start, window.End) {
			return Decision{Reason: "driver unavailable for this window"}, nil
		}
	}

	open, err := e.ledger.FindOpenByDriver(ctx, driverID)
	if err != nil {
		return Decision{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open assignments")
	}
	for _, assignment := range open {
		if opts.CurrentOrderID != nil && assignment.OrderID == *opts.CurrentOrderID {
			continue
		}
		if interval.Overlaps(assignment.StartsAt, assignment.EndsAt, window.Start, window.End) {
			conflict := assignment.OrderID
			return Decision{
				Reason:          fmt.Sprintf("time conflict with order %s", conflict),
				ConflictOrderID: &conflict,
			}, nil
		}
	}

	blocking, err := e.queue.FindBlockingByDriver(ctx, driverID)
	if err != nil {
		return Decision{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scheduled assignments")
	}
	for _, scheduled := range blocking {
		if opts.IgnoreScheduledID != nil && scheduled.ID == *opts.IgnoreScheduledID {
			continue
		}
		if opts.CurrentOrderID != nil && scheduled.OrderID == *opts.CurrentOrderID {
			continue
		}
		if interval.Overlaps(scheduled.StartsAt, scheduled.EndsAt, window.Start, window.End) {
			conflict := scheduled.OrderID
			return Decision{
				Reason:          fmt.Sprintf("time conflict with a scheduled order %s", conflict),
				ConflictOrderID: &conflict,
			}, nil
		}
	}

	return Decision{Assignable: true}, nil
}
