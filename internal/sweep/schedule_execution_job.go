package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/avelazquez/courierdesk-backend/internal/assignments"
	"github.com/avelazquez/courierdesk-backend/internal/orders"
	"github.com/avelazquez/courierdesk-backend/internal/schedules"
	"github.com/avelazquez/courierdesk-backend/pkg/db"
	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	"github.com/avelazquez/courierdesk-backend/pkg/interval"
	"github.com/avelazquez/courierdesk-backend/pkg/logger"
	"github.com/avelazquez/courierdesk-backend/pkg/metrics"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	defaultBatchSize = 100
	sweepActor       = "scheduler"

	outcomeAssigned = "assigned"
	outcomeFailed   = "failed"
	outcomeSkipped  = "skipped"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notificationEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, notification models.Notification) error
}

type activityAppender interface {
	Append(ctx context.Context, tx *gorm.DB, entry models.ActivityEntry) error
}

// ScheduleExecutionJobParams configure the deferred assignment executor.
type ScheduleExecutionJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Queue     schedules.Repository
	Orders    orders.Repository
	Assigner  assignments.Service
	Recorder  activityAppender
	Outbox    notificationEmitter
	Metrics   *metrics.SweepJobMetrics
	BatchSize int
}

// NewScheduleExecutionJob builds the job that promotes due pending entries.
func NewScheduleExecutionJob(params ScheduleExecutionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Queue == nil || params.Orders == nil {
		return nil, fmt.Errorf("queue and order repositories required")
	}
	if params.Assigner == nil {
		return nil, fmt.Errorf("assignment service required")
	}
	if params.Recorder == nil || params.Outbox == nil {
		return nil, fmt.Errorf("activity recorder and notification outbox required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &scheduleExecutionJob{
		logg:     params.Logger,
		db:       params.DB,
		queue:    params.Queue,
		orders:   params.Orders,
		assigner: params.Assigner,
		recorder: params.Recorder,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type scheduleExecutionJob struct {
	logg     *logger.Logger
	db       txRunner
	queue    schedules.Repository
	orders   orders.Repository
	assigner assignments.Service
	recorder activityAppender
	outbox   notificationEmitter
	metrics  *metrics.SweepJobMetrics
	batch    int
	now      func() time.Time
}

func (j *scheduleExecutionJob) Name() string { return "schedule-execution" }

// Run promotes every due pending entry. Each entry runs in its own
// transaction; one bad row never stops the pass.
func (j *scheduleExecutionJob) Run(ctx context.Context) error {
	due, err := j.queue.FindDuePending(ctx, j.now().UTC(), j.batch)
	if err != nil {
		return fmt.Errorf("query due schedules: %w", err)
	}

	var errs []error
	for _, entry := range due {
		outcome, err := j.executeEntry(ctx, entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("schedule %s: %w", entry.ID, err))
		}
		j.countOutcome(outcome)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"due": len(due), "errors": len(errs)})
	j.logg.Info(logCtx, "schedule execution pass complete")
	return multierr.Combine(errs...)
}

func (j *scheduleExecutionJob) executeEntry(ctx context.Context, entry models.ScheduledAssignment) (string, error) {
	outcome := outcomeSkipped
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		queue := j.queue.WithTx(tx)

		// The claim: only one worker moves the row out of pending.
		claimed, err := queue.TransitionStatus(ctx, entry.ID,
			enums.ScheduledAssignmentStatusPending, enums.ScheduledAssignmentStatusProcessing, nil)
		if err != nil {
			return fmt.Errorf("claim: %w", err)
		}
		if !claimed {
			return nil
		}
		entry.Status = enums.ScheduledAssignmentStatusProcessing

		order, err := j.orders.WithTx(tx).FindByID(ctx, entry.OrderID)
		if err != nil {
			if db.IsNotFound(err) {
				outcome = outcomeFailed
				return j.fail(ctx, tx, entry, nil, "order not found")
			}
			return fmt.Errorf("load order: %w", err)
		}
		if order.Status != enums.OrderStatusAwaitingAssignment && order.Status != enums.OrderStatusAwaitingPickup {
			outcome = outcomeFailed
			return j.fail(ctx, tx, entry, order, fmt.Sprintf("cannot assign order in status %s", order.Status))
		}

		window := interval.Window{Start: entry.StartsAt, End: entry.EndsAt}
		decision, err := j.assigner.EvaluatorFor(tx).Evaluate(ctx, entry.DriverID, window, assignments.EvaluateOptions{
			IgnoreScheduledID: &entry.ID,
			CurrentOrderID:    &entry.OrderID,
		})
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}
		if !decision.Assignable {
			outcome = outcomeFailed
			return j.fail(ctx, tx, entry, order, decision.Reason)
		}

		if err := j.assigner.Apply(ctx, tx, order, entry.DriverID, enums.AssignmentSourceScheduled, &entry, sweepActor); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
		outcome = outcomeAssigned
		return nil
	})
	if err != nil {
		return outcomeSkipped, err
	}
	return outcome, nil
}

// fail marks the claimed entry failed with the evaluator's reason and leaves
// a reschedule hint for the admin. The entry is terminal afterwards.
func (j *scheduleExecutionJob) fail(ctx context.Context, tx *gorm.DB, entry models.ScheduledAssignment, order *models.Order, reason string) error {
	moved, err := j.queue.WithTx(tx).TransitionStatus(ctx, entry.ID,
		enums.ScheduledAssignmentStatusProcessing, enums.ScheduledAssignmentStatusFailed,
		map[string]any{"failure_reason": reason})
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if !moved {
		return fmt.Errorf("entry left processing state before failure could be recorded")
	}

	if order != nil {
		if err := j.orders.WithTx(tx).Update(ctx, order.ID, map[string]any{"scheduled_assignment_id": nil}); err != nil {
			return fmt.Errorf("detach failed schedule: %w", err)
		}
	}

	note := reason
	record := models.ActivityEntry{
		Type:     enums.ActivityTypeExecutionFailed,
		OrderID:  &entry.OrderID,
		DriverID: &entry.DriverID,
		Actor:    sweepActor,
		Note:     &note,
		Payload:  map[string]any{"schedule_id": entry.ID.String()},
	}
	if err := j.recorder.Append(ctx, tx, record); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}

	message := fmt.Sprintf("scheduled assignment failed: %s; please reschedule", reason)
	if order != nil {
		message = fmt.Sprintf("scheduled assignment for order %s failed: %s; please reschedule", order.Reference, reason)
	}
	notice := models.Notification{
		Audience: enums.NotificationAudienceAdmin,
		OrderID:  &entry.OrderID,
		DriverID: &entry.DriverID,
		Title:    "Scheduled assignment failed",
		Message:  message,
	}
	if err := j.outbox.Emit(ctx, tx, notice); err != nil {
		return fmt.Errorf("emit failure notification: %w", err)
	}
	return nil
}

func (j *scheduleExecutionJob) countOutcome(outcome string) {
	if j.metrics == nil {
		return
	}
	j.metrics.IncProcessed(outcome)
}
