package orders

import (
	"context"
	"fmt"

	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	pkgerrors "github.com/avelazquez/courierdesk-backend/pkg/errors"
	"github.com/google/uuid"
)

// ApplyTransition moves an order to target within the caller's transaction,
// appending the history row. History is append-only; ranks may only increase,
// with cancellation allowed only from the two earliest states.
func ApplyTransition(ctx context.Context, repo Repository, order *models.Order, target enums.OrderStatus, actor string, note *string) error {
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", target))
	}
	if !order.Status.CanTransitionTo(target) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}

	if err := repo.Update(ctx, order.ID, map[string]any{"status": target}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	history := &models.OrderStatusHistory{
		ID:         uuid.New(),
		OrderID:    order.ID,
		FromStatus: order.Status,
		ToStatus:   target,
		Actor:      actor,
		Note:       note,
	}
	if err := repo.AppendStatusHistory(ctx, history); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
	}

	order.Status = target
	order.StatusHistory = append(order.StatusHistory, *history)
	return nil
}
