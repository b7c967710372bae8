package enums

import "fmt"

// OrderStatus tracks the delivery lifecycle of an order. The main chain is
// strictly monotonic by rank; cancelled is a terminal side branch reachable
// only from the two earliest states.
type OrderStatus string

const (
	OrderStatusAwaitingAssignment OrderStatus = "awaiting_assignment"
	OrderStatusAwaitingPickup     OrderStatus = "awaiting_pickup"
	OrderStatusPickedUp           OrderStatus = "picked_up"
	OrderStatusInTransit          OrderStatus = "in_transit"
	OrderStatusDelivered          OrderStatus = "delivered"
	OrderStatusCancelled          OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusAwaitingAssignment,
	OrderStatusAwaitingPickup,
	OrderStatusPickedUp,
	OrderStatusInTransit,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var orderStatusRanks = map[OrderStatus]int{
	OrderStatusAwaitingAssignment: 0,
	OrderStatusAwaitingPickup:     1,
	OrderStatusPickedUp:           2,
	OrderStatusInTransit:          3,
	OrderStatusDelivered:          4,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// Rank returns the canonical position of the status on the main chain.
// Cancelled has no rank; the second return is false for it.
func (o OrderStatus) Rank() (int, bool) {
	rank, ok := orderStatusRanks[o]
	return rank, ok
}

// CanTransitionTo reports whether moving from o to target respects the state
// machine: ranks must strictly increase, and cancellation is only allowed
// from awaiting_assignment or awaiting_pickup.
func (o OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if target == OrderStatusCancelled {
		return o == OrderStatusAwaitingAssignment || o == OrderStatusAwaitingPickup
	}
	from, okFrom := o.Rank()
	to, okTo := target.Rank()
	if !okFrom || !okTo {
		return false
	}
	return to > from
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
