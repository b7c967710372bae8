package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"forward step", OrderStatusAwaitingAssignment, OrderStatusAwaitingPickup, true},
		{"forward skip", OrderStatusAwaitingAssignment, OrderStatusDelivered, true},
		{"no self move", OrderStatusPickedUp, OrderStatusPickedUp, false},
		{"no backward move", OrderStatusInTransit, OrderStatusPickedUp, false},
		{"cancel from intake", OrderStatusAwaitingAssignment, OrderStatusCancelled, true},
		{"cancel from pickup wait", OrderStatusAwaitingPickup, OrderStatusCancelled, true},
		{"no cancel after pickup", OrderStatusPickedUp, OrderStatusCancelled, false},
		{"no cancel in transit", OrderStatusInTransit, OrderStatusCancelled, false},
		{"delivered is terminal", OrderStatusDelivered, OrderStatusInTransit, false},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusAwaitingPickup, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("in_transit")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusInTransit, status)

	_, err = ParseOrderStatus("teleported")
	require.Error(t, err)
}

func TestOrderStatusRank(t *testing.T) {
	_, ok := OrderStatusCancelled.Rank()
	assert.False(t, ok)

	rank, ok := OrderStatusDelivered.Rank()
	require.True(t, ok)
	assert.Equal(t, 4, rank)
}
