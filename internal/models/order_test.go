package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitionsForwardOnly(t *testing.T) {
	assert.True(t, OrderPending.CanTransitionTo(OrderProcessing))
	assert.True(t, OrderPending.CanTransitionTo(OrderShipped))
	assert.True(t, OrderProcessing.CanTransitionTo(OrderShipped))
	assert.True(t, OrderShipped.CanTransitionTo(OrderDelivered))

	// No going backwards
	assert.False(t, OrderShipped.CanTransitionTo(OrderProcessing))
	assert.False(t, OrderDelivered.CanTransitionTo(OrderShipped))
	assert.False(t, OrderProcessing.CanTransitionTo(OrderPending))

	// No self transitions
	assert.False(t, OrderProcessing.CanTransitionTo(OrderProcessing))
}

func TestStatusTransitionsOutOfTerminal(t *testing.T) {
	for _, terminal := range []SupplierOrderStatus{OrderDelivered, OrderCancelled, OrderReturned} {
		assert.False(t, terminal.CanTransitionTo(OrderProcessing), "from %s", terminal)
		assert.False(t, terminal.CanTransitionTo(OrderCancelled), "from %s", terminal)
	}
}

func TestStatusTransitionsSideways(t *testing.T) {
	assert.True(t, OrderPending.CanTransitionTo(OrderCancelled))
	assert.True(t, OrderProcessing.CanTransitionTo(OrderReturned))
	assert.True(t, OrderShipped.CanTransitionTo(OrderCancelled))
}

func TestAggregateOrderStatus(t *testing.T) {
	tests := []struct {
		name string
		legs []SupplierOrderStatus
		want LocalOrderStatus
	}{
		{"no legs", nil, LocalOrderProcessing},
		{"any pending", []SupplierOrderStatus{OrderShipped, OrderPending}, LocalOrderProcessing},
		{"any processing", []SupplierOrderStatus{OrderDelivered, OrderProcessing}, LocalOrderProcessing},
		{"all shipped", []SupplierOrderStatus{OrderShipped, OrderShipped}, LocalOrderShipped},
		{"all delivered", []SupplierOrderStatus{OrderDelivered, OrderDelivered}, LocalOrderDelivered},
		{"shipped and delivered mix", []SupplierOrderStatus{OrderShipped, OrderDelivered}, LocalOrderProcessing},
		{"single delivered", []SupplierOrderStatus{OrderDelivered}, LocalOrderDelivered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateOrderStatus(tt.legs))
		})
	}
}

func TestIsDelayed(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)

	leg := &SupplierOrder{ExternalStatus: OrderShipped, EstimatedDeliveryAt: &past}
	assert.True(t, leg.IsDelayed(now))

	// Terminal legs are never delayed
	leg.ExternalStatus = OrderDelivered
	assert.False(t, leg.IsDelayed(now))

	// Missing estimate means nothing to compare
	leg = &SupplierOrder{ExternalStatus: OrderShipped}
	assert.False(t, leg.IsDelayed(now))
}

func TestHasBudget(t *testing.T) {
	s := &SupplierAccount{IsActive: true, DailyRequestLimit: 100, RequestsToday: 99}
	assert.True(t, s.HasBudget())

	s.RequestsToday = 100
	assert.False(t, s.HasBudget())

	s.RequestsToday = 0
	s.IsActive = false
	assert.False(t, s.HasBudget())
}
