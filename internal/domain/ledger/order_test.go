package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_IsValid(t *testing.T) {
	valid := []OrderStatus{
		OrderStatusAwaitingPayment,
		OrderStatusPaid,
		OrderStatusCompleted,
		OrderStatusCancelled,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}

	assert.False(t, OrderStatus("SHIPPED").IsValid())
	assert.False(t, OrderStatus("").IsValid())
}

func TestOrderStatus_CanMarkPaid(t *testing.T) {
	assert.True(t, OrderStatusAwaitingPayment.CanMarkPaid())
	assert.False(t, OrderStatusPaid.CanMarkPaid())
	assert.False(t, OrderStatusCompleted.CanMarkPaid())
	assert.False(t, OrderStatusCancelled.CanMarkPaid())
}
