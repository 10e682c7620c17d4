package returns

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/shared"
	"github.com/finledger/backend/internal/domain/shared/valueobject"
)

func testSaleOrder(partyID uuid.UUID) *ledger.Order {
	return &ledger.Order{
		ID:          uuid.New(),
		OrderNumber: "SO-2026-000042",
		PartyID:     partyID,
		TotalAmount: decimal.NewFromInt(1000),
		Status:      ledger.OrderStatusPaid,
		OrderedAt:   time.Now(),
	}
}

func testOrderLine(orderID uuid.UUID, quantity int, unitPrice int64) *ledger.OrderLine {
	return &ledger.OrderLine{
		ID:        uuid.New(),
		OrderID:   orderID,
		ProductID: uuid.New(),
		Quantity:  quantity,
		UnitPrice: decimal.NewFromInt(unitPrice),
	}
}

func newDraftReturn(t *testing.T) *ReturnOrder {
	t.Helper()
	partyID := uuid.New()
	order := testSaleOrder(partyID)
	ro, err := NewReturnOrder("RT-2026-000001", order, ReturnTypeCustomer,
		ProcessTypeRefundOnly, "wrong size", uuid.New())
	require.NoError(t, err)
	return ro
}

func TestNewReturnOrder(t *testing.T) {
	partyID := uuid.New()
	order := testSaleOrder(partyID)
	actor := uuid.New()

	t.Run("creates draft", func(t *testing.T) {
		ro, err := NewReturnOrder("RT-2026-000002", order, ReturnTypeCustomer,
			ProcessTypeRefundOnly, "wrong size", actor)
		require.NoError(t, err)
		assert.Equal(t, ReturnStatusDraft, ro.Status)
		assert.Equal(t, order.PartyID, ro.PartyID)
		assert.True(t, ro.TotalAmount.IsZero())
		assert.Empty(t, ro.Items)
	})

	t.Run("requires reason", func(t *testing.T) {
		_, err := NewReturnOrder("RT-2026-000003", order, ReturnTypeCustomer,
			ProcessTypeRefundOnly, "", actor)
		require.Error(t, err)
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	t.Run("rejects invalid enums", func(t *testing.T) {
		_, err := NewReturnOrder("RT-2026-000004", order, ReturnType("BAD"),
			ProcessTypeRefundOnly, "reason", actor)
		assert.Error(t, err)

		_, err = NewReturnOrder("RT-2026-000005", order, ReturnTypeCustomer,
			ProcessType("BAD"), "reason", actor)
		assert.Error(t, err)
	})
}

func TestReturnOrder_Items(t *testing.T) {
	ro := newDraftReturn(t)
	lineA := testOrderLine(ro.OrderID, 2, 50)
	lineB := testOrderLine(ro.OrderID, 1, 30)

	t.Run("totals recomputed from items", func(t *testing.T) {
		itemA, err := ro.AddItem(lineA, 2, 0, ConditionGood)
		require.NoError(t, err)
		assert.True(t, itemA.Subtotal.Equal(decimal.NewFromInt(100)))

		_, err = ro.AddItem(lineB, 1, 0, ConditionDamaged)
		require.NoError(t, err)
		assert.True(t, ro.TotalAmount.Equal(decimal.NewFromInt(130)))
	})

	t.Run("duplicate line rejected", func(t *testing.T) {
		_, err := ro.AddItem(lineA, 1, 0, ConditionGood)
		assert.Error(t, err)
	})

	t.Run("quantity above original rejected", func(t *testing.T) {
		line := testOrderLine(ro.OrderID, 2, 10)
		_, err := ro.AddItem(line, 3, 0, ConditionGood)
		require.Error(t, err)
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	t.Run("already returned quantity shrinks the remainder", func(t *testing.T) {
		line := testOrderLine(ro.OrderID, 5, 10)
		_, err := ro.AddItem(line, 4, 2, ConditionGood)
		require.Error(t, err)

		_, err = ro.AddItem(line, 3, 2, ConditionGood)
		assert.NoError(t, err)
	})

	t.Run("update quantity recomputes subtotal and total", func(t *testing.T) {
		ro := newDraftReturn(t)
		item, err := ro.AddItem(testOrderLine(ro.OrderID, 4, 25), 2, 0, ConditionGood)
		require.NoError(t, err)

		require.NoError(t, ro.UpdateItemQuantity(item.ID, 4, 0))
		assert.True(t, item.Subtotal.Equal(decimal.NewFromInt(100)))
		assert.True(t, ro.TotalAmount.Equal(decimal.NewFromInt(100)))

		assert.Error(t, ro.UpdateItemQuantity(item.ID, 0, 0))
		assert.Error(t, ro.UpdateItemQuantity(item.ID, 5, 0))
		assert.Error(t, ro.UpdateItemQuantity(item.ID, 4, 1))
	})

	t.Run("remove item recomputes total", func(t *testing.T) {
		ro := newDraftReturn(t)
		itemA, err := ro.AddItem(testOrderLine(ro.OrderID, 2, 50), 2, 0, ConditionGood)
		require.NoError(t, err)
		_, err = ro.AddItem(testOrderLine(ro.OrderID, 1, 30), 1, 0, ConditionGood)
		require.NoError(t, err)

		require.NoError(t, ro.RemoveItem(itemA.ID))
		assert.True(t, ro.TotalAmount.Equal(decimal.NewFromInt(30)))
		assert.Error(t, ro.RemoveItem(uuid.New()))
	})

	t.Run("items frozen after submit", func(t *testing.T) {
		ro := newDraftReturn(t)
		item, err := ro.AddItem(testOrderLine(ro.OrderID, 2, 50), 1, 0, ConditionGood)
		require.NoError(t, err)
		require.NoError(t, ro.Submit())

		_, err = ro.AddItem(testOrderLine(ro.OrderID, 1, 30), 1, 0, ConditionGood)
		assert.Error(t, err)
		assert.Error(t, ro.UpdateItemQuantity(item.ID, 2, 0))
		assert.Error(t, ro.RemoveItem(item.ID))
	})
}

func TestReturnOrder_Workflow(t *testing.T) {
	actor := uuid.New()

	// qty 2 @ 50 plus qty 1 @ 30 gives a 130 total, approved and refunded in full
	ro := newDraftReturn(t)
	_, err := ro.AddItem(testOrderLine(ro.OrderID, 2, 50), 2, 0, ConditionGood)
	require.NoError(t, err)
	_, err = ro.AddItem(testOrderLine(ro.OrderID, 1, 30), 1, 0, ConditionDefective)
	require.NoError(t, err)
	require.True(t, ro.TotalAmount.Equal(decimal.NewFromInt(130)))

	require.NoError(t, ro.Submit())
	assert.Equal(t, ReturnStatusSubmitted, ro.Status)
	assert.NotNil(t, ro.SubmittedAt)

	require.NoError(t, ro.Approve(actor, valueobject.NewMoneyCNYFromFloat(130), "ok"))
	assert.Equal(t, ReturnStatusApproved, ro.Status)
	assert.True(t, ro.RefundAmount.Equal(decimal.NewFromInt(130)))
	assert.Equal(t, actor, *ro.ApprovedBy)

	require.NoError(t, ro.StartProcessing())
	assert.Equal(t, ReturnStatusProcessing, ro.Status)

	require.NoError(t, ro.Complete(nil))
	assert.Equal(t, ReturnStatusCompleted, ro.Status)
	assert.True(t, ro.RefundAmount.Equal(decimal.NewFromInt(130)))
	assert.NotNil(t, ro.CompletedAt)
}

func TestReturnOrder_Guards(t *testing.T) {
	actor := uuid.New()

	t.Run("submit requires items", func(t *testing.T) {
		ro := newDraftReturn(t)
		err := ro.Submit()
		require.Error(t, err)
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	t.Run("approve refund cannot exceed total", func(t *testing.T) {
		ro := newDraftReturn(t)
		_, err := ro.AddItem(testOrderLine(ro.OrderID, 2, 50), 2, 0, ConditionGood)
		require.NoError(t, err)
		require.NoError(t, ro.Submit())

		err = ro.Approve(actor, valueobject.NewMoneyCNYFromFloat(150), "")
		require.Error(t, err)
		assert.Equal(t, shared.CodeOverRefund, shared.ErrorCode(err))
	})

	t.Run("complete override cannot exceed approved amount", func(t *testing.T) {
		ro := newDraftReturn(t)
		_, err := ro.AddItem(testOrderLine(ro.OrderID, 2, 50), 2, 0, ConditionGood)
		require.NoError(t, err)
		require.NoError(t, ro.Submit())
		require.NoError(t, ro.Approve(actor, valueobject.NewMoneyCNYFromFloat(100), ""))
		require.NoError(t, ro.StartProcessing())

		over := valueobject.NewMoneyCNYFromFloat(120)
		err = ro.Complete(&over)
		require.Error(t, err)
		assert.Equal(t, shared.CodeOverRefund, shared.ErrorCode(err))

		partial := valueobject.NewMoneyCNYFromFloat(80)
		require.NoError(t, ro.Complete(&partial))
		assert.True(t, ro.RefundAmount.Equal(decimal.NewFromInt(80)))
	})

	t.Run("reject requires reason", func(t *testing.T) {
		ro := newDraftReturn(t)
		_, err := ro.AddItem(testOrderLine(ro.OrderID, 1, 50), 1, 0, ConditionGood)
		require.NoError(t, err)
		require.NoError(t, ro.Submit())

		assert.Error(t, ro.Reject(actor, ""))
		require.NoError(t, ro.Reject(actor, "outside return window"))
		assert.Equal(t, ReturnStatusRejected, ro.Status)
	})

	t.Run("cancel completed return rejected", func(t *testing.T) {
		ro := newDraftReturn(t)
		_, err := ro.AddItem(testOrderLine(ro.OrderID, 2, 50), 2, 0, ConditionGood)
		require.NoError(t, err)
		require.NoError(t, ro.Submit())
		require.NoError(t, ro.Approve(actor, valueobject.NewMoneyCNYFromFloat(100), ""))
		require.NoError(t, ro.StartProcessing())
		require.NoError(t, ro.Complete(nil))

		err = ro.Cancel("changed my mind")
		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})

	t.Run("cancel from processing rejected", func(t *testing.T) {
		ro := newDraftReturn(t)
		_, err := ro.AddItem(testOrderLine(ro.OrderID, 2, 50), 2, 0, ConditionGood)
		require.NoError(t, err)
		require.NoError(t, ro.Submit())
		require.NoError(t, ro.Approve(actor, valueobject.NewMoneyCNYFromFloat(100), ""))
		require.NoError(t, ro.StartProcessing())

		assert.Error(t, ro.Cancel("too late"))
	})

	t.Run("cancel allowed from draft submitted approved", func(t *testing.T) {
		for _, prep := range []func(*ReturnOrder){
			func(*ReturnOrder) {},
			func(ro *ReturnOrder) { require.NoError(t, ro.Submit()) },
			func(ro *ReturnOrder) {
				require.NoError(t, ro.Submit())
				require.NoError(t, ro.Approve(actor, valueobject.NewMoneyCNYFromFloat(50), ""))
			},
		} {
			ro := newDraftReturn(t)
			_, err := ro.AddItem(testOrderLine(ro.OrderID, 2, 50), 1, 0, ConditionGood)
			require.NoError(t, err)
			prep(ro)
			require.NoError(t, ro.Cancel("customer withdrew"))
			assert.Equal(t, ReturnStatusCancelled, ro.Status)
		}
	})

	t.Run("deletable only while draft", func(t *testing.T) {
		ro := newDraftReturn(t)
		assert.True(t, ro.CanDelete())
		_, err := ro.AddItem(testOrderLine(ro.OrderID, 1, 50), 1, 0, ConditionGood)
		require.NoError(t, err)
		require.NoError(t, ro.Submit())
		assert.False(t, ro.CanDelete())
	})
}
