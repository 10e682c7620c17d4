package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/shared"
)

// fakeRefundRepo is an in-memory refund record store
type fakeRefundRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*ledger.RefundRecord
}

func newFakeRefundRepo() *fakeRefundRepo {
	return &fakeRefundRepo{records: make(map[uuid.UUID]*ledger.RefundRecord)}
}

func (f *fakeRefundRepo) Save(_ context.Context, r *ledger.RefundRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[r.ID] = r
	return nil
}

func (f *fakeRefundRepo) SaveWithLock(ctx context.Context, r *ledger.RefundRecord) error {
	return f.Save(ctx, r)
}

func (f *fakeRefundRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.RefundRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[id]; ok {
		return r, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeRefundRepo) FindByNumber(_ context.Context, number string) (*ledger.RefundRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.RefundNumber == number {
			return r, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeRefundRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) ([]*ledger.RefundRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ledger.RefundRecord
	for _, r := range f.records {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRefundRepo) FindByReturnOrderID(_ context.Context, returnOrderID uuid.UUID) ([]*ledger.RefundRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ledger.RefundRecord
	for _, r := range f.records {
		if r.ReturnOrderID != nil && *r.ReturnOrderID == returnOrderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRefundRepo) FindAll(_ context.Context, _ ledger.RefundRecordFilter) ([]*ledger.RefundRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*ledger.RefundRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRefundRepo) Count(_ context.Context, _ ledger.RefundRecordFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.records)), nil
}

func (f *fakeRefundRepo) SumCompletedByOrder(_ context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, r := range f.records {
		if r.OrderID == orderID && r.Status == ledger.RefundStatusCompleted {
			sum = sum.Add(r.ProcessedAmount)
		}
	}
	return sum, nil
}

func (f *fakeRefundRepo) SumCompletedByOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(orderIDs))
	for _, id := range orderIDs {
		sum, err := f.SumCompletedByOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		if !sum.IsZero() {
			out[id] = sum
		}
	}
	return out, nil
}

func (f *fakeRefundRepo) FindByPartyBetween(_ context.Context, partyID uuid.UUID, from, to time.Time) ([]*ledger.RefundRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ledger.RefundRecord
	for _, r := range f.records {
		if r.PartyID == partyID && !r.RefundDate.Before(from) && !r.RefundDate.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRefundRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

type refundFixture struct {
	payments *PaymentService
	refunds  *RefundService
	order    *ledger.Order
	partyID  uuid.UUID
	actor    uuid.UUID
}

// newRefundFixture wires payment and refund services over shared in-memory
// stores and settles the given amount against a fresh order.
func newRefundFixture(t *testing.T, total, paid int64) *refundFixture {
	t.Helper()
	partyID := uuid.New()
	order := &ledger.Order{
		ID:          uuid.New(),
		OrderNumber: "SO-2026-000077",
		PartyID:     partyID,
		TotalAmount: decimal.NewFromInt(total),
		Status:      ledger.OrderStatusAwaitingPayment,
		OrderedAt:   time.Now(),
	}

	paymentRepo := newFakePaymentRepo()
	refundRepo := newFakeRefundRepo()
	orders := newFakeOrderService(order)
	scope := &serialScope{repos: NewNoOpTransactionScope(paymentRepo, refundRepo, newFakeSequence(), orders)}

	fx := &refundFixture{
		payments: NewPaymentService(scope, paymentRepo, nil, zaptest.NewLogger(t)),
		refunds:  NewRefundService(scope, refundRepo, nil, zaptest.NewLogger(t)),
		order:    order,
		partyID:  partyID,
		actor:    uuid.New(),
	}

	if paid > 0 {
		_, err := fx.payments.RecordPayment(context.Background(), RecordPaymentRequest{
			OrderID:     order.ID,
			PartyID:     partyID,
			Method:      ledger.PaymentMethodCash,
			Amount:      decimal.NewFromInt(paid),
			PaymentDate: time.Now(),
			RecordedBy:  fx.actor,
		})
		require.NoError(t, err)
	}
	return fx
}

func (fx *refundFixture) createRequest(amount int64) CreateRefundRequest {
	return CreateRefundRequest{
		OrderID:    fx.order.ID,
		Type:       ledger.RefundTypePartial,
		Method:     ledger.PaymentMethodCash,
		Amount:     decimal.NewFromInt(amount),
		RefundDate: time.Now(),
		Reason:     "customer request",
		CreatedBy:  fx.actor,
	}
}

func TestRefundService_CreateRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects non-positive amount", func(t *testing.T) {
		fx := newRefundFixture(t, 1000, 500)
		_, err := fx.refunds.CreateRefund(ctx, fx.createRequest(0))
		require.Error(t, err)
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	t.Run("rejects amount above settled payments", func(t *testing.T) {
		fx := newRefundFixture(t, 1000, 500)
		_, err := fx.refunds.CreateRefund(ctx, fx.createRequest(600))
		require.Error(t, err)
		assert.Equal(t, shared.CodeOverRefund, shared.ErrorCode(err))
	})

	t.Run("creates a pending refund with a numbered document", func(t *testing.T) {
		fx := newRefundFixture(t, 1000, 500)
		refund, err := fx.refunds.CreateRefund(ctx, fx.createRequest(300))
		require.NoError(t, err)
		assert.Equal(t, ledger.RefundStatusPending, refund.Status)
		assert.Contains(t, refund.RefundNumber, "REF-")
		assert.True(t, refund.Amount.Equal(decimal.NewFromInt(300)))
	})

	t.Run("open refunds reserve the refundable balance", func(t *testing.T) {
		fx := newRefundFixture(t, 1000, 500)
		_, err := fx.refunds.CreateRefund(ctx, fx.createRequest(300))
		require.NoError(t, err)

		_, err = fx.refunds.CreateRefund(ctx, fx.createRequest(300))
		require.Error(t, err)
		assert.Equal(t, shared.CodeOverRefund, shared.ErrorCode(err))

		_, err = fx.refunds.CreateRefund(ctx, fx.createRequest(200))
		assert.NoError(t, err)
	})

	t.Run("order not found", func(t *testing.T) {
		fx := newRefundFixture(t, 1000, 500)
		req := fx.createRequest(100)
		req.OrderID = uuid.New()
		_, err := fx.refunds.CreateRefund(ctx, req)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestRefundService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("process then complete", func(t *testing.T) {
		fx := newRefundFixture(t, 1000, 500)
		refund, err := fx.refunds.CreateRefund(ctx, fx.createRequest(300))
		require.NoError(t, err)

		refund, err = fx.refunds.StartProcessing(ctx, refund.ID, fx.actor)
		require.NoError(t, err)
		assert.Equal(t, ledger.RefundStatusProcessing, refund.Status)

		refund, err = fx.refunds.CompleteRefund(ctx, refund.ID, fx.actor, decimal.NewFromInt(300))
		require.NoError(t, err)
		assert.Equal(t, ledger.RefundStatusCompleted, refund.Status)
		assert.True(t, refund.ProcessedAmount.Equal(decimal.NewFromInt(300)))
		require.NotNil(t, refund.CompletedAt)
	})

	t.Run("cannot complete a pending refund", func(t *testing.T) {
		fx := newRefundFixture(t, 1000, 500)
		refund, err := fx.refunds.CreateRefund(ctx, fx.createRequest(300))
		require.NoError(t, err)

		_, err = fx.refunds.CompleteRefund(ctx, refund.ID, fx.actor, decimal.NewFromInt(300))
		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})

	t.Run("reject releases the reserved balance", func(t *testing.T) {
		fx := newRefundFixture(t, 1000, 500)
		refund, err := fx.refunds.CreateRefund(ctx, fx.createRequest(500))
		require.NoError(t, err)

		refund, err = fx.refunds.RejectRefund(ctx, refund.ID, fx.actor, "duplicate request")
		require.NoError(t, err)
		assert.Equal(t, ledger.RefundStatusRejected, refund.Status)
		assert.Equal(t, "duplicate request", refund.RejectReason)

		_, err = fx.refunds.CreateRefund(ctx, fx.createRequest(500))
		assert.NoError(t, err)
	})
}
