package ledger

import (
	"context"
	"math/rand"
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

// fakePaymentRepo is an in-memory payment record store
type fakePaymentRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*ledger.PaymentRecord
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{records: make(map[uuid.UUID]*ledger.PaymentRecord)}
}

func (f *fakePaymentRepo) Save(_ context.Context, r *ledger.PaymentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[r.ID] = r
	return nil
}

func (f *fakePaymentRepo) SaveWithLock(ctx context.Context, r *ledger.PaymentRecord) error {
	return f.Save(ctx, r)
}

func (f *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.PaymentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[id]; ok {
		return r, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakePaymentRepo) FindByNumber(_ context.Context, number string) (*ledger.PaymentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.PaymentNumber == number {
			return r, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakePaymentRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) ([]*ledger.PaymentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ledger.PaymentRecord
	for _, r := range f.records {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) FindAll(_ context.Context, _ ledger.PaymentRecordFilter) ([]*ledger.PaymentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*ledger.PaymentRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakePaymentRepo) Count(_ context.Context, _ ledger.PaymentRecordFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.records)), nil
}

func (f *fakePaymentRepo) SumByOrder(_ context.Context, orderID uuid.UUID, statuses ...ledger.PaymentRecordStatus) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, r := range f.records {
		if r.OrderID != orderID {
			continue
		}
		for _, st := range statuses {
			if r.Status == st {
				sum = sum.Add(r.Amount)
				break
			}
		}
	}
	return sum, nil
}

func (f *fakePaymentRepo) SumConfirmedByOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(orderIDs))
	for _, id := range orderIDs {
		sum, err := f.SumByOrder(ctx, id, ledger.PaymentRecordStatusConfirmed)
		if err != nil {
			return nil, err
		}
		if !sum.IsZero() {
			out[id] = sum
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) FindByPartyBetween(_ context.Context, partyID uuid.UUID, from, to time.Time) ([]*ledger.PaymentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ledger.PaymentRecord
	for _, r := range f.records {
		if r.PartyID == partyID && !r.PaymentDate.Before(from) && !r.PaymentDate.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

// fakeOrderService serves a fixed set of orders and records status transitions
type fakeOrderService struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*ledger.Order
	lines  map[uuid.UUID]*ledger.OrderLine
}

func newFakeOrderService(orders ...*ledger.Order) *fakeOrderService {
	f := &fakeOrderService{
		orders: make(map[uuid.UUID]*ledger.Order),
		lines:  make(map[uuid.UUID]*ledger.OrderLine),
	}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrderService) GetOrder(_ context.Context, id uuid.UUID) (*ledger.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeOrderService) GetOrderLine(_ context.Context, id uuid.UUID) (*ledger.OrderLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.lines[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeOrderService) TransitionOrderStatus(_ context.Context, id uuid.UUID, status ledger.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.Status = status
	return nil
}

// fakeSequence hands out monotonic values per sequence name
type fakeSequence struct {
	mu     sync.Mutex
	values map[string]int64
}

func newFakeSequence() *fakeSequence {
	return &fakeSequence{values: make(map[string]int64)}
}

func (f *fakeSequence) Next(_ context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[name]++
	return f.values[name], nil
}

// serialScope executes each unit of work under one mutex, giving the tests
// the same check-then-insert atomicity a serializable transaction provides.
type serialScope struct {
	mu    sync.Mutex
	repos TransactionalRepositories
}

func (s *serialScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.repos)
}

type fixture struct {
	svc      *PaymentService
	payments *fakePaymentRepo
	orders   *fakeOrderService
	order    *ledger.Order
	partyID  uuid.UUID
	actor    uuid.UUID
}

func newFixture(t *testing.T, total int64) *fixture {
	t.Helper()
	partyID := uuid.New()
	order := &ledger.Order{
		ID:          uuid.New(),
		OrderNumber: "SO-2026-000042",
		PartyID:     partyID,
		TotalAmount: decimal.NewFromInt(total),
		Status:      ledger.OrderStatusAwaitingPayment,
		OrderedAt:   time.Now(),
	}

	payments := newFakePaymentRepo()
	orders := newFakeOrderService(order)
	scope := &serialScope{repos: NewNoOpTransactionScope(payments, nil, newFakeSequence(), orders)}

	return &fixture{
		svc:      NewPaymentService(scope, payments, nil, zaptest.NewLogger(t)),
		payments: payments,
		orders:   orders,
		order:    order,
		partyID:  partyID,
		actor:    uuid.New(),
	}
}

func (fx *fixture) recordRequest(amount int64) RecordPaymentRequest {
	return RecordPaymentRequest{
		OrderID:     fx.order.ID,
		PartyID:     fx.partyID,
		Method:      ledger.PaymentMethodCash,
		Amount:      decimal.NewFromInt(amount),
		PaymentDate: time.Now(),
		RecordedBy:  fx.actor,
	}
}

func TestPaymentService_RecordPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("partial then full then overpayment", func(t *testing.T) {
		fx := newFixture(t, 1000)

		first, err := fx.svc.RecordPayment(ctx, fx.recordRequest(600))
		require.NoError(t, err)
		assert.Equal(t, ledger.PaymentRecordStatusConfirmed, first.Status)

		paid, err := fx.payments.SumByOrder(ctx, fx.order.ID, ledger.PaymentRecordStatusConfirmed)
		require.NoError(t, err)
		status := ledger.DerivePaymentStatus(fx.order.TotalAmount, paid, nil, time.Now())
		assert.Equal(t, ledger.PaymentStatusPartial, status)
		assert.True(t, ledger.Outstanding(fx.order.TotalAmount, paid).Equal(decimal.NewFromInt(400)))

		_, err = fx.svc.RecordPayment(ctx, fx.recordRequest(400))
		require.NoError(t, err)

		paid, err = fx.payments.SumByOrder(ctx, fx.order.ID, ledger.PaymentRecordStatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, ledger.PaymentStatusPaid, ledger.DerivePaymentStatus(fx.order.TotalAmount, paid, nil, time.Now()))
		assert.True(t, ledger.Outstanding(fx.order.TotalAmount, paid).IsZero())

		order, err := fx.orders.GetOrder(ctx, fx.order.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.OrderStatusPaid, order.Status)

		_, err = fx.svc.RecordPayment(ctx, fx.recordRequest(1))
		require.Error(t, err)
		assert.Equal(t, shared.CodeOverpayment, shared.ErrorCode(err))
	})

	t.Run("rejects party mismatch", func(t *testing.T) {
		fx := newFixture(t, 1000)
		req := fx.recordRequest(100)
		req.PartyID = uuid.New()

		_, err := fx.svc.RecordPayment(ctx, req)
		require.Error(t, err)
		assert.Equal(t, shared.CodePartyMismatch, shared.ErrorCode(err))
	})

	t.Run("bank transfer requires reference", func(t *testing.T) {
		fx := newFixture(t, 1000)
		req := fx.recordRequest(100)
		req.Method = ledger.PaymentMethodBankTransfer

		_, err := fx.svc.RecordPayment(ctx, req)
		require.Error(t, err)
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

		req.BankReference = "TXN-99213"
		_, err = fx.svc.RecordPayment(ctx, req)
		assert.NoError(t, err)
	})

	t.Run("unknown order", func(t *testing.T) {
		fx := newFixture(t, 1000)
		req := fx.recordRequest(100)
		req.OrderID = uuid.New()

		_, err := fx.svc.RecordPayment(ctx, req)
		require.Error(t, err)
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})

	t.Run("payment numbers are unique and sequential", func(t *testing.T) {
		fx := newFixture(t, 1000)
		a, err := fx.svc.RecordPayment(ctx, fx.recordRequest(100))
		require.NoError(t, err)
		b, err := fx.svc.RecordPayment(ctx, fx.recordRequest(100))
		require.NoError(t, err)
		assert.NotEqual(t, a.PaymentNumber, b.PaymentNumber)
	})
}

func TestPaymentService_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 1000)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.RecordPayment(ctx, fx.recordRequest(600))
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			failures++
			code := shared.ErrorCode(err)
			assert.Contains(t, []string{shared.CodeOverpayment, shared.CodeConcurrencyConflict}, code)
		}
	}
	assert.Equal(t, 1, failures, "exactly one of two concurrent 600 payments must fail")

	paid, err := fx.payments.SumByOrder(ctx, fx.order.ID, ledger.PaymentRecordStatusConfirmed)
	require.NoError(t, err)
	assert.True(t, paid.Equal(decimal.NewFromInt(600)), "final paid amount must be 600, got %s", paid)
}

func TestPaymentService_NeverOverpays(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 1000)

	rng := rand.New(rand.NewSource(42))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		amount := int64(rng.Intn(400) + 50)
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			_, _ = fx.svc.RecordPayment(ctx, fx.recordRequest(amount))
		}(amount)
	}
	wg.Wait()

	paid, err := fx.payments.SumByOrder(ctx, fx.order.ID, ledger.PaymentRecordStatusConfirmed)
	require.NoError(t, err)
	assert.True(t, paid.LessThanOrEqual(fx.order.TotalAmount),
		"confirmed payments %s exceed order total %s", paid, fx.order.TotalAmount)
}

func TestPaymentService_VoidPayment(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 1000)

	recorded, err := fx.svc.RecordPayment(ctx, fx.recordRequest(600))
	require.NoError(t, err)

	voided, err := fx.svc.VoidPayment(ctx, recorded.ID, fx.actor, "entered against wrong order")
	require.NoError(t, err)
	assert.Equal(t, ledger.PaymentRecordStatusVoided, voided.Status)

	// the voided amount no longer counts, so the full total is payable again
	_, err = fx.svc.RecordPayment(ctx, fx.recordRequest(1000))
	assert.NoError(t, err)
}

func TestPaymentService_ConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("pending payment does not count until confirmed", func(t *testing.T) {
		fx := newFixture(t, 1000)

		req := fx.recordRequest(1000)
		req.Pending = true
		recorded, err := fx.svc.RecordPayment(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, ledger.PaymentRecordStatusPending, recorded.Status)
		assert.Nil(t, recorded.ConfirmedAt)

		paid, err := fx.payments.SumByOrder(ctx, fx.order.ID, ledger.PaymentRecordStatusConfirmed)
		require.NoError(t, err)
		assert.True(t, paid.IsZero())

		order, err := fx.orders.GetOrder(ctx, fx.order.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.OrderStatusAwaitingPayment, order.Status)

		confirmed, err := fx.svc.ConfirmPayment(ctx, recorded.ID, fx.actor)
		require.NoError(t, err)
		assert.Equal(t, ledger.PaymentRecordStatusConfirmed, confirmed.Status)
		require.NotNil(t, confirmed.ConfirmedAt)

		// the confirmation settled the order in full
		order, err = fx.orders.GetOrder(ctx, fx.order.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.OrderStatusPaid, order.Status)
	})

	t.Run("confirmation re-checks the overpayment limit", func(t *testing.T) {
		fx := newFixture(t, 1000)

		req := fx.recordRequest(600)
		req.Pending = true
		pending, err := fx.svc.RecordPayment(ctx, req)
		require.NoError(t, err)

		// a confirmed payment lands first and shrinks the outstanding balance
		_, err = fx.svc.RecordPayment(ctx, fx.recordRequest(500))
		require.NoError(t, err)

		_, err = fx.svc.ConfirmPayment(ctx, pending.ID, fx.actor)
		require.Error(t, err)
		assert.Equal(t, shared.CodeOverpayment, shared.ErrorCode(err))

		record, err := fx.payments.FindByID(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.PaymentRecordStatusPending, record.Status)
	})

	t.Run("only pending payments can be confirmed", func(t *testing.T) {
		fx := newFixture(t, 1000)

		recorded, err := fx.svc.RecordPayment(ctx, fx.recordRequest(600))
		require.NoError(t, err)

		_, err = fx.svc.ConfirmPayment(ctx, recorded.ID, fx.actor)
		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})

	t.Run("unknown payment", func(t *testing.T) {
		fx := newFixture(t, 1000)

		_, err := fx.svc.ConfirmPayment(ctx, uuid.New(), fx.actor)
		require.Error(t, err)
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})
}
