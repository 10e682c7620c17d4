package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	ledgerapp "github.com/finledger/backend/internal/application/ledger"
	receivablesapp "github.com/finledger/backend/internal/application/receivables"
	returnsapp "github.com/finledger/backend/internal/application/returns"
	statementapp "github.com/finledger/backend/internal/application/statement"
	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/returns"
	"github.com/finledger/backend/internal/domain/shared"
	"github.com/finledger/backend/internal/infrastructure/persistence"
	"github.com/finledger/backend/internal/infrastructure/persistence/models"
)

// flowSetup wires repositories and application services against a real
// migrated database, mirroring the composition in cmd/server.
type flowSetup struct {
	DB *TestDB

	Payments    *ledgerapp.PaymentService
	Refunds     *ledgerapp.RefundService
	Returns     *returnsapp.ReturnOrderService
	Receivables *receivablesapp.Service
	Statements  *statementapp.Service
}

func newFlowSetup(t *testing.T) *flowSetup {
	t.Helper()

	tdb := NewTestDB(t)
	tdb.CleanTables()

	log := zap.NewNop()
	db := tdb.DB

	orderRepo := persistence.NewGormOrderRepository(db)
	paymentRepo := persistence.NewGormPaymentRecordRepository(db)
	refundRepo := persistence.NewGormRefundRecordRepository(db)
	returnRepo := persistence.NewGormReturnOrderRepository(db)

	ledgerScope := persistence.NewGormLedgerTransactionScope(db, 10*time.Second)
	returnsScope := persistence.NewGormReturnsTransactionScope(db, 10*time.Second)

	recv := receivablesapp.NewService(orderRepo, paymentRepo, log)

	return &flowSetup{
		DB:          tdb,
		Payments:    ledgerapp.NewPaymentService(ledgerScope, paymentRepo, nil, log),
		Refunds:     ledgerapp.NewRefundService(ledgerScope, refundRepo, nil, log),
		Returns:     returnsapp.NewReturnOrderService(returnsScope, returnRepo, nil, log),
		Receivables: recv,
		Statements:  statementapp.NewService(orderRepo, paymentRepo, refundRepo, returnRepo, recv, log),
	}
}

type seededOrder struct {
	OrderID uuid.UUID
	LineID  uuid.UUID
	PartyID uuid.UUID
}

func (s *flowSetup) seedOrder(t *testing.T, orderNumber string, total decimal.Decimal, dueDate *time.Time) seededOrder {
	t.Helper()

	orderID := uuid.New()
	lineID := uuid.New()
	partyID := uuid.New()
	now := time.Now().UTC()

	order := models.OrderModel{
		BaseModel: models.BaseModel{
			ID:        orderID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrderNumber: orderNumber,
		PartyID:     partyID,
		TotalAmount: total,
		DueDate:     dueDate,
		Status:      ledger.OrderStatusAwaitingPayment,
		OrderedAt:   now.Add(-24 * time.Hour),
	}
	require.NoError(t, s.DB.DB.Create(&order).Error)

	line := models.OrderLineModel{
		ID:        lineID,
		OrderID:   orderID,
		ProductID: uuid.New(),
		Quantity:  5,
		UnitPrice: total.Div(decimal.NewFromInt(5)),
	}
	require.NoError(t, s.DB.DB.Create(&line).Error)

	return seededOrder{OrderID: orderID, LineID: lineID, PartyID: partyID}
}

func TestConcurrentPaymentsNeverOverpay(t *testing.T) {
	s := newFlowSetup(t)
	seed := s.seedOrder(t, "SO-IT-0001", decimal.NewFromInt(1000), nil)
	actor := uuid.New()

	const workers = 8
	amount := decimal.NewFromInt(300)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Serialization losers surface as retryable conflicts; retry the
			// way a real client would until the outcome is definitive.
			for {
				_, err := s.Payments.RecordPayment(context.Background(), ledgerapp.RecordPaymentRequest{
					OrderID:     seed.OrderID,
					PartyID:     seed.PartyID,
					Method:      ledger.PaymentMethodCash,
					Amount:      amount,
					PaymentDate: time.Now(),
					RecordedBy:  actor,
				})
				if shared.IsRetryable(err) {
					continue
				}
				errs[i] = err
				return
			}
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, shared.CodeOverpayment, shared.ErrorCode(err),
			"rejected payment should fail with an overpayment error, got: %v", err)
	}
	assert.Equal(t, 3, succeeded, "three 300 payments fit under a 1000 total")

	result, err := s.Payments.ListPayments(context.Background(), ledger.PaymentRecordFilter{
		OrderID: &seed.OrderID,
	})
	require.NoError(t, err)

	confirmed := decimal.Zero
	for _, p := range result.Items {
		if p.Status == ledger.PaymentRecordStatusConfirmed {
			confirmed = confirmed.Add(p.Amount)
		}
	}
	assert.True(t, confirmed.LessThanOrEqual(decimal.NewFromInt(1000)),
		"confirmed payments %s exceed order total", confirmed)
}

func TestPaymentSettlesOrder(t *testing.T) {
	s := newFlowSetup(t)
	seed := s.seedOrder(t, "SO-IT-0002", decimal.NewFromInt(500), nil)
	ctx := context.Background()

	_, err := s.Payments.RecordPayment(ctx, ledgerapp.RecordPaymentRequest{
		OrderID:       seed.OrderID,
		PartyID:       seed.PartyID,
		Method:        ledger.PaymentMethodBankTransfer,
		Amount:        decimal.NewFromInt(500),
		PaymentDate:   time.Now(),
		BankReference: "TRX-2026-0002",
		RecordedBy:    uuid.New(),
	})
	require.NoError(t, err)

	var status string
	require.NoError(t, s.DB.DB.Raw(
		"SELECT status FROM orders WHERE id = ?", seed.OrderID).Scan(&status).Error)
	assert.Equal(t, string(ledger.OrderStatusPaid), status)

	list, err := s.Receivables.List(ctx, receivablesapp.ListRequest{
		PartyID:  &seed.PartyID,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.True(t, list.Items[0].Outstanding.IsZero())
	assert.Equal(t, ledger.PaymentStatusPaid, list.Items[0].PaymentStatus)
}

func TestReturnOrderRefundFlow(t *testing.T) {
	s := newFlowSetup(t)
	seed := s.seedOrder(t, "SO-IT-0003", decimal.NewFromInt(500), nil)
	ctx := context.Background()
	actor := uuid.New()

	_, err := s.Payments.RecordPayment(ctx, ledgerapp.RecordPaymentRequest{
		OrderID:     seed.OrderID,
		PartyID:     seed.PartyID,
		Method:      ledger.PaymentMethodCash,
		Amount:      decimal.NewFromInt(500),
		PaymentDate: time.Now(),
		RecordedBy:  actor,
	})
	require.NoError(t, err)

	ro, err := s.Returns.CreateReturnOrder(ctx, returnsapp.CreateReturnOrderRequest{
		OrderID:     seed.OrderID,
		Type:        returns.ReturnTypeCustomer,
		ProcessType: returns.ProcessTypeRefundOnly,
		Reason:      "wrong size",
		CreatedBy:   actor,
	})
	require.NoError(t, err)
	assert.Equal(t, returns.ReturnStatusDraft, ro.Status)

	ro, err = s.Returns.AddItem(ctx, returnsapp.AddItemRequest{
		ReturnOrderID:  ro.ID,
		OrderLineID:    seed.LineID,
		ReturnQuantity: 2,
		Condition:      returns.ConditionGood,
	})
	require.NoError(t, err)
	require.Len(t, ro.Items, 1)

	ro, err = s.Returns.Submit(ctx, ro.ID)
	require.NoError(t, err)
	assert.Equal(t, returns.ReturnStatusSubmitted, ro.Status)

	ro, err = s.Returns.Approve(ctx, returnsapp.ApproveRequest{
		ReturnOrderID: ro.ID,
		Approved:      true,
		RefundAmount:  decimal.NewFromInt(200),
		RefundMethod:  ledger.PaymentMethodCash,
		Actor:         actor,
	})
	require.NoError(t, err)
	assert.Equal(t, returns.ReturnStatusApproved, ro.Status)

	refunds, err := s.Refunds.ListRefunds(ctx, ledger.RefundRecordFilter{
		ReturnOrderID: &ro.ID,
	})
	require.NoError(t, err)
	require.Len(t, refunds.Items, 1)
	assert.Equal(t, ledger.RefundStatusPending, refunds.Items[0].Status)

	ro, err = s.Returns.StartProcessing(ctx, ro.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, returns.ReturnStatusProcessing, ro.Status)

	ro, err = s.Returns.Complete(ctx, returnsapp.CompleteRequest{
		ReturnOrderID: ro.ID,
		Actor:         actor,
	})
	require.NoError(t, err)
	assert.Equal(t, returns.ReturnStatusCompleted, ro.Status)

	refunds, err = s.Refunds.ListRefunds(ctx, ledger.RefundRecordFilter{
		ReturnOrderID: &ro.ID,
	})
	require.NoError(t, err)
	require.Len(t, refunds.Items, 1)
	assert.Equal(t, ledger.RefundStatusCompleted, refunds.Items[0].Status)
	assert.True(t, refunds.Items[0].ProcessedAmount.Equal(decimal.NewFromInt(200)))

	// The statement over the whole window carries order, payment, return and
	// refund entries with a consistent running balance.
	now := time.Now()
	stmt, err := s.Statements.Generate(ctx, statementapp.GenerateRequest{
		PartyID: seed.PartyID,
		From:    now.Add(-48 * time.Hour),
		To:      now.Add(time.Hour),
	})
	require.NoError(t, err)

	kinds := make(map[statementapp.EntryKind]int)
	for _, e := range stmt.Entries {
		kinds[e.Kind]++
	}
	assert.Equal(t, 1, kinds[statementapp.EntryKindOrder])
	assert.Equal(t, 1, kinds[statementapp.EntryKindPayment])
	assert.Equal(t, 1, kinds[statementapp.EntryKindReturn])
	assert.Equal(t, 1, kinds[statementapp.EntryKindRefund])

	// 500 order - 500 payment - 200 refund paid back out
	assert.True(t, stmt.ClosingBalance.Equal(decimal.NewFromInt(-200)),
		"closing balance %s", stmt.ClosingBalance)
	require.NotEmpty(t, stmt.Entries)
	last := stmt.Entries[len(stmt.Entries)-1]
	assert.True(t, last.Balance.Equal(stmt.ClosingBalance))
}

func TestRefundCannotExceedNetReceipts(t *testing.T) {
	s := newFlowSetup(t)
	seed := s.seedOrder(t, "SO-IT-0004", decimal.NewFromInt(400), nil)
	ctx := context.Background()
	actor := uuid.New()

	_, err := s.Payments.RecordPayment(ctx, ledgerapp.RecordPaymentRequest{
		OrderID:     seed.OrderID,
		PartyID:     seed.PartyID,
		Method:      ledger.PaymentMethodCash,
		Amount:      decimal.NewFromInt(300),
		PaymentDate: time.Now(),
		RecordedBy:  actor,
	})
	require.NoError(t, err)

	_, err = s.Refunds.CreateRefund(ctx, ledgerapp.CreateRefundRequest{
		OrderID:    seed.OrderID,
		Type:       ledger.RefundTypePartial,
		Method:     ledger.PaymentMethodCash,
		Amount:     decimal.NewFromInt(350),
		RefundDate: time.Now(),
		Reason:     "customer request",
		CreatedBy:  actor,
	})
	require.Error(t, err)
	assert.Equal(t, shared.CodeOverRefund, shared.ErrorCode(err))

	refund, err := s.Refunds.CreateRefund(ctx, ledgerapp.CreateRefundRequest{
		OrderID:    seed.OrderID,
		Type:       ledger.RefundTypePartial,
		Method:     ledger.PaymentMethodCash,
		Amount:     decimal.NewFromInt(300),
		RefundDate: time.Now(),
		Reason:     "customer request",
		CreatedBy:  actor,
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.RefundStatusPending, refund.Status)
}

func TestAgingBucketsOverdueOrder(t *testing.T) {
	s := newFlowSetup(t)
	due := time.Now().Add(-45 * 24 * time.Hour)
	seed := s.seedOrder(t, "SO-IT-0005", decimal.NewFromInt(900), &due)
	ctx := context.Background()

	buckets, err := s.Receivables.AgingBuckets(ctx, &seed.PartyID, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, buckets)

	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(b.Outstanding)
		if b.MinDays <= 45 && (b.MaxDays == -1 || 45 <= b.MaxDays) {
			assert.Equal(t, 1, b.OrderCount, "order 45 days overdue lands in bucket %s", b.Label)
		}
	}
	assert.True(t, total.Equal(decimal.NewFromInt(900)))
}
