package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecordFilter carries the query options for listing payment records
type PaymentRecordFilter struct {
	Search   string
	OrderID  *uuid.UUID
	PartyID  *uuid.UUID
	Status   *PaymentRecordStatus
	Method   *PaymentMethod
	FromDate *time.Time
	ToDate   *time.Time
	OrderBy  string
	OrderDir string
	Page     int
	PageSize int
}

// RefundRecordFilter carries the query options for listing refund records
type RefundRecordFilter struct {
	Search        string
	OrderID       *uuid.UUID
	ReturnOrderID *uuid.UUID
	PartyID       *uuid.UUID
	Status        *RefundStatus
	FromDate      *time.Time
	ToDate        *time.Time
	OrderBy       string
	OrderDir      string
	Page          int
	PageSize      int
}

// PaymentRecordRepository defines the persistence interface for payment records
type PaymentRecordRepository interface {
	Save(ctx context.Context, record *PaymentRecord) error
	// SaveWithLock persists the record with an optimistic version check and
	// returns shared.ErrConcurrencyConflict when the stored version moved.
	SaveWithLock(ctx context.Context, record *PaymentRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentRecord, error)
	FindByNumber(ctx context.Context, paymentNumber string) (*PaymentRecord, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*PaymentRecord, error)
	FindAll(ctx context.Context, filter PaymentRecordFilter) ([]*PaymentRecord, error)
	Count(ctx context.Context, filter PaymentRecordFilter) (int64, error)
	// SumByOrder totals payment amounts against one order for the given
	// statuses. Passing confirmed and pending gives the reservation total
	// used by the overpayment guard; confirmed alone gives settled cash.
	SumByOrder(ctx context.Context, orderID uuid.UUID, statuses ...PaymentRecordStatus) (decimal.Decimal, error)
	// SumConfirmedByOrders returns the confirmed total per order id in a
	// single query. Orders with no confirmed payments are absent from the map.
	SumConfirmedByOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	// FindByPartyBetween lists a party's records whose payment date falls in
	// [from, to], ordered by payment date then payment number.
	FindByPartyBetween(ctx context.Context, partyID uuid.UUID, from, to time.Time) ([]*PaymentRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RefundRecordRepository defines the persistence interface for refund records
type RefundRecordRepository interface {
	Save(ctx context.Context, record *RefundRecord) error
	SaveWithLock(ctx context.Context, record *RefundRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*RefundRecord, error)
	FindByNumber(ctx context.Context, refundNumber string) (*RefundRecord, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*RefundRecord, error)
	FindByReturnOrderID(ctx context.Context, returnOrderID uuid.UUID) ([]*RefundRecord, error)
	FindAll(ctx context.Context, filter RefundRecordFilter) ([]*RefundRecord, error)
	Count(ctx context.Context, filter RefundRecordFilter) (int64, error)
	// SumCompletedByOrder totals processed amounts of completed refunds
	// against one order.
	SumCompletedByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	SumCompletedByOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	FindByPartyBetween(ctx context.Context, partyID uuid.UUID, from, to time.Time) ([]*RefundRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SequenceGenerator hands out gapless-enough monotonic values per named
// sequence. Implementations must be safe under concurrent transactions.
type SequenceGenerator interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Sequence names used for document numbering
const (
	SequencePayment = "payment_record"
	SequenceRefund  = "refund_record"
)
