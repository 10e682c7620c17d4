package receivables

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finledger/backend/internal/domain/ledger"
)

// ListRequest carries the query options for listing receivables. Filters and
// sorts may target stored order fields or the derived payment fields; the
// service picks the query path accordingly.
type ListRequest struct {
	Search        string
	PartyID       *uuid.UUID
	PaymentStatus *ledger.PaymentStatus
	FromDate      *time.Time
	ToDate        *time.Time
	SortBy        string
	SortDir       string
	Page          int
	PageSize      int
	// AsOf anchors every derived computation; zero means time.Now once per call
	AsOf time.Time
}

// ReceivableDTO is one order with its derived payment fields
type ReceivableDTO struct {
	OrderID       uuid.UUID            `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	PartyID       uuid.UUID            `json:"party_id"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	PaidAmount    decimal.Decimal      `json:"paid_amount"`
	Outstanding   decimal.Decimal      `json:"outstanding"`
	PaymentStatus ledger.PaymentStatus `json:"payment_status"`
	OverdueDays   int                  `json:"overdue_days"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	OrderedAt     time.Time            `json:"ordered_at"`
}

// Summary aggregates the receivables of the whole filtered set, not just the
// returned page.
type Summary struct {
	TotalReceivable decimal.Decimal                `json:"total_receivable"`
	TotalOverdue    decimal.Decimal                `json:"total_overdue"`
	StatusCounts    map[ledger.PaymentStatus]int64 `json:"status_counts"`
	OrderCount      int64                          `json:"order_count"`
}

// ListResult is one page of receivables plus the filtered-set summary
type ListResult struct {
	Items   []*ReceivableDTO `json:"items"`
	Total   int64            `json:"total"`
	Summary Summary          `json:"summary"`
}

// AgingBucket is one range of days-overdue with the orders that fall in it
type AgingBucket struct {
	Label       string          `json:"label"`
	MinDays     int             `json:"min_days"`
	MaxDays     int             `json:"max_days"` // -1 means unbounded
	Outstanding decimal.Decimal `json:"outstanding"`
	OrderCount  int             `json:"order_count"`
}
