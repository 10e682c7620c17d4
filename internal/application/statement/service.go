package statement

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finledger/backend/internal/application/receivables"
	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/returns"
	"github.com/finledger/backend/internal/domain/shared"
)

// Service is the reconciliation statement generator: a read-only assembler of
// one party's orders, payments, returns and refunds into a chronological
// running-balance ledger. Generating a statement twice over the same data
// yields identical results; the only time input is the explicit AsOf.
type Service struct {
	orders      ledger.OrderReader
	payments    ledger.PaymentRecordRepository
	refunds     ledger.RefundRecordRepository
	returnRepo  returns.ReturnOrderRepository
	receivables *receivables.Service
	logger      *zap.Logger
}

// NewService creates a new statement service
func NewService(
	orders ledger.OrderReader,
	payments ledger.PaymentRecordRepository,
	refunds ledger.RefundRecordRepository,
	returnRepo returns.ReturnOrderRepository,
	recv *receivables.Service,
	logger *zap.Logger,
) *Service {
	return &Service{
		orders:      orders,
		payments:    payments,
		refunds:     refunds,
		returnRepo:  returnRepo,
		receivables: recv,
		logger:      logger,
	}
}

// Generate assembles the statement for one party over [from, to]. Orders
// increase the receivable balance; confirmed payments and completed refunds
// decrease it. Completed returns appear as zero-delta entries: their monetary
// effect is carried by the refund they raised, so counting both would double
// the credit.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Statement, error) {
	if req.PartyID == uuid.Nil {
		return nil, shared.NewValidationError("Party ID cannot be empty")
	}
	if req.To.Before(req.From) {
		return nil, shared.NewValidationError("Date range end precedes its start")
	}
	if req.AsOf.IsZero() {
		req.AsOf = req.To
	}

	opening, err := s.openingBalance(ctx, req.PartyID, req.From)
	if err != nil {
		return nil, err
	}

	entries, err := s.collectEntries(ctx, req.PartyID, req.From, req.To)
	if err != nil {
		return nil, err
	}
	sortEntries(entries)

	balance := opening
	for i := range entries {
		balance = balance.Add(entries[i].Delta)
		entries[i].Balance = balance
	}

	buckets, err := s.receivables.AgingBuckets(ctx, &req.PartyID, req.AsOf)
	if err != nil {
		return nil, err
	}

	return &Statement{
		PartyID:        req.PartyID,
		From:           req.From,
		To:             req.To,
		AsOf:           req.AsOf,
		OpeningBalance: opening,
		ClosingBalance: balance,
		Entries:        entries,
		AgingBuckets:   buckets,
	}, nil
}

// openingBalance replays every monetary event before the range start
func (s *Service) openingBalance(ctx context.Context, partyID uuid.UUID, from time.Time) (decimal.Decimal, error) {
	prior, err := s.collectEntries(ctx, partyID, time.Time{}, from.Add(-time.Nanosecond))
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, e := range prior {
		balance = balance.Add(e.Delta)
	}
	return balance, nil
}

func (s *Service) collectEntries(ctx context.Context, partyID uuid.UUID, from, to time.Time) ([]Entry, error) {
	var entries []Entry

	orderFilter := ledger.OrderFilter{PartyID: &partyID}
	if !from.IsZero() {
		f := from
		orderFilter.FromDate = &f
	}
	t := to
	orderFilter.ToDate = &t

	orders, err := s.orders.ListOrders(ctx, orderFilter)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		entries = append(entries, Entry{
			Date:        o.OrderedAt,
			Kind:        EntryKindOrder,
			Reference:   o.OrderNumber,
			Description: "Order " + o.OrderNumber,
			Delta:       o.TotalAmount,
		})
	}

	payments, err := s.payments.FindByPartyBetween(ctx, partyID, from, to)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		if !p.IsConfirmed() {
			continue
		}
		entries = append(entries, Entry{
			Date:        p.PaymentDate,
			Kind:        EntryKindPayment,
			Reference:   p.PaymentNumber,
			Description: "Payment " + p.PaymentNumber + " against " + p.OrderNumber,
			Delta:       p.Amount.Neg(),
		})
	}

	refunds, err := s.refunds.FindByPartyBetween(ctx, partyID, from, to)
	if err != nil {
		return nil, err
	}
	for _, r := range refunds {
		if !r.IsCompleted() {
			continue
		}
		entries = append(entries, Entry{
			Date:        r.RefundDate,
			Kind:        EntryKindRefund,
			Reference:   r.RefundNumber,
			Description: "Refund " + r.RefundNumber + " against " + r.OrderNumber,
			Delta:       r.ProcessedAmount.Neg(),
		})
	}

	returnOrders, err := s.returnRepo.FindByPartyBetween(ctx, partyID, from, to)
	if err != nil {
		return nil, err
	}
	for _, ro := range returnOrders {
		if ro.Status != returns.ReturnStatusCompleted || ro.CompletedAt == nil {
			continue
		}
		entries = append(entries, Entry{
			Date:        *ro.CompletedAt,
			Kind:        EntryKindReturn,
			Reference:   ro.ReturnNumber,
			Description: "Return " + ro.ReturnNumber + " against " + ro.OrderNumber,
			Delta:       decimal.Zero,
		})
	}

	return entries, nil
}

// kindRank fixes the order of same-day entries so statements are stable
var kindRank = map[EntryKind]int{
	EntryKindOrder:   0,
	EntryKindPayment: 1,
	EntryKindReturn:  2,
	EntryKindRefund:  3,
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if kindRank[a.Kind] != kindRank[b.Kind] {
			return kindRank[a.Kind] < kindRank[b.Kind]
		}
		return a.Reference < b.Reference
	})
}
