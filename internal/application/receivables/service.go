package receivables

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finledger/backend/internal/domain/ledger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Service is the receivables aggregator: a read-only view over orders and
// confirmed payments that recomputes payment status, outstanding balance and
// overdue age on every call. No stored status column is trusted as source of
// truth.
type Service struct {
	orders   ledger.OrderReader
	payments ledger.PaymentRecordRepository
	cache    SnapshotCache
	logger   *zap.Logger
}

// SnapshotCache stores serialized per-party aging snapshots. Writes that
// change a party's receivables invalidate the entry, so a stale read window
// is bounded by the cache TTL only while no writes happen.
type SnapshotCache interface {
	Get(ctx context.Context, partyID uuid.UUID) ([]byte, bool, error)
	Set(ctx context.Context, partyID uuid.UUID, payload []byte) error
}

// NewService creates a new receivables service
func NewService(orders ledger.OrderReader, payments ledger.PaymentRecordRepository, logger *zap.Logger) *Service {
	return &Service{orders: orders, payments: payments, logger: logger}
}

// WithCache enables per-party aging snapshot caching
func (s *Service) WithCache(cache SnapshotCache) *Service {
	s.cache = cache
	return s
}

// List returns one page of receivables plus summary statistics over the whole
// filtered set. Queries touching only stored fields are pushed to the store;
// queries touching derived fields fetch the stored-field match set and
// filter, sort and paginate in memory.
func (s *Service) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	req = normalize(req)
	base := storedFilter(req)

	path := plan(req)
	s.logger.Debug("receivables query planned",
		zap.Bool("derived_path", path == pathDerived),
		zap.String("sort_by", req.SortBy))

	if path == pathStored {
		return s.listStored(ctx, req, base)
	}
	return s.listDerived(ctx, req, base)
}

// Summary computes the receivables statistics over the whole filtered set
// without paging through it. Same filter semantics as List; pagination and
// sorting inputs are ignored.
func (s *Service) Summary(ctx context.Context, req ListRequest) (Summary, error) {
	req = normalize(req)

	rows, err := s.fetchDerived(ctx, storedFilter(req), req.AsOf)
	if err != nil {
		return Summary{}, err
	}

	if req.PaymentStatus != nil {
		filtered := rows[:0]
		for _, row := range rows {
			if row.PaymentStatus == *req.PaymentStatus {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	return summarize(rows), nil
}

// AgingBuckets partitions a party's currently outstanding orders by days
// overdue. Passing a nil party covers every party.
func (s *Service) AgingBuckets(ctx context.Context, partyID *uuid.UUID, asOf time.Time) ([]AgingBucket, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}

	if buckets, ok := s.cachedBuckets(ctx, partyID, asOf); ok {
		return buckets, nil
	}

	rows, err := s.fetchDerived(ctx, ledger.OrderFilter{PartyID: partyID}, asOf)
	if err != nil {
		return nil, err
	}

	ranges := ledger.AgingRanges()
	buckets := make([]AgingBucket, len(ranges))
	for i, r := range ranges {
		buckets[i] = AgingBucket{
			Label:       r.Label,
			MinDays:     r.MinDays,
			MaxDays:     r.MaxDays,
			Outstanding: decimal.Zero,
		}
	}

	for _, row := range rows {
		if !row.Outstanding.IsPositive() {
			continue
		}
		i := ledger.AgingBucketIndex(row.OverdueDays)
		buckets[i].Outstanding = buckets[i].Outstanding.Add(row.Outstanding)
		buckets[i].OrderCount++
	}

	s.storeBuckets(ctx, partyID, asOf, buckets)
	return buckets, nil
}

// agingSnapshot is the cached form of a party's aging report. AsOf is kept so
// a snapshot anchored at a different time is never served.
type agingSnapshot struct {
	AsOf    time.Time     `json:"as_of"`
	Buckets []AgingBucket `json:"buckets"`
}

func (s *Service) cachedBuckets(ctx context.Context, partyID *uuid.UUID, asOf time.Time) ([]AgingBucket, bool) {
	if s.cache == nil || partyID == nil {
		return nil, false
	}
	payload, found, err := s.cache.Get(ctx, *partyID)
	if err != nil {
		s.logger.Warn("receivables cache read failed",
			zap.String("party_id", partyID.String()),
			zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}
	var snap agingSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		s.logger.Warn("receivables cache payload corrupt",
			zap.String("party_id", partyID.String()),
			zap.Error(err))
		return nil, false
	}
	if !snap.AsOf.Equal(asOf) {
		return nil, false
	}
	return snap.Buckets, true
}

func (s *Service) storeBuckets(ctx context.Context, partyID *uuid.UUID, asOf time.Time, buckets []AgingBucket) {
	if s.cache == nil || partyID == nil {
		return
	}
	payload, err := json.Marshal(agingSnapshot{AsOf: asOf, Buckets: buckets})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, *partyID, payload); err != nil {
		s.logger.Warn("receivables cache write failed",
			zap.String("party_id", partyID.String()),
			zap.Error(err))
	}
}

func (s *Service) listStored(ctx context.Context, req ListRequest, base ledger.OrderFilter) (*ListResult, error) {
	paged := base
	paged.OrderBy = storedSortColumns[req.SortBy]
	paged.OrderDir = req.SortDir
	paged.Page = req.Page
	paged.PageSize = req.PageSize

	orders, err := s.orders.ListOrders(ctx, paged)
	if err != nil {
		return nil, err
	}
	total, err := s.orders.CountOrders(ctx, base)
	if err != nil {
		return nil, err
	}

	items, err := s.deriveRows(ctx, orders, req.AsOf)
	if err != nil {
		return nil, err
	}

	// summary statistics cover the whole filtered set, not the page
	all, err := s.fetchDerived(ctx, base, req.AsOf)
	if err != nil {
		return nil, err
	}

	return &ListResult{Items: items, Total: total, Summary: summarize(all)}, nil
}

func (s *Service) listDerived(ctx context.Context, req ListRequest, base ledger.OrderFilter) (*ListResult, error) {
	rows, err := s.fetchDerived(ctx, base, req.AsOf)
	if err != nil {
		return nil, err
	}

	if req.PaymentStatus != nil {
		filtered := rows[:0]
		for _, row := range rows {
			if row.PaymentStatus == *req.PaymentStatus {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	sortRows(rows, req.SortBy, req.SortDir)

	summary := summarize(rows)
	total := int64(len(rows))

	start := (req.Page - 1) * req.PageSize
	if start > len(rows) {
		start = len(rows)
	}
	end := start + req.PageSize
	if end > len(rows) {
		end = len(rows)
	}

	return &ListResult{Items: rows[start:end], Total: total, Summary: summary}, nil
}

// fetchDerived loads every order matching the stored-field predicates and
// computes the derived payment fields for each.
func (s *Service) fetchDerived(ctx context.Context, base ledger.OrderFilter, asOf time.Time) ([]*ReceivableDTO, error) {
	full := base
	full.Page = 0
	full.PageSize = 0

	orders, err := s.orders.ListOrders(ctx, full)
	if err != nil {
		return nil, err
	}
	return s.deriveRows(ctx, orders, asOf)
}

func (s *Service) deriveRows(ctx context.Context, orders []ledger.Order, asOf time.Time) ([]*ReceivableDTO, error) {
	if len(orders) == 0 {
		return []*ReceivableDTO{}, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	sums, err := s.payments.SumConfirmedByOrders(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]*ReceivableDTO, len(orders))
	for i, o := range orders {
		paid := sums[o.ID]
		rows[i] = &ReceivableDTO{
			OrderID:       o.ID,
			OrderNumber:   o.OrderNumber,
			PartyID:       o.PartyID,
			TotalAmount:   o.TotalAmount,
			PaidAmount:    paid,
			Outstanding:   ledger.Outstanding(o.TotalAmount, paid),
			PaymentStatus: ledger.DerivePaymentStatus(o.TotalAmount, paid, o.DueDate, asOf),
			OverdueDays:   ledger.OverdueDays(o.TotalAmount, paid, o.DueDate, asOf),
			DueDate:       o.DueDate,
			OrderedAt:     o.OrderedAt,
		}
	}
	return rows, nil
}

func summarize(rows []*ReceivableDTO) Summary {
	s := Summary{
		TotalReceivable: decimal.Zero,
		TotalOverdue:    decimal.Zero,
		StatusCounts:    map[ledger.PaymentStatus]int64{},
		OrderCount:      int64(len(rows)),
	}
	for _, row := range rows {
		s.TotalReceivable = s.TotalReceivable.Add(row.Outstanding)
		if row.PaymentStatus == ledger.PaymentStatusOverdue {
			s.TotalOverdue = s.TotalOverdue.Add(row.Outstanding)
		}
		s.StatusCounts[row.PaymentStatus]++
	}
	return s
}

// sortRows orders rows in memory; ties fall back to order number so results
// stay deterministic.
func sortRows(rows []*ReceivableDTO, sortBy, sortDir string) {
	desc := strings.EqualFold(sortDir, "desc")

	less := func(a, b *ReceivableDTO) bool { return a.OrderedAt.Before(b.OrderedAt) }
	switch sortBy {
	case "payment_status":
		rank := map[ledger.PaymentStatus]int{
			ledger.PaymentStatusOverdue: 0,
			ledger.PaymentStatusUnpaid:  1,
			ledger.PaymentStatusPartial: 2,
			ledger.PaymentStatusPaid:    3,
		}
		less = func(a, b *ReceivableDTO) bool { return rank[a.PaymentStatus] < rank[b.PaymentStatus] }
	case "outstanding":
		less = func(a, b *ReceivableDTO) bool { return a.Outstanding.LessThan(b.Outstanding) }
	case "paid_amount":
		less = func(a, b *ReceivableDTO) bool { return a.PaidAmount.LessThan(b.PaidAmount) }
	case "overdue_days":
		less = func(a, b *ReceivableDTO) bool { return a.OverdueDays < b.OverdueDays }
	case "order_number":
		less = func(a, b *ReceivableDTO) bool { return a.OrderNumber < b.OrderNumber }
	case "total_amount":
		less = func(a, b *ReceivableDTO) bool { return a.TotalAmount.LessThan(b.TotalAmount) }
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if less(a, b) != less(b, a) {
			if desc {
				return less(b, a)
			}
			return less(a, b)
		}
		return a.OrderNumber < b.OrderNumber
	})
}

func normalize(req ListRequest) ListRequest {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}
	if req.AsOf.IsZero() {
		req.AsOf = time.Now()
	}
	return req
}

func storedFilter(req ListRequest) ledger.OrderFilter {
	return ledger.OrderFilter{
		Search:   req.Search,
		PartyID:  req.PartyID,
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
	}
}
