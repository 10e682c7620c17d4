package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/shared"
	"github.com/finledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormRefundRecordRepository implements ledger.RefundRecordRepository using GORM
type GormRefundRecordRepository struct {
	db *gorm.DB
}

// NewGormRefundRecordRepository creates a new GormRefundRecordRepository
func NewGormRefundRecordRepository(db *gorm.DB) *GormRefundRecordRepository {
	return &GormRefundRecordRepository{db: db}
}

// Save creates or updates a refund record
func (r *GormRefundRecordRepository) Save(ctx context.Context, record *ledger.RefundRecord) error {
	model := models.RefundRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormRefundRecordRepository) SaveWithLock(ctx context.Context, record *ledger.RefundRecord) error {
	model := models.RefundRecordModelFromDomain(record)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds a refund record by ID
func (r *GormRefundRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.RefundRecord, error) {
	var model models.RefundRecordModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a refund record by its document number
func (r *GormRefundRecordRepository) FindByNumber(ctx context.Context, refundNumber string) (*ledger.RefundRecord, error) {
	var model models.RefundRecordModel
	if err := r.db.WithContext(ctx).
		First(&model, "refund_number = ?", refundNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderID finds all refund records against an order
func (r *GormRefundRecordRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*ledger.RefundRecord, error) {
	return r.findWhere(ctx, "order_id = ?", orderID)
}

// FindByReturnOrderID finds all refund records created for a return order
func (r *GormRefundRecordRepository) FindByReturnOrderID(ctx context.Context, returnOrderID uuid.UUID) ([]*ledger.RefundRecord, error) {
	return r.findWhere(ctx, "return_order_id = ?", returnOrderID)
}

// FindAll finds refund records matching the filter
func (r *GormRefundRecordRepository) FindAll(ctx context.Context, filter ledger.RefundRecordFilter) ([]*ledger.RefundRecord, error) {
	var recordModels []models.RefundRecordModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.RefundRecordModel{}), filter)

	sortField := ValidateSortField(filter.OrderBy, RefundRecordSortFields, "refund_date")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}
	records := make([]*ledger.RefundRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, nil
}

// Count counts refund records matching the filter
func (r *GormRefundRecordRepository) Count(ctx context.Context, filter ledger.RefundRecordFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.RefundRecordModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumCompletedByOrder totals processed amounts of completed refunds against one order
func (r *GormRefundRecordRepository) SumCompletedByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&models.RefundRecordModel{}).
		Where("order_id = ? AND status = ?", orderID, ledger.RefundStatusCompleted).
		Select("COALESCE(SUM(processed_amount), 0)").
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if sum.Valid {
		return sum.Decimal, nil
	}
	return decimal.Zero, nil
}

// SumCompletedByOrders returns the completed refund total per order in a single query
func (r *GormRefundRecordRepository) SumCompletedByOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	sums := make(map[uuid.UUID]decimal.Decimal, len(orderIDs))
	if len(orderIDs) == 0 {
		return sums, nil
	}

	type orderSum struct {
		OrderID uuid.UUID
		Total   decimal.Decimal
	}
	var rows []orderSum
	if err := r.db.WithContext(ctx).
		Model(&models.RefundRecordModel{}).
		Select("order_id, SUM(processed_amount) AS total").
		Where("order_id IN ? AND status = ?", orderIDs, ledger.RefundStatusCompleted).
		Group("order_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		sums[row.OrderID] = row.Total
	}
	return sums, nil
}

// FindByPartyBetween lists a party's records with refund date in [from, to]
func (r *GormRefundRecordRepository) FindByPartyBetween(ctx context.Context, partyID uuid.UUID, from, to time.Time) ([]*ledger.RefundRecord, error) {
	var recordModels []models.RefundRecordModel
	if err := r.db.WithContext(ctx).
		Where("party_id = ? AND refund_date >= ? AND refund_date <= ?", partyID, from, to).
		Order("refund_date ASC, refund_number ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	records := make([]*ledger.RefundRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, nil
}

// Delete removes a refund record
func (r *GormRefundRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.RefundRecordModel{}, "id = ?", id).Error
}

func (r *GormRefundRecordRepository) findWhere(ctx context.Context, cond string, args ...any) ([]*ledger.RefundRecord, error) {
	var recordModels []models.RefundRecordModel
	if err := r.db.WithContext(ctx).
		Where(cond, args...).
		Order("refund_date ASC, refund_number ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	records := make([]*ledger.RefundRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, nil
}

func (r *GormRefundRecordRepository) applyFilter(query *gorm.DB, filter ledger.RefundRecordFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("refund_number ILIKE ? OR order_number ILIKE ?", pattern, pattern)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.ReturnOrderID != nil {
		query = query.Where("return_order_id = ?", *filter.ReturnOrderID)
	}
	if filter.PartyID != nil {
		query = query.Where("party_id = ?", *filter.PartyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("refund_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("refund_date <= ?", *filter.ToDate)
	}
	return query
}

// Ensure GormRefundRecordRepository implements the domain interface
var _ ledger.RefundRecordRepository = (*GormRefundRecordRepository)(nil)
