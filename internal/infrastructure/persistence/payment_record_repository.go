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

// GormPaymentRecordRepository implements ledger.PaymentRecordRepository using GORM
type GormPaymentRecordRepository struct {
	db *gorm.DB
}

// NewGormPaymentRecordRepository creates a new GormPaymentRecordRepository
func NewGormPaymentRecordRepository(db *gorm.DB) *GormPaymentRecordRepository {
	return &GormPaymentRecordRepository{db: db}
}

// Save creates or updates a payment record
func (r *GormPaymentRecordRepository) Save(ctx context.Context, record *ledger.PaymentRecord) error {
	model := models.PaymentRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormPaymentRecordRepository) SaveWithLock(ctx context.Context, record *ledger.PaymentRecord) error {
	model := models.PaymentRecordModelFromDomain(record)
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

// FindByID finds a payment record by ID
func (r *GormPaymentRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.PaymentRecord, error) {
	var model models.PaymentRecordModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a payment record by its document number
func (r *GormPaymentRecordRepository) FindByNumber(ctx context.Context, paymentNumber string) (*ledger.PaymentRecord, error) {
	var model models.PaymentRecordModel
	if err := r.db.WithContext(ctx).
		First(&model, "payment_number = ?", paymentNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderID finds all payment records against an order
func (r *GormPaymentRecordRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*ledger.PaymentRecord, error) {
	var recordModels []models.PaymentRecordModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("payment_date ASC, payment_number ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	records := make([]*ledger.PaymentRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, nil
}

// FindAll finds payment records matching the filter
func (r *GormPaymentRecordRepository) FindAll(ctx context.Context, filter ledger.PaymentRecordFilter) ([]*ledger.PaymentRecord, error) {
	var recordModels []models.PaymentRecordModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PaymentRecordModel{}), filter)

	sortField := ValidateSortField(filter.OrderBy, PaymentRecordSortFields, "payment_date")
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
	records := make([]*ledger.PaymentRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, nil
}

// Count counts payment records matching the filter
func (r *GormPaymentRecordRepository) Count(ctx context.Context, filter ledger.PaymentRecordFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PaymentRecordModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumByOrder totals payment amounts against one order for the given statuses
func (r *GormPaymentRecordRepository) SumByOrder(ctx context.Context, orderID uuid.UUID, statuses ...ledger.PaymentRecordStatus) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	query := r.db.WithContext(ctx).
		Model(&models.PaymentRecordModel{}).
		Where("order_id = ?", orderID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if sum.Valid {
		return sum.Decimal, nil
	}
	return decimal.Zero, nil
}

// SumConfirmedByOrders returns the confirmed total per order in a single query
func (r *GormPaymentRecordRepository) SumConfirmedByOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
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
		Model(&models.PaymentRecordModel{}).
		Select("order_id, SUM(amount) AS total").
		Where("order_id IN ? AND status = ?", orderIDs, ledger.PaymentRecordStatusConfirmed).
		Group("order_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		sums[row.OrderID] = row.Total
	}
	return sums, nil
}

// FindByPartyBetween lists a party's records with payment date in [from, to]
func (r *GormPaymentRecordRepository) FindByPartyBetween(ctx context.Context, partyID uuid.UUID, from, to time.Time) ([]*ledger.PaymentRecord, error) {
	var recordModels []models.PaymentRecordModel
	if err := r.db.WithContext(ctx).
		Where("party_id = ? AND payment_date >= ? AND payment_date <= ?", partyID, from, to).
		Order("payment_date ASC, payment_number ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	records := make([]*ledger.PaymentRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, nil
}

// Delete removes a payment record
func (r *GormPaymentRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.PaymentRecordModel{}, "id = ?", id).Error
}

func (r *GormPaymentRecordRepository) applyFilter(query *gorm.DB, filter ledger.PaymentRecordFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("payment_number ILIKE ? OR order_number ILIKE ? OR bank_reference ILIKE ?", pattern, pattern, pattern)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.PartyID != nil {
		query = query.Where("party_id = ?", *filter.PartyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
	}
	if filter.FromDate != nil {
		query = query.Where("payment_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("payment_date <= ?", *filter.ToDate)
	}
	return query
}

// Ensure GormPaymentRecordRepository implements the domain interface
var _ ledger.PaymentRecordRepository = (*GormPaymentRecordRepository)(nil)
