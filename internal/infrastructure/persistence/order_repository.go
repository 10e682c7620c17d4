package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/shared"
	"github.com/finledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements both ledger.OrderService and
// ledger.OrderReader over the local order snapshot tables.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// GetOrder loads an order snapshot by ID
func (r *GormOrderRepository) GetOrder(ctx context.Context, id uuid.UUID) (*ledger.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetOrderLine loads a single order line snapshot by ID
func (r *GormOrderRepository) GetOrderLine(ctx context.Context, id uuid.UUID) (*ledger.OrderLine, error) {
	var model models.OrderLineModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// TransitionOrderStatus moves an order to a new lifecycle status
func (r *GormOrderRepository) TransitionOrderStatus(ctx context.Context, id uuid.UUID, newStatus ledger.OrderStatus) error {
	if !newStatus.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("invalid order status: %s", newStatus))
	}
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", id).
		Update("status", newStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListOrders lists order snapshots matching the stored-field filter
func (r *GormOrderRepository) ListOrders(ctx context.Context, filter ledger.OrderFilter) ([]ledger.Order, error) {
	var orderModels []models.OrderModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)

	sortField := ValidateSortField(filter.OrderBy, OrderSortFields, "ordered_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]ledger.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// CountOrders counts order snapshots matching the stored-field filter
func (r *GormOrderRepository) CountOrders(ctx context.Context, filter ledger.OrderFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter ledger.OrderFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("order_number ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.PartyID != nil {
		query = query.Where("party_id = ?", *filter.PartyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("ordered_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("ordered_at <= ?", *filter.ToDate)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date IS NOT NULL AND due_date < ?", *filter.DueBefore)
	}
	return query
}

// Ensure GormOrderRepository implements both order boundaries
var (
	_ ledger.OrderService = (*GormOrderRepository)(nil)
	_ ledger.OrderReader  = (*GormOrderRepository)(nil)
)
