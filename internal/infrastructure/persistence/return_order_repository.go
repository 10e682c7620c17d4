package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finledger/backend/internal/domain/returns"
	"github.com/finledger/backend/internal/domain/shared"
	"github.com/finledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReturnOrderRepository implements returns.ReturnOrderRepository using GORM
type GormReturnOrderRepository struct {
	db *gorm.DB
}

// NewGormReturnOrderRepository creates a new GormReturnOrderRepository
func NewGormReturnOrderRepository(db *gorm.DB) *GormReturnOrderRepository {
	return &GormReturnOrderRepository{db: db}
}

// Save creates or updates a return order together with its items
func (r *GormReturnOrderRepository) Save(ctx context.Context, order *returns.ReturnOrder) error {
	model := models.ReturnOrderModelFromDomain(order)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(model).Error; err != nil {
			return err
		}
		return r.saveItems(tx, model)
	})
}

// SaveWithLock saves the aggregate and its items with an optimistic version check
func (r *GormReturnOrderRepository) SaveWithLock(ctx context.Context, order *returns.ReturnOrder) error {
	model := models.ReturnOrderModelFromDomain(order)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ReturnOrderModel{}).
			Where("id = ? AND version = ?", order.ID, order.Version-1).
			Omit("Items").
			Updates(model)

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return r.saveItems(tx, model)
	})
}

// saveItems reconciles item rows with the aggregate's current item list.
// Removed items are deleted, remaining ones upserted.
func (r *GormReturnOrderRepository) saveItems(tx *gorm.DB, model *models.ReturnOrderModel) error {
	currentItemIDs := make([]uuid.UUID, len(model.Items))
	for i, item := range model.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("return_order_id = ? AND id NOT IN ?", model.ID, currentItemIDs).
			Delete(&models.ReturnOrderItemModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("return_order_id = ?", model.ID).
			Delete(&models.ReturnOrderItemModel{}).Error; err != nil {
			return err
		}
	}

	for i := range model.Items {
		model.Items[i].ReturnOrderID = model.ID
		if err := tx.Save(&model.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds a return order by ID, items included
func (r *GormReturnOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.ReturnOrder, error) {
	var model models.ReturnOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a return order by its document number
func (r *GormReturnOrderRepository) FindByNumber(ctx context.Context, returnNumber string) (*returns.ReturnOrder, error) {
	var model models.ReturnOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "return_number = ?", returnNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderID finds all return orders raised against an order
func (r *GormReturnOrderRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*returns.ReturnOrder, error) {
	var orderModels []models.ReturnOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainReturnOrders(orderModels), nil
}

// FindAll finds return orders matching the filter
func (r *GormReturnOrderRepository) FindAll(ctx context.Context, filter returns.ReturnOrderFilter) ([]*returns.ReturnOrder, error) {
	var orderModels []models.ReturnOrderModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ReturnOrderModel{}), filter)

	sortField := ValidateSortField(filter.OrderBy, ReturnOrderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Preload("Items").Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainReturnOrders(orderModels), nil
}

// Count counts return orders matching the filter
func (r *GormReturnOrderRepository) Count(ctx context.Context, filter returns.ReturnOrderFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ReturnOrderModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReturnedQuantityByLine sums the return quantity already claimed for an order
// line by return orders that still count (not cancelled, not rejected).
func (r *GormReturnOrderRepository) ReturnedQuantityByLine(ctx context.Context, orderLineID uuid.UUID, excludeReturnID uuid.UUID) (int, error) {
	var total int64
	query := r.db.WithContext(ctx).
		Model(&models.ReturnOrderItemModel{}).
		Joins("JOIN return_orders ON return_orders.id = return_order_items.return_order_id").
		Where("return_order_items.order_line_id = ?", orderLineID).
		Where("return_orders.status NOT IN ?", []returns.ReturnStatus{
			returns.ReturnStatusCancelled,
			returns.ReturnStatusRejected,
		})
	if excludeReturnID != uuid.Nil {
		query = query.Where("return_orders.id != ?", excludeReturnID)
	}
	if err := query.
		Select("COALESCE(SUM(return_order_items.return_quantity), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// FindByPartyBetween lists a party's completed-or-open returns created in [from, to]
func (r *GormReturnOrderRepository) FindByPartyBetween(ctx context.Context, partyID uuid.UUID, from, to time.Time) ([]*returns.ReturnOrder, error) {
	var orderModels []models.ReturnOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("party_id = ? AND created_at >= ? AND created_at <= ?", partyID, from, to).
		Order("created_at ASC, return_number ASC").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainReturnOrders(orderModels), nil
}

// Delete removes a return order and its items
func (r *GormReturnOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("return_order_id = ?", id).
			Delete(&models.ReturnOrderItemModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ReturnOrderModel{}, "id = ?", id).Error
	})
}

func (r *GormReturnOrderRepository) applyFilter(query *gorm.DB, filter returns.ReturnOrderFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("return_number ILIKE ? OR order_number ILIKE ?", pattern, pattern)
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
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}
	return query
}

func toDomainReturnOrders(orderModels []models.ReturnOrderModel) []*returns.ReturnOrder {
	orders := make([]*returns.ReturnOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = orderModels[i].ToDomain()
	}
	return orders
}

// Ensure GormReturnOrderRepository implements the domain interface
var _ returns.ReturnOrderRepository = (*GormReturnOrderRepository)(nil)
