package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReturnOrderFilter carries the query options for listing return orders
type ReturnOrderFilter struct {
	Search   string
	OrderID  *uuid.UUID
	PartyID  *uuid.UUID
	Status   *ReturnStatus
	Type     *ReturnType
	FromDate *time.Time
	ToDate   *time.Time
	OrderBy  string
	OrderDir string
	Page     int
	PageSize int
}

// ReturnOrderRepository defines the persistence interface for return orders
type ReturnOrderRepository interface {
	Save(ctx context.Context, order *ReturnOrder) error
	// SaveWithLock persists the aggregate and its items with an optimistic
	// version check, returning shared.ErrConcurrencyConflict on a lost race.
	SaveWithLock(ctx context.Context, order *ReturnOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*ReturnOrder, error)
	FindByNumber(ctx context.Context, returnNumber string) (*ReturnOrder, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*ReturnOrder, error)
	FindAll(ctx context.Context, filter ReturnOrderFilter) ([]*ReturnOrder, error)
	Count(ctx context.Context, filter ReturnOrderFilter) (int64, error)
	// ReturnedQuantityByLine sums the return quantity already claimed for an
	// order line by other return orders. Cancelled and rejected returns do
	// not count; excludeReturnID skips the return being edited.
	ReturnedQuantityByLine(ctx context.Context, orderLineID uuid.UUID, excludeReturnID uuid.UUID) (int, error)
	FindByPartyBetween(ctx context.Context, partyID uuid.UUID, from, to time.Time) ([]*ReturnOrder, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Sequence name used for return order numbering
const SequenceReturnOrder = "return_order"
