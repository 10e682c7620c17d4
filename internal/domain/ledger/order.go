package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the order-lifecycle status owned by the order collaborator.
// The ledger never invents values of its own; it only reads the status and,
// as a side effect of full payment, asks the collaborator to advance it.
type OrderStatus string

const (
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusAwaitingPayment, OrderStatusPaid, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanMarkPaid returns true if the order may be advanced to PAID as a
// side effect of full payment
func (s OrderStatus) CanMarkPaid() bool {
	return s == OrderStatusAwaitingPayment
}

// Order is a read-only snapshot of an order owned by the order collaborator.
// The ledger references orders but never mutates their totals.
type Order struct {
	ID          uuid.UUID       `json:"id"`
	OrderNumber string          `json:"order_number"`
	PartyID     uuid.UUID       `json:"party_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Status      OrderStatus     `json:"status"`
	OrderedAt   time.Time       `json:"ordered_at"`
}

// OrderLine is a read-only snapshot of an order line item, used when
// validating return quantities against the original sale
type OrderLine struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderService is the order-lifecycle collaborator boundary. GetOrder loads a
// snapshot; TransitionOrderStatus is invoked by the payment ledger only as a
// side effect of full payment.
type OrderService interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrderLine(ctx context.Context, id uuid.UUID) (*OrderLine, error)
	TransitionOrderStatus(ctx context.Context, id uuid.UUID, newStatus OrderStatus) error
}

// OrderFilter defines stored-field predicates for order list queries
type OrderFilter struct {
	Search    string
	PartyID   *uuid.UUID
	Status    *OrderStatus
	FromDate  *time.Time
	ToDate    *time.Time
	OrderBy   string
	OrderDir  string
	Page      int
	PageSize  int
	DueBefore *time.Time
}

// OrderReader is the read-only order query boundary used by the receivables
// aggregator and the statement generator
type OrderReader interface {
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	CountOrders(ctx context.Context, filter OrderFilter) (int64, error)
}
