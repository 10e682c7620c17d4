package returns

import (
	"github.com/finledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Return order event types
const (
	EventTypeReturnOrderCreated   = "returns.order.created"
	EventTypeReturnOrderSubmitted = "returns.order.submitted"
	EventTypeReturnOrderApproved  = "returns.order.approved"
	EventTypeReturnOrderRejected  = "returns.order.rejected"
	EventTypeReturnOrderCompleted = "returns.order.completed"
	EventTypeReturnOrderCancelled = "returns.order.cancelled"
)

// ReturnOrderCreatedEvent is raised when a return order is created
type ReturnOrderCreatedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string     `json:"return_number"`
	OrderID      uuid.UUID  `json:"order_id"`
	PartyID      uuid.UUID  `json:"party_id"`
	Type         ReturnType `json:"type"`
}

// NewReturnOrderCreatedEvent creates a new ReturnOrderCreatedEvent
func NewReturnOrderCreatedEvent(r *ReturnOrder) *ReturnOrderCreatedEvent {
	return &ReturnOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnOrderCreated, "ReturnOrder", r.ID),
		ReturnNumber:    r.ReturnNumber,
		OrderID:         r.OrderID,
		PartyID:         r.PartyID,
		Type:            r.Type,
	}
}

// ReturnOrderSubmittedEvent is raised when a return order is submitted
type ReturnOrderSubmittedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string          `json:"return_number"`
	OrderID      uuid.UUID       `json:"order_id"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// NewReturnOrderSubmittedEvent creates a new ReturnOrderSubmittedEvent
func NewReturnOrderSubmittedEvent(r *ReturnOrder) *ReturnOrderSubmittedEvent {
	return &ReturnOrderSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnOrderSubmitted, "ReturnOrder", r.ID),
		ReturnNumber:    r.ReturnNumber,
		OrderID:         r.OrderID,
		TotalAmount:     r.TotalAmount,
	}
}

// ReturnOrderApprovedEvent is raised when a return order is approved
type ReturnOrderApprovedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string          `json:"return_number"`
	OrderID      uuid.UUID       `json:"order_id"`
	PartyID      uuid.UUID       `json:"party_id"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// NewReturnOrderApprovedEvent creates a new ReturnOrderApprovedEvent
func NewReturnOrderApprovedEvent(r *ReturnOrder) *ReturnOrderApprovedEvent {
	return &ReturnOrderApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnOrderApproved, "ReturnOrder", r.ID),
		ReturnNumber:    r.ReturnNumber,
		OrderID:         r.OrderID,
		PartyID:         r.PartyID,
		RefundAmount:    r.RefundAmount,
	}
}

// ReturnOrderRejectedEvent is raised when a return order is rejected
type ReturnOrderRejectedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string `json:"return_number"`
	OrderID      uuid.UUID `json:"order_id"`
	Reason       string `json:"reason"`
}

// NewReturnOrderRejectedEvent creates a new ReturnOrderRejectedEvent
func NewReturnOrderRejectedEvent(r *ReturnOrder) *ReturnOrderRejectedEvent {
	return &ReturnOrderRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnOrderRejected, "ReturnOrder", r.ID),
		ReturnNumber:    r.ReturnNumber,
		OrderID:         r.OrderID,
		Reason:          r.RejectReason,
	}
}

// ReturnOrderCompletedEvent is raised when a return order completes
type ReturnOrderCompletedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string          `json:"return_number"`
	OrderID      uuid.UUID       `json:"order_id"`
	PartyID      uuid.UUID       `json:"party_id"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// NewReturnOrderCompletedEvent creates a new ReturnOrderCompletedEvent
func NewReturnOrderCompletedEvent(r *ReturnOrder) *ReturnOrderCompletedEvent {
	return &ReturnOrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnOrderCompleted, "ReturnOrder", r.ID),
		ReturnNumber:    r.ReturnNumber,
		OrderID:         r.OrderID,
		PartyID:         r.PartyID,
		RefundAmount:    r.RefundAmount,
	}
}

// ReturnOrderCancelledEvent is raised when a return order is cancelled
type ReturnOrderCancelledEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string `json:"return_number"`
	OrderID      uuid.UUID `json:"order_id"`
	Reason       string `json:"reason"`
}

// NewReturnOrderCancelledEvent creates a new ReturnOrderCancelledEvent
func NewReturnOrderCancelledEvent(r *ReturnOrder) *ReturnOrderCancelledEvent {
	return &ReturnOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnOrderCancelled, "ReturnOrder", r.ID),
		ReturnNumber:    r.ReturnNumber,
		OrderID:         r.OrderID,
		Reason:          r.CancelReason,
	}
}
