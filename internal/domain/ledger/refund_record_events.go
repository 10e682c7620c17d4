package ledger

import (
	"github.com/finledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Refund record event types
const (
	EventTypeRefundCreated    = "ledger.refund.created"
	EventTypeRefundProcessing = "ledger.refund.processing"
	EventTypeRefundCompleted  = "ledger.refund.completed"
	EventTypeRefundRejected   = "ledger.refund.rejected"
)

// RefundCreatedEvent is raised when a refund record is created
type RefundCreatedEvent struct {
	shared.BaseDomainEvent
	RefundNumber  string          `json:"refund_number"`
	OrderID       uuid.UUID       `json:"order_id"`
	ReturnOrderID *uuid.UUID      `json:"return_order_id,omitempty"`
	PartyID       uuid.UUID       `json:"party_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          RefundType      `json:"type"`
}

// NewRefundCreatedEvent creates a new RefundCreatedEvent
func NewRefundCreatedEvent(r *RefundRecord) *RefundCreatedEvent {
	return &RefundCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundCreated, "RefundRecord", r.ID),
		RefundNumber:    r.RefundNumber,
		OrderID:         r.OrderID,
		ReturnOrderID:   r.ReturnOrderID,
		PartyID:         r.PartyID,
		Amount:          r.Amount,
		Type:            r.Type,
	}
}

// RefundProcessingEvent is raised when refund processing starts
type RefundProcessingEvent struct {
	shared.BaseDomainEvent
	RefundNumber string          `json:"refund_number"`
	OrderID      uuid.UUID       `json:"order_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// NewRefundProcessingEvent creates a new RefundProcessingEvent
func NewRefundProcessingEvent(r *RefundRecord) *RefundProcessingEvent {
	return &RefundProcessingEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundProcessing, "RefundRecord", r.ID),
		RefundNumber:    r.RefundNumber,
		OrderID:         r.OrderID,
		Amount:          r.Amount,
	}
}

// RefundCompletedEvent is raised when a refund is paid out
type RefundCompletedEvent struct {
	shared.BaseDomainEvent
	RefundNumber    string          `json:"refund_number"`
	OrderID         uuid.UUID       `json:"order_id"`
	PartyID         uuid.UUID       `json:"party_id"`
	ProcessedAmount decimal.Decimal `json:"processed_amount"`
}

// NewRefundCompletedEvent creates a new RefundCompletedEvent
func NewRefundCompletedEvent(r *RefundRecord) *RefundCompletedEvent {
	return &RefundCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundCompleted, "RefundRecord", r.ID),
		RefundNumber:    r.RefundNumber,
		OrderID:         r.OrderID,
		PartyID:         r.PartyID,
		ProcessedAmount: r.ProcessedAmount,
	}
}

// RefundRejectedEvent is raised when a refund is rejected
type RefundRejectedEvent struct {
	shared.BaseDomainEvent
	RefundNumber string `json:"refund_number"`
	OrderID      uuid.UUID `json:"order_id"`
	Reason       string `json:"reason"`
}

// NewRefundRejectedEvent creates a new RefundRejectedEvent
func NewRefundRejectedEvent(r *RefundRecord) *RefundRejectedEvent {
	return &RefundRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundRejected, "RefundRecord", r.ID),
		RefundNumber:    r.RefundNumber,
		OrderID:         r.OrderID,
		Reason:          r.RejectReason,
	}
}
