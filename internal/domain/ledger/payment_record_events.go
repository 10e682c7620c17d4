package ledger

import (
	"github.com/finledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment record event types
const (
	EventTypePaymentRecorded  = "ledger.payment.recorded"
	EventTypePaymentConfirmed = "ledger.payment.confirmed"
	EventTypePaymentVoided    = "ledger.payment.voided"
)

// PaymentRecordedEvent is raised when a payment record is created
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	OrderID       uuid.UUID       `json:"order_id"`
	PartyID       uuid.UUID       `json:"party_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *PaymentRecord) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, "PaymentRecord", p.ID),
		PaymentNumber:   p.PaymentNumber,
		OrderID:         p.OrderID,
		PartyID:         p.PartyID,
		Amount:          p.Amount,
		Method:          p.Method,
	}
}

// PaymentConfirmedEvent is raised when a payment is confirmed
type PaymentConfirmedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	OrderID       uuid.UUID       `json:"order_id"`
	PartyID       uuid.UUID       `json:"party_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewPaymentConfirmedEvent creates a new PaymentConfirmedEvent
func NewPaymentConfirmedEvent(p *PaymentRecord) *PaymentConfirmedEvent {
	return &PaymentConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentConfirmed, "PaymentRecord", p.ID),
		PaymentNumber:   p.PaymentNumber,
		OrderID:         p.OrderID,
		PartyID:         p.PartyID,
		Amount:          p.Amount,
	}
}

// PaymentVoidedEvent is raised when a payment is voided
type PaymentVoidedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	OrderID       uuid.UUID       `json:"order_id"`
	PartyID       uuid.UUID       `json:"party_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

// NewPaymentVoidedEvent creates a new PaymentVoidedEvent
func NewPaymentVoidedEvent(p *PaymentRecord) *PaymentVoidedEvent {
	return &PaymentVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentVoided, "PaymentRecord", p.ID),
		PaymentNumber:   p.PaymentNumber,
		OrderID:         p.OrderID,
		PartyID:         p.PartyID,
		Amount:          p.Amount,
		Reason:          p.VoidReason,
	}
}
