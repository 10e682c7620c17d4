package ledger

import (
	"time"

	"github.com/finledger/backend/internal/domain/shared"
	"github.com/finledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundType distinguishes a full refund of the order amount from a partial one
type RefundType string

const (
	RefundTypeFull    RefundType = "FULL"
	RefundTypePartial RefundType = "PARTIAL"
)

// IsValid checks if the refund type is valid
func (t RefundType) IsValid() bool {
	return t == RefundTypeFull || t == RefundTypePartial
}

// RefundStatus represents the status of a refund record
type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "PENDING"
	RefundStatusProcessing RefundStatus = "PROCESSING"
	RefundStatusCompleted  RefundStatus = "COMPLETED"
	RefundStatusRejected   RefundStatus = "REJECTED"
)

// IsValid checks if the status is a valid RefundStatus
func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundStatusPending, RefundStatusProcessing, RefundStatusCompleted, RefundStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of RefundStatus
func (s RefundStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the refund is in a terminal state
func (s RefundStatus) IsTerminal() bool {
	return s == RefundStatusCompleted || s == RefundStatusRejected
}

// RefundRecord is an aggregate root recording money returned to a party.
// It is created by return-order approval or as a standalone refund request
// and is mutated only through its own guarded transitions.
type RefundRecord struct {
	shared.AuditedAggregateRoot
	RefundNumber    string
	OrderID         uuid.UUID
	OrderNumber     string
	ReturnOrderID   *uuid.UUID
	PartyID         uuid.UUID
	Type            RefundType
	Method          PaymentMethod
	Amount          decimal.Decimal
	ProcessedAmount decimal.Decimal
	Status          RefundStatus
	RefundDate      time.Time
	Reason          string
	Remark          string
	ProcessedAt     *time.Time
	CompletedAt     *time.Time
	RejectedAt      *time.Time
	RejectReason    string
}

// NewRefundRecord creates a refund record in PENDING status
func NewRefundRecord(
	refundNumber string,
	order *Order,
	returnOrderID *uuid.UUID,
	refundType RefundType,
	method PaymentMethod,
	amount valueobject.Money,
	refundDate time.Time,
	reason string,
	createdBy uuid.UUID,
) (*RefundRecord, error) {
	if refundNumber == "" {
		return nil, shared.NewValidationError("Refund number cannot be empty")
	}
	if order == nil {
		return nil, shared.NewValidationError("Order cannot be nil")
	}
	if !refundType.IsValid() {
		return nil, shared.NewValidationError("Refund type is not valid")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("Refund method is not valid")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("Refund amount must be positive")
	}
	if refundDate.IsZero() {
		return nil, shared.NewValidationError("Refund date cannot be empty")
	}
	if reason == "" {
		return nil, shared.NewValidationError("Refund reason is required")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewValidationError("Creating actor cannot be empty")
	}

	r := &RefundRecord{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		RefundNumber:         refundNumber,
		OrderID:              order.ID,
		OrderNumber:          order.OrderNumber,
		ReturnOrderID:        returnOrderID,
		PartyID:              order.PartyID,
		Type:                 refundType,
		Method:               method,
		Amount:               amount.Amount(),
		ProcessedAmount:      decimal.Zero,
		Status:               RefundStatusPending,
		RefundDate:           refundDate,
		Reason:               reason,
	}

	r.AddDomainEvent(NewRefundCreatedEvent(r))

	return r, nil
}

// UpdateAmount changes the requested amount while the refund is still pending
func (r *RefundRecord) UpdateAmount(amount valueobject.Money) error {
	if r.Status != RefundStatusPending {
		return shared.NewInvalidTransitionError(r.Status.String(), "update amount")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("Refund amount must be positive")
	}

	r.Amount = amount.Amount()
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// StartProcessing moves the refund to PROCESSING
func (r *RefundRecord) StartProcessing(actor uuid.UUID) error {
	if r.Status != RefundStatusPending {
		return shared.NewInvalidTransitionError(r.Status.String(), "start processing")
	}
	if actor == uuid.Nil {
		return shared.NewValidationError("Processing actor cannot be empty")
	}

	now := time.Now()
	r.Status = RefundStatusProcessing
	r.ProcessedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRefundProcessingEvent(r))

	return nil
}

// Complete finalizes the refund with the amount actually paid out. The
// processed amount may differ from the requested amount but never exceeds it.
func (r *RefundRecord) Complete(actor uuid.UUID, processedAmount valueobject.Money) error {
	if r.Status != RefundStatusProcessing {
		return shared.NewInvalidTransitionError(r.Status.String(), "complete")
	}
	if actor == uuid.Nil {
		return shared.NewValidationError("Completing actor cannot be empty")
	}
	if processedAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("Processed amount must be positive")
	}
	if processedAmount.Amount().GreaterThan(r.Amount) {
		return shared.NewDomainError(shared.CodeOverRefund,
			"Processed amount exceeds the approved refund amount of "+r.Amount.StringFixed(2))
	}

	now := time.Now()
	r.Status = RefundStatusCompleted
	r.ProcessedAmount = processedAmount.Amount()
	r.CompletedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRefundCompletedEvent(r))

	return nil
}

// Reject terminates the refund without paying anything out
func (r *RefundRecord) Reject(actor uuid.UUID, reason string) error {
	if r.Status.IsTerminal() {
		return shared.NewInvalidTransitionError(r.Status.String(), "reject")
	}
	if actor == uuid.Nil {
		return shared.NewValidationError("Rejecting actor cannot be empty")
	}
	if reason == "" {
		return shared.NewValidationError("Rejection reason is required")
	}

	now := time.Now()
	r.Status = RefundStatusRejected
	r.RejectedAt = &now
	r.RejectReason = reason
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRefundRejectedEvent(r))

	return nil
}

// IsCompleted returns true if the refund is completed
func (r *RefundRecord) IsCompleted() bool {
	return r.Status == RefundStatusCompleted
}

// GetAmountMoney returns the requested amount as Money
func (r *RefundRecord) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyCNY(r.Amount)
}

// GetProcessedAmountMoney returns the processed amount as Money
func (r *RefundRecord) GetProcessedAmountMoney() valueobject.Money {
	return valueobject.NewMoneyCNY(r.ProcessedAmount)
}
