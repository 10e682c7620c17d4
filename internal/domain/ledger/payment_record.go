package ledger

import (
	"fmt"
	"time"

	"github.com/finledger/backend/internal/domain/shared"
	"github.com/finledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodOther:
		return true
	}
	return false
}

// PaymentRecordStatus represents the status of a payment record
type PaymentRecordStatus string

const (
	PaymentRecordStatusPending   PaymentRecordStatus = "PENDING"
	PaymentRecordStatusConfirmed PaymentRecordStatus = "CONFIRMED"
	PaymentRecordStatusVoided    PaymentRecordStatus = "VOIDED"
)

// IsValid checks if the status is a valid PaymentRecordStatus
func (s PaymentRecordStatus) IsValid() bool {
	switch s {
	case PaymentRecordStatusPending, PaymentRecordStatusConfirmed, PaymentRecordStatusVoided:
		return true
	}
	return false
}

// String returns the string representation of PaymentRecordStatus
func (s PaymentRecordStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the payment record is in a terminal state
func (s PaymentRecordStatus) IsTerminal() bool {
	return s == PaymentRecordStatusVoided
}

// PaymentRecord is an aggregate root recording money received against an
// order. Records are never deleted; voiding is a soft state change that
// preserves the audit trail.
type PaymentRecord struct {
	shared.AuditedAggregateRoot
	PaymentNumber string
	OrderID       uuid.UUID
	OrderNumber   string
	PartyID       uuid.UUID
	Method        PaymentMethod
	Amount        decimal.Decimal
	BankReference string
	Status        PaymentRecordStatus
	PaymentDate   time.Time
	Remark        string
	ConfirmedAt   *time.Time
	ConfirmedBy   *uuid.UUID
	VoidedAt      *time.Time
	VoidedBy      *uuid.UUID
	VoidReason    string
}

// NewPaymentRecord creates a payment record in PENDING status. The party must
// be supplied explicitly and is validated against the order by the caller
// before the record is persisted; it is never inferred.
func NewPaymentRecord(
	paymentNumber string,
	order *Order,
	partyID uuid.UUID,
	method PaymentMethod,
	amount valueobject.Money,
	paymentDate time.Time,
	recordedBy uuid.UUID,
) (*PaymentRecord, error) {
	if paymentNumber == "" {
		return nil, shared.NewValidationError("Payment number cannot be empty")
	}
	if order == nil {
		return nil, shared.NewValidationError("Order cannot be nil")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewValidationError("Party ID cannot be empty")
	}
	if partyID != order.PartyID {
		return nil, shared.NewDomainError(shared.CodePartyMismatch,
			fmt.Sprintf("Party %s does not match the order's party %s", partyID, order.PartyID))
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("Payment method is not valid")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("Payment amount must be positive")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewValidationError("Payment date cannot be empty")
	}
	if recordedBy == uuid.Nil {
		return nil, shared.NewValidationError("Recording actor cannot be empty")
	}

	p := &PaymentRecord{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(recordedBy),
		PaymentNumber:        paymentNumber,
		OrderID:              order.ID,
		OrderNumber:          order.OrderNumber,
		PartyID:              partyID,
		Method:               method,
		Amount:               amount.Amount(),
		Status:               PaymentRecordStatusPending,
		PaymentDate:          paymentDate,
	}

	p.AddDomainEvent(NewPaymentRecordedEvent(p))

	return p, nil
}

// SetBankReference sets the bank transfer reference. Required for
// BANK_TRANSFER payments, validated in Validate.
func (p *PaymentRecord) SetBankReference(ref string) {
	p.BankReference = ref
	p.UpdatedAt = time.Now()
}

// SetRemark sets the free-text remark
func (p *PaymentRecord) SetRemark(remark string) {
	p.Remark = remark
	p.UpdatedAt = time.Now()
}

// Validate checks method-specific requirements before the record is persisted
func (p *PaymentRecord) Validate() error {
	if p.Method == PaymentMethodBankTransfer && p.BankReference == "" {
		return shared.NewValidationError("Bank reference is required for bank transfer payments")
	}
	return nil
}

// Confirm moves the payment to CONFIRMED. Only confirmed payments count
// toward the overpayment invariant and the derived payment status.
func (p *PaymentRecord) Confirm(actor uuid.UUID) error {
	if p.Status != PaymentRecordStatusPending {
		return shared.NewInvalidTransitionError(p.Status.String(), "confirm")
	}
	if actor == uuid.Nil {
		return shared.NewValidationError("Confirming actor cannot be empty")
	}

	now := time.Now()
	p.Status = PaymentRecordStatusConfirmed
	p.ConfirmedAt = &now
	p.ConfirmedBy = &actor
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentConfirmedEvent(p))

	return nil
}

// Void marks the payment as voided with a required reason. The record stays
// in the store; it simply stops counting in every derived computation.
func (p *PaymentRecord) Void(actor uuid.UUID, reason string) error {
	if p.Status == PaymentRecordStatusVoided {
		return shared.NewInvalidTransitionError(p.Status.String(), "void")
	}
	if actor == uuid.Nil {
		return shared.NewValidationError("Voiding actor cannot be empty")
	}
	if reason == "" {
		return shared.NewValidationError("Void reason is required")
	}

	now := time.Now()
	p.Status = PaymentRecordStatusVoided
	p.VoidedAt = &now
	p.VoidedBy = &actor
	p.VoidReason = reason
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentVoidedEvent(p))

	return nil
}

// IsConfirmed returns true if the payment is confirmed
func (p *PaymentRecord) IsConfirmed() bool {
	return p.Status == PaymentRecordStatusConfirmed
}

// IsVoided returns true if the payment has been voided
func (p *PaymentRecord) IsVoided() bool {
	return p.Status == PaymentRecordStatusVoided
}

// GetAmountMoney returns the amount as Money value object
func (p *PaymentRecord) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyCNY(p.Amount)
}
