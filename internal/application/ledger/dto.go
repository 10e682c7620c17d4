package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finledger/backend/internal/domain/ledger"
)

// RecordPaymentRequest carries the input for recording a payment. Pending
// leaves the record awaiting a separate confirmation instead of confirming it
// in the same transaction.
type RecordPaymentRequest struct {
	OrderID       uuid.UUID
	PartyID       uuid.UUID
	Method        ledger.PaymentMethod
	Amount        decimal.Decimal
	PaymentDate   time.Time
	BankReference string
	Remark        string
	Pending       bool
	RecordedBy    uuid.UUID
}

// CreateRefundRequest carries the input for a standalone refund request
type CreateRefundRequest struct {
	OrderID    uuid.UUID
	Type       ledger.RefundType
	Method     ledger.PaymentMethod
	Amount     decimal.Decimal
	RefundDate time.Time
	Reason     string
	Remark     string
	CreatedBy  uuid.UUID
}

// PaymentRecordDTO is the read model of a payment record
type PaymentRecordDTO struct {
	ID            uuid.UUID                  `json:"id"`
	PaymentNumber string                     `json:"payment_number"`
	OrderID       uuid.UUID                  `json:"order_id"`
	OrderNumber   string                     `json:"order_number"`
	PartyID       uuid.UUID                  `json:"party_id"`
	Method        ledger.PaymentMethod       `json:"method"`
	Amount        decimal.Decimal            `json:"amount"`
	BankReference string                     `json:"bank_reference,omitempty"`
	Status        ledger.PaymentRecordStatus `json:"status"`
	PaymentDate   time.Time                  `json:"payment_date"`
	Remark        string                     `json:"remark,omitempty"`
	ConfirmedAt   *time.Time                 `json:"confirmed_at,omitempty"`
	VoidedAt      *time.Time                 `json:"voided_at,omitempty"`
	VoidReason    string                     `json:"void_reason,omitempty"`
	CreatedBy     uuid.UUID                  `json:"created_by"`
	CreatedAt     time.Time                  `json:"created_at"`
}

// ToPaymentRecordDTO converts a domain payment record to its read model
func ToPaymentRecordDTO(p *ledger.PaymentRecord) *PaymentRecordDTO {
	return &PaymentRecordDTO{
		ID:            p.ID,
		PaymentNumber: p.PaymentNumber,
		OrderID:       p.OrderID,
		OrderNumber:   p.OrderNumber,
		PartyID:       p.PartyID,
		Method:        p.Method,
		Amount:        p.Amount,
		BankReference: p.BankReference,
		Status:        p.Status,
		PaymentDate:   p.PaymentDate,
		Remark:        p.Remark,
		ConfirmedAt:   p.ConfirmedAt,
		VoidedAt:      p.VoidedAt,
		VoidReason:    p.VoidReason,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
	}
}

// RefundRecordDTO is the read model of a refund record
type RefundRecordDTO struct {
	ID              uuid.UUID            `json:"id"`
	RefundNumber    string               `json:"refund_number"`
	OrderID         uuid.UUID            `json:"order_id"`
	OrderNumber     string               `json:"order_number"`
	ReturnOrderID   *uuid.UUID           `json:"return_order_id,omitempty"`
	PartyID         uuid.UUID            `json:"party_id"`
	Type            ledger.RefundType    `json:"type"`
	Method          ledger.PaymentMethod `json:"method"`
	Amount          decimal.Decimal      `json:"amount"`
	ProcessedAmount decimal.Decimal      `json:"processed_amount"`
	Status          ledger.RefundStatus  `json:"status"`
	RefundDate      time.Time            `json:"refund_date"`
	Reason          string               `json:"reason"`
	Remark          string               `json:"remark,omitempty"`
	CompletedAt     *time.Time           `json:"completed_at,omitempty"`
	RejectedAt      *time.Time           `json:"rejected_at,omitempty"`
	RejectReason    string               `json:"reject_reason,omitempty"`
	CreatedBy       uuid.UUID            `json:"created_by"`
	CreatedAt       time.Time            `json:"created_at"`
}

// ToRefundRecordDTO converts a domain refund record to its read model
func ToRefundRecordDTO(r *ledger.RefundRecord) *RefundRecordDTO {
	return &RefundRecordDTO{
		ID:              r.ID,
		RefundNumber:    r.RefundNumber,
		OrderID:         r.OrderID,
		OrderNumber:     r.OrderNumber,
		ReturnOrderID:   r.ReturnOrderID,
		PartyID:         r.PartyID,
		Type:            r.Type,
		Method:          r.Method,
		Amount:          r.Amount,
		ProcessedAmount: r.ProcessedAmount,
		Status:          r.Status,
		RefundDate:      r.RefundDate,
		Reason:          r.Reason,
		Remark:          r.Remark,
		CompletedAt:     r.CompletedAt,
		RejectedAt:      r.RejectedAt,
		RejectReason:    r.RejectReason,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
	}
}

// PaymentRecordListResult pairs a page of records with the total match count
type PaymentRecordListResult struct {
	Items []*PaymentRecordDTO `json:"items"`
	Total int64               `json:"total"`
}

// RefundRecordListResult pairs a page of refunds with the total match count
type RefundRecordListResult struct {
	Items []*RefundRecordDTO `json:"items"`
	Total int64              `json:"total"`
}
