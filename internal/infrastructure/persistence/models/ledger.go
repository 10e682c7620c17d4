package models

import (
	"time"

	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the order snapshot the ledger
// records payments and refunds against.
type OrderModel struct {
	BaseModel
	OrderNumber string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	PartyID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	TotalAmount decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	DueDate     *time.Time         `gorm:"index"`
	Status      ledger.OrderStatus `gorm:"type:varchar(30);not null;default:'AWAITING_PAYMENT';index"`
	OrderedAt   time.Time          `gorm:"not null;index"`
	Lines       []OrderLineModel   `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order snapshot.
func (m *OrderModel) ToDomain() *ledger.Order {
	return &ledger.Order{
		ID:          m.ID,
		OrderNumber: m.OrderNumber,
		PartyID:     m.PartyID,
		TotalAmount: m.TotalAmount,
		DueDate:     m.DueDate,
		Status:      m.Status,
		OrderedAt:   m.OrderedAt,
	}
}

// OrderLineModel is the persistence model for an order line item.
type OrderLineModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// ToDomain converts the persistence model to a domain OrderLine snapshot.
func (m *OrderLineModel) ToDomain() *ledger.OrderLine {
	return &ledger.OrderLine{
		ID:        m.ID,
		OrderID:   m.OrderID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
	}
}

// PaymentRecordModel is the persistence model for PaymentRecord.
type PaymentRecordModel struct {
	AuditedAggregateModel
	PaymentNumber string                     `gorm:"type:varchar(50);not null;uniqueIndex"`
	OrderID       uuid.UUID                  `gorm:"type:uuid;not null;index"`
	OrderNumber   string                     `gorm:"type:varchar(50);not null"`
	PartyID       uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Method        ledger.PaymentMethod       `gorm:"type:varchar(30);not null"`
	Amount        decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	BankReference string                     `gorm:"type:varchar(100)"`
	Status        ledger.PaymentRecordStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentDate   time.Time                  `gorm:"not null;index"`
	Remark        string                     `gorm:"type:text"`
	ConfirmedAt   *time.Time
	ConfirmedBy   *uuid.UUID `gorm:"type:uuid"`
	VoidedAt      *time.Time
	VoidedBy      *uuid.UUID `gorm:"type:uuid"`
	VoidReason    string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PaymentRecordModel) TableName() string {
	return "payment_records"
}

// ToDomain converts the persistence model to a domain PaymentRecord.
func (m *PaymentRecordModel) ToDomain() *ledger.PaymentRecord {
	p := &ledger.PaymentRecord{
		PaymentNumber: m.PaymentNumber,
		OrderID:       m.OrderID,
		OrderNumber:   m.OrderNumber,
		PartyID:       m.PartyID,
		Method:        m.Method,
		Amount:        m.Amount,
		BankReference: m.BankReference,
		Status:        m.Status,
		PaymentDate:   m.PaymentDate,
		Remark:        m.Remark,
		ConfirmedAt:   m.ConfirmedAt,
		ConfirmedBy:   m.ConfirmedBy,
		VoidedAt:      m.VoidedAt,
		VoidedBy:      m.VoidedBy,
		VoidReason:    m.VoidReason,
	}
	m.PopulateAuditedAggregateRoot(&p.AuditedAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain PaymentRecord.
func (m *PaymentRecordModel) FromDomain(p *ledger.PaymentRecord) {
	m.FromDomainAuditedAggregateRoot(p.AuditedAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.OrderID = p.OrderID
	m.OrderNumber = p.OrderNumber
	m.PartyID = p.PartyID
	m.Method = p.Method
	m.Amount = p.Amount
	m.BankReference = p.BankReference
	m.Status = p.Status
	m.PaymentDate = p.PaymentDate
	m.Remark = p.Remark
	m.ConfirmedAt = p.ConfirmedAt
	m.ConfirmedBy = p.ConfirmedBy
	m.VoidedAt = p.VoidedAt
	m.VoidedBy = p.VoidedBy
	m.VoidReason = p.VoidReason
}

// PaymentRecordModelFromDomain creates a new persistence model from domain.
func PaymentRecordModelFromDomain(p *ledger.PaymentRecord) *PaymentRecordModel {
	m := &PaymentRecordModel{}
	m.FromDomain(p)
	return m
}

// RefundRecordModel is the persistence model for RefundRecord.
type RefundRecordModel struct {
	AuditedAggregateModel
	RefundNumber    string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	OrderID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	OrderNumber     string               `gorm:"type:varchar(50);not null"`
	ReturnOrderID   *uuid.UUID           `gorm:"type:uuid;index"`
	PartyID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	Type            ledger.RefundType    `gorm:"type:varchar(20);not null"`
	Method          ledger.PaymentMethod `gorm:"type:varchar(30);not null"`
	Amount          decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	ProcessedAmount decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Status          ledger.RefundStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	RefundDate      time.Time            `gorm:"not null;index"`
	Reason          string               `gorm:"type:varchar(500);not null"`
	Remark          string               `gorm:"type:text"`
	ProcessedAt     *time.Time
	CompletedAt     *time.Time
	RejectedAt      *time.Time
	RejectReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (RefundRecordModel) TableName() string {
	return "refund_records"
}

// ToDomain converts the persistence model to a domain RefundRecord.
func (m *RefundRecordModel) ToDomain() *ledger.RefundRecord {
	r := &ledger.RefundRecord{
		RefundNumber:    m.RefundNumber,
		OrderID:         m.OrderID,
		OrderNumber:     m.OrderNumber,
		ReturnOrderID:   m.ReturnOrderID,
		PartyID:         m.PartyID,
		Type:            m.Type,
		Method:          m.Method,
		Amount:          m.Amount,
		ProcessedAmount: m.ProcessedAmount,
		Status:          m.Status,
		RefundDate:      m.RefundDate,
		Reason:          m.Reason,
		Remark:          m.Remark,
		ProcessedAt:     m.ProcessedAt,
		CompletedAt:     m.CompletedAt,
		RejectedAt:      m.RejectedAt,
		RejectReason:    m.RejectReason,
	}
	m.PopulateAuditedAggregateRoot(&r.AuditedAggregateRoot)
	return r
}

// FromDomain populates the persistence model from a domain RefundRecord.
func (m *RefundRecordModel) FromDomain(r *ledger.RefundRecord) {
	m.FromDomainAuditedAggregateRoot(r.AuditedAggregateRoot)
	m.RefundNumber = r.RefundNumber
	m.OrderID = r.OrderID
	m.OrderNumber = r.OrderNumber
	m.ReturnOrderID = r.ReturnOrderID
	m.PartyID = r.PartyID
	m.Type = r.Type
	m.Method = r.Method
	m.Amount = r.Amount
	m.ProcessedAmount = r.ProcessedAmount
	m.Status = r.Status
	m.RefundDate = r.RefundDate
	m.Reason = r.Reason
	m.Remark = r.Remark
	m.ProcessedAt = r.ProcessedAt
	m.CompletedAt = r.CompletedAt
	m.RejectedAt = r.RejectedAt
	m.RejectReason = r.RejectReason
}

// RefundRecordModelFromDomain creates a new persistence model from domain.
func RefundRecordModelFromDomain(r *ledger.RefundRecord) *RefundRecordModel {
	m := &RefundRecordModel{}
	m.FromDomain(r)
	return m
}

// SequenceModel backs the document numbering sequences.
type SequenceModel struct {
	Name      string    `gorm:"type:varchar(50);primary_key"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceModel) TableName() string {
	return "sequences"
}
