package models

import (
	"time"

	"github.com/finledger/backend/internal/domain/returns"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnOrderModel is the persistence model for ReturnOrder.
type ReturnOrderModel struct {
	AuditedAggregateModel
	ReturnNumber string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	OrderID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	OrderNumber  string                 `gorm:"type:varchar(50);not null"`
	PartyID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	Type         returns.ReturnType     `gorm:"type:varchar(30);not null"`
	ProcessType  returns.ProcessType    `gorm:"type:varchar(30);not null"`
	Status       returns.ReturnStatus   `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Reason       string                 `gorm:"type:varchar(500)"`
	Remark       string                 `gorm:"type:text"`
	TotalAmount  decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	RefundAmount decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Items        []ReturnOrderItemModel `gorm:"foreignKey:ReturnOrderID;references:ID"`
	SubmittedAt  *time.Time
	ApprovedAt   *time.Time
	ApprovedBy   *uuid.UUID `gorm:"type:uuid"`
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	RejectedAt   *time.Time
	CancelReason string `gorm:"type:varchar(500)"`
	RejectReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ReturnOrderModel) TableName() string {
	return "return_orders"
}

// ToDomain converts the persistence model to a domain ReturnOrder.
func (m *ReturnOrderModel) ToDomain() *returns.ReturnOrder {
	ro := &returns.ReturnOrder{
		ReturnNumber: m.ReturnNumber,
		OrderID:      m.OrderID,
		OrderNumber:  m.OrderNumber,
		PartyID:      m.PartyID,
		Type:         m.Type,
		ProcessType:  m.ProcessType,
		Status:       m.Status,
		Reason:       m.Reason,
		Remark:       m.Remark,
		TotalAmount:  m.TotalAmount,
		RefundAmount: m.RefundAmount,
		SubmittedAt:  m.SubmittedAt,
		ApprovedAt:   m.ApprovedAt,
		ApprovedBy:   m.ApprovedBy,
		CompletedAt:  m.CompletedAt,
		CancelledAt:  m.CancelledAt,
		RejectedAt:   m.RejectedAt,
		CancelReason: m.CancelReason,
		RejectReason: m.RejectReason,
		Items:        make([]*returns.ReturnOrderItem, len(m.Items)),
	}
	m.PopulateAuditedAggregateRoot(&ro.AuditedAggregateRoot)
	for i, item := range m.Items {
		ro.Items[i] = item.ToDomain()
	}
	return ro
}

// FromDomain populates the persistence model from a domain ReturnOrder.
func (m *ReturnOrderModel) FromDomain(ro *returns.ReturnOrder) {
	m.FromDomainAuditedAggregateRoot(ro.AuditedAggregateRoot)
	m.ReturnNumber = ro.ReturnNumber
	m.OrderID = ro.OrderID
	m.OrderNumber = ro.OrderNumber
	m.PartyID = ro.PartyID
	m.Type = ro.Type
	m.ProcessType = ro.ProcessType
	m.Status = ro.Status
	m.Reason = ro.Reason
	m.Remark = ro.Remark
	m.TotalAmount = ro.TotalAmount
	m.RefundAmount = ro.RefundAmount
	m.SubmittedAt = ro.SubmittedAt
	m.ApprovedAt = ro.ApprovedAt
	m.ApprovedBy = ro.ApprovedBy
	m.CompletedAt = ro.CompletedAt
	m.CancelledAt = ro.CancelledAt
	m.RejectedAt = ro.RejectedAt
	m.CancelReason = ro.CancelReason
	m.RejectReason = ro.RejectReason
	m.Items = make([]ReturnOrderItemModel, len(ro.Items))
	for i, item := range ro.Items {
		m.Items[i] = *ReturnOrderItemModelFromDomain(item)
	}
}

// ReturnOrderModelFromDomain creates a new persistence model from domain.
func ReturnOrderModelFromDomain(ro *returns.ReturnOrder) *ReturnOrderModel {
	m := &ReturnOrderModel{}
	m.FromDomain(ro)
	return m
}

// ReturnOrderItemModel is the persistence model for ReturnOrderItem.
type ReturnOrderItemModel struct {
	BaseModel
	ReturnOrderID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	OrderLineID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	ReturnQuantity   int                   `gorm:"not null"`
	OriginalQuantity int                   `gorm:"not null"`
	UnitPrice        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Subtotal         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Condition        returns.ItemCondition `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (ReturnOrderItemModel) TableName() string {
	return "return_order_items"
}

// ToDomain converts the persistence model to a domain ReturnOrderItem.
func (m *ReturnOrderItemModel) ToDomain() *returns.ReturnOrderItem {
	return &returns.ReturnOrderItem{
		BaseEntity:       m.BaseModel.ToDomain(),
		ReturnOrderID:    m.ReturnOrderID,
		OrderLineID:      m.OrderLineID,
		ProductID:        m.ProductID,
		ReturnQuantity:   m.ReturnQuantity,
		OriginalQuantity: m.OriginalQuantity,
		UnitPrice:        m.UnitPrice,
		Subtotal:         m.Subtotal,
		Condition:        m.Condition,
	}
}

// FromDomain populates the persistence model from a domain ReturnOrderItem.
func (m *ReturnOrderItemModel) FromDomain(item *returns.ReturnOrderItem) {
	m.FromDomainBaseEntity(item.BaseEntity)
	m.ReturnOrderID = item.ReturnOrderID
	m.OrderLineID = item.OrderLineID
	m.ProductID = item.ProductID
	m.ReturnQuantity = item.ReturnQuantity
	m.OriginalQuantity = item.OriginalQuantity
	m.UnitPrice = item.UnitPrice
	m.Subtotal = item.Subtotal
	m.Condition = item.Condition
}

// ReturnOrderItemModelFromDomain creates a new persistence model from domain.
func ReturnOrderItemModelFromDomain(item *returns.ReturnOrderItem) *ReturnOrderItemModel {
	m := &ReturnOrderItemModel{}
	m.FromDomain(item)
	return m
}
