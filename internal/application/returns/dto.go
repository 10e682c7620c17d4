package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/returns"
)

// CreateReturnOrderRequest carries the input for creating a return order
type CreateReturnOrderRequest struct {
	OrderID     uuid.UUID
	Type        returns.ReturnType
	ProcessType returns.ProcessType
	Reason      string
	Remark      string
	CreatedBy   uuid.UUID
}

// AddItemRequest carries the input for adding a line to a draft return order
type AddItemRequest struct {
	ReturnOrderID  uuid.UUID
	OrderLineID    uuid.UUID
	ReturnQuantity int
	Condition      returns.ItemCondition
}

// ApproveRequest carries the approval decision for a submitted return order
type ApproveRequest struct {
	ReturnOrderID uuid.UUID
	Approved      bool
	RefundAmount  decimal.Decimal
	RefundMethod  ledger.PaymentMethod
	Remark        string
	Actor         uuid.UUID
}

// CompleteRequest carries the input for completing a processing return order.
// RefundAmount overrides the approved amount when non-nil.
type CompleteRequest struct {
	ReturnOrderID uuid.UUID
	RefundAmount  *decimal.Decimal
	Actor         uuid.UUID
}

// ReturnOrderItemDTO is the read model of a return order line
type ReturnOrderItemDTO struct {
	ID               uuid.UUID             `json:"id"`
	OrderLineID      uuid.UUID             `json:"order_line_id"`
	ProductID        uuid.UUID             `json:"product_id"`
	ReturnQuantity   int                   `json:"return_quantity"`
	OriginalQuantity int                   `json:"original_quantity"`
	UnitPrice        decimal.Decimal       `json:"unit_price"`
	Subtotal         decimal.Decimal       `json:"subtotal"`
	Condition        returns.ItemCondition `json:"condition"`
}

// ReturnOrderDTO is the read model of a return order
type ReturnOrderDTO struct {
	ID           uuid.UUID             `json:"id"`
	ReturnNumber string                `json:"return_number"`
	OrderID      uuid.UUID             `json:"order_id"`
	OrderNumber  string                `json:"order_number"`
	PartyID      uuid.UUID             `json:"party_id"`
	Type         returns.ReturnType    `json:"type"`
	ProcessType  returns.ProcessType   `json:"process_type"`
	Status       returns.ReturnStatus  `json:"status"`
	Reason       string                `json:"reason"`
	Remark       string                `json:"remark,omitempty"`
	TotalAmount  decimal.Decimal       `json:"total_amount"`
	RefundAmount decimal.Decimal       `json:"refund_amount"`
	Items        []*ReturnOrderItemDTO `json:"items"`
	SubmittedAt  *time.Time            `json:"submitted_at,omitempty"`
	ApprovedAt   *time.Time            `json:"approved_at,omitempty"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	CancelledAt  *time.Time            `json:"cancelled_at,omitempty"`
	RejectedAt   *time.Time            `json:"rejected_at,omitempty"`
	CancelReason string                `json:"cancel_reason,omitempty"`
	RejectReason string                `json:"reject_reason,omitempty"`
	CreatedBy    uuid.UUID             `json:"created_by"`
	CreatedAt    time.Time             `json:"created_at"`
}

// ToReturnOrderDTO converts a domain return order to its read model
func ToReturnOrderDTO(ro *returns.ReturnOrder) *ReturnOrderDTO {
	items := make([]*ReturnOrderItemDTO, len(ro.Items))
	for i, item := range ro.Items {
		items[i] = &ReturnOrderItemDTO{
			ID:               item.ID,
			OrderLineID:      item.OrderLineID,
			ProductID:        item.ProductID,
			ReturnQuantity:   item.ReturnQuantity,
			OriginalQuantity: item.OriginalQuantity,
			UnitPrice:        item.UnitPrice,
			Subtotal:         item.Subtotal,
			Condition:        item.Condition,
		}
	}
	return &ReturnOrderDTO{
		ID:           ro.ID,
		ReturnNumber: ro.ReturnNumber,
		OrderID:      ro.OrderID,
		OrderNumber:  ro.OrderNumber,
		PartyID:      ro.PartyID,
		Type:         ro.Type,
		ProcessType:  ro.ProcessType,
		Status:       ro.Status,
		Reason:       ro.Reason,
		Remark:       ro.Remark,
		TotalAmount:  ro.TotalAmount,
		RefundAmount: ro.RefundAmount,
		Items:        items,
		SubmittedAt:  ro.SubmittedAt,
		ApprovedAt:   ro.ApprovedAt,
		CompletedAt:  ro.CompletedAt,
		CancelledAt:  ro.CancelledAt,
		RejectedAt:   ro.RejectedAt,
		CancelReason: ro.CancelReason,
		RejectReason: ro.RejectReason,
		CreatedBy:    ro.CreatedBy,
		CreatedAt:    ro.CreatedAt,
	}
}

// ReturnOrderListResult pairs a page of return orders with the total count
type ReturnOrderListResult struct {
	Items []*ReturnOrderDTO `json:"items"`
	Total int64             `json:"total"`
}
