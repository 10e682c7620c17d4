package returns

import (
	"fmt"
	"time"

	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/shared"
	"github.com/finledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnType distinguishes who is returning goods
type ReturnType string

const (
	ReturnTypeCustomer ReturnType = "CUSTOMER_RETURN"
	ReturnTypeSupplier ReturnType = "SUPPLIER_RETURN"
)

// IsValid checks if the return type is valid
func (t ReturnType) IsValid() bool {
	return t == ReturnTypeCustomer || t == ReturnTypeSupplier
}

// ProcessType describes how an approved return is settled
type ProcessType string

const (
	ProcessTypeRefundOnly ProcessType = "REFUND_ONLY"
	ProcessTypeExchange   ProcessType = "EXCHANGE"
)

// IsValid checks if the process type is valid
func (t ProcessType) IsValid() bool {
	return t == ProcessTypeRefundOnly || t == ProcessTypeExchange
}

// ItemCondition records the physical condition of returned goods
type ItemCondition string

const (
	ConditionGood      ItemCondition = "GOOD"
	ConditionDamaged   ItemCondition = "DAMAGED"
	ConditionDefective ItemCondition = "DEFECTIVE"
)

// IsValid checks if the condition is valid
func (c ItemCondition) IsValid() bool {
	return c == ConditionGood || c == ConditionDamaged || c == ConditionDefective
}

// ReturnOrderItem is a line of a return order. Unit price is copied from the
// original order line and never changes; the subtotal is recomputed from
// quantity on every mutation and never trusted if supplied by a caller.
type ReturnOrderItem struct {
	shared.BaseEntity
	ReturnOrderID    uuid.UUID
	OrderLineID      uuid.UUID
	ProductID        uuid.UUID
	ReturnQuantity   int
	OriginalQuantity int
	UnitPrice        decimal.Decimal
	Subtotal         decimal.Decimal
	Condition        ItemCondition
}

func (i *ReturnOrderItem) recompute() {
	i.Subtotal = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.ReturnQuantity)))
	i.UpdatedAt = time.Now()
}

// ReturnOrder is the aggregate root of a return request. All state changes go
// through the transition table in transition.go; item mutation is allowed
// while in DRAFT only.
type ReturnOrder struct {
	shared.AuditedAggregateRoot
	ReturnNumber string
	OrderID      uuid.UUID
	OrderNumber  string
	PartyID      uuid.UUID
	Type         ReturnType
	ProcessType  ProcessType
	Status       ReturnStatus
	Reason       string
	Remark       string
	TotalAmount  decimal.Decimal
	RefundAmount decimal.Decimal
	Items        []*ReturnOrderItem
	SubmittedAt  *time.Time
	ApprovedAt   *time.Time
	ApprovedBy   *uuid.UUID
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	RejectedAt   *time.Time
	CancelReason string
	RejectReason string
}

// NewReturnOrder creates a return order in DRAFT status against an order
func NewReturnOrder(
	returnNumber string,
	order *ledger.Order,
	returnType ReturnType,
	processType ProcessType,
	reason string,
	createdBy uuid.UUID,
) (*ReturnOrder, error) {
	if returnNumber == "" {
		return nil, shared.NewValidationError("Return number cannot be empty")
	}
	if order == nil {
		return nil, shared.NewValidationError("Order cannot be nil")
	}
	if !returnType.IsValid() {
		return nil, shared.NewValidationError("Return type is not valid")
	}
	if !processType.IsValid() {
		return nil, shared.NewValidationError("Process type is not valid")
	}
	if reason == "" {
		return nil, shared.NewValidationError("Return reason is required")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewValidationError("Creating actor cannot be empty")
	}

	ro := &ReturnOrder{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		ReturnNumber:         returnNumber,
		OrderID:              order.ID,
		OrderNumber:          order.OrderNumber,
		PartyID:              order.PartyID,
		Type:                 returnType,
		ProcessType:          processType,
		Status:               ReturnStatusDraft,
		Reason:               reason,
		TotalAmount:          decimal.Zero,
		RefundAmount:         decimal.Zero,
		Items:                []*ReturnOrderItem{},
	}

	ro.AddDomainEvent(NewReturnOrderCreatedEvent(ro))

	return ro, nil
}

// AddItem appends a line item. alreadyReturned is the quantity of the same
// order line already claimed by other return orders; the new quantity plus
// alreadyReturned must not exceed the original line quantity.
func (r *ReturnOrder) AddItem(
	line *ledger.OrderLine,
	returnQuantity int,
	alreadyReturned int,
	condition ItemCondition,
) (*ReturnOrderItem, error) {
	if r.Status != ReturnStatusDraft {
		return nil, shared.NewInvalidTransitionError(r.Status.String(), "add item")
	}
	if line == nil {
		return nil, shared.NewValidationError("Order line cannot be nil")
	}
	if !condition.IsValid() {
		return nil, shared.NewValidationError("Item condition is not valid")
	}
	for _, item := range r.Items {
		if item.OrderLineID == line.ID {
			return nil, shared.NewValidationError("Order line is already on this return order")
		}
	}
	if err := r.checkQuantity(returnQuantity, line.Quantity, alreadyReturned); err != nil {
		return nil, err
	}

	item := &ReturnOrderItem{
		BaseEntity:       shared.NewBaseEntity(),
		ReturnOrderID:    r.ID,
		OrderLineID:      line.ID,
		ProductID:        line.ProductID,
		ReturnQuantity:   returnQuantity,
		OriginalQuantity: line.Quantity,
		UnitPrice:        line.UnitPrice,
		Condition:        condition,
	}
	item.recompute()

	r.Items = append(r.Items, item)
	r.recomputeTotal()

	return item, nil
}

// UpdateItemQuantity changes a line item's return quantity and recomputes
// its subtotal and the order total
func (r *ReturnOrder) UpdateItemQuantity(itemID uuid.UUID, returnQuantity, alreadyReturned int) error {
	if r.Status != ReturnStatusDraft {
		return shared.NewInvalidTransitionError(r.Status.String(), "update item")
	}

	item := r.findItem(itemID)
	if item == nil {
		return shared.ErrNotFound
	}
	if err := r.checkQuantity(returnQuantity, item.OriginalQuantity, alreadyReturned); err != nil {
		return err
	}

	item.ReturnQuantity = returnQuantity
	item.recompute()
	r.recomputeTotal()

	return nil
}

// RemoveItem deletes a line item from a draft return order
func (r *ReturnOrder) RemoveItem(itemID uuid.UUID) error {
	if r.Status != ReturnStatusDraft {
		return shared.NewInvalidTransitionError(r.Status.String(), "remove item")
	}

	for i, item := range r.Items {
		if item.ID == itemID {
			r.Items = append(r.Items[:i], r.Items[i+1:]...)
			r.recomputeTotal()
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *ReturnOrder) checkQuantity(returnQuantity, originalQuantity, alreadyReturned int) error {
	if returnQuantity <= 0 {
		return shared.NewValidationError("Return quantity must be positive")
	}
	if alreadyReturned < 0 {
		return shared.NewValidationError("Already returned quantity cannot be negative")
	}
	remaining := originalQuantity - alreadyReturned
	if returnQuantity > remaining {
		return shared.NewValidationError(fmt.Sprintf(
			"Return quantity %d exceeds the unreturned remainder %d of the order line",
			returnQuantity, remaining))
	}
	return nil
}

func (r *ReturnOrder) recomputeTotal() {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.Subtotal)
	}
	r.TotalAmount = total
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// UpdateRemark sets the free-text remark
func (r *ReturnOrder) UpdateRemark(remark string) {
	r.Remark = remark
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// Submit moves the return order from DRAFT to SUBMITTED
func (r *ReturnOrder) Submit() error {
	next, err := NextStatus(r.Status, EventSubmit)
	if err != nil {
		return err
	}
	if len(r.Items) == 0 {
		return shared.NewValidationError("Return order must have at least one item")
	}
	if r.Reason == "" {
		return shared.NewValidationError("Return reason is required")
	}

	now := time.Now()
	r.Status = next
	r.SubmittedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReturnOrderSubmittedEvent(r))

	return nil
}

// Approve accepts a submitted return order with the refund amount to pay
func (r *ReturnOrder) Approve(actor uuid.UUID, refundAmount valueobject.Money, remark string) error {
	next, err := NextStatus(r.Status, EventApprove)
	if err != nil {
		return err
	}
	if actor == uuid.Nil {
		return shared.NewValidationError("Approving actor cannot be empty")
	}
	amt := refundAmount.Amount()
	if amt.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("Refund amount must be positive")
	}
	if amt.GreaterThan(r.TotalAmount) {
		return shared.NewDomainError(shared.CodeOverRefund,
			"Refund amount exceeds the return order total of "+r.TotalAmount.StringFixed(2))
	}

	now := time.Now()
	r.Status = next
	r.RefundAmount = amt
	r.ApprovedAt = &now
	r.ApprovedBy = &actor
	if remark != "" {
		r.Remark = remark
	}
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReturnOrderApprovedEvent(r))

	return nil
}

// Reject declines a submitted return order with a required reason
func (r *ReturnOrder) Reject(actor uuid.UUID, reason string) error {
	next, err := NextStatus(r.Status, EventReject)
	if err != nil {
		return err
	}
	if actor == uuid.Nil {
		return shared.NewValidationError("Rejecting actor cannot be empty")
	}
	if reason == "" {
		return shared.NewValidationError("Rejection reason is required")
	}

	now := time.Now()
	r.Status = next
	r.RejectedAt = &now
	r.RejectReason = reason
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReturnOrderRejectedEvent(r))

	return nil
}

// StartProcessing moves an approved return order into PROCESSING
func (r *ReturnOrder) StartProcessing() error {
	next, err := NextStatus(r.Status, EventStartProcessing)
	if err != nil {
		return err
	}

	r.Status = next
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// Complete finalizes a processing return order. refundAmount overrides the
// approved amount when non-nil; it must not exceed the approved amount.
func (r *ReturnOrder) Complete(refundAmount *valueobject.Money) error {
	next, err := NextStatus(r.Status, EventComplete)
	if err != nil {
		return err
	}
	if refundAmount != nil {
		amt := refundAmount.Amount()
		if amt.LessThanOrEqual(decimal.Zero) {
			return shared.NewValidationError("Refund amount must be positive")
		}
		if amt.GreaterThan(r.RefundAmount) {
			return shared.NewDomainError(shared.CodeOverRefund,
				"Refund amount exceeds the approved amount of "+r.RefundAmount.StringFixed(2))
		}
		r.RefundAmount = amt
	}

	now := time.Now()
	r.Status = next
	r.CompletedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReturnOrderCompletedEvent(r))

	return nil
}

// Cancel terminates the return order before any money has moved
func (r *ReturnOrder) Cancel(reason string) error {
	next, err := NextStatus(r.Status, EventCancel)
	if err != nil {
		return err
	}
	if reason == "" {
		return shared.NewValidationError("Cancellation reason is required")
	}

	now := time.Now()
	r.Status = next
	r.CancelledAt = &now
	r.CancelReason = reason
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReturnOrderCancelledEvent(r))

	return nil
}

// CanDelete returns true while the return order is still a draft
func (r *ReturnOrder) CanDelete() bool {
	return r.Status == ReturnStatusDraft
}

func (r *ReturnOrder) findItem(itemID uuid.UUID) *ReturnOrderItem {
	for _, item := range r.Items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

// GetItem returns the line item with the given id, or nil
func (r *ReturnOrder) GetItem(itemID uuid.UUID) *ReturnOrderItem {
	return r.findItem(itemID)
}

// GetTotalAmountMoney returns the recomputed total as Money
func (r *ReturnOrder) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyCNY(r.TotalAmount)
}

// GetRefundAmountMoney returns the refund amount as Money
func (r *ReturnOrder) GetRefundAmountMoney() valueobject.Money {
	return valueobject.NewMoneyCNY(r.RefundAmount)
}
