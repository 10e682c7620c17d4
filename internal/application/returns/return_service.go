package returns

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/returns"
	"github.com/finledger/backend/internal/domain/shared"
	"github.com/finledger/backend/internal/domain/shared/valueobject"
)

// ReceivablesInvalidator drops any cached receivables view for a party after
// a financial write. Best-effort; failures are logged, never propagated.
type ReceivablesInvalidator interface {
	InvalidateParty(ctx context.Context, partyID uuid.UUID) error
}

// ReturnOrderService drives the return order workflow. Each transition is one
// atomic operation: the guard is checked, the new state written, and any
// derived refund writes committed in a single transaction.
type ReturnOrderService struct {
	scope       TransactionScope
	returnRepo  returns.ReturnOrderRepository
	invalidator ReceivablesInvalidator
	logger      *zap.Logger
}

// NewReturnOrderService creates a new return order service
func NewReturnOrderService(
	scope TransactionScope,
	returnRepo returns.ReturnOrderRepository,
	invalidator ReceivablesInvalidator,
	logger *zap.Logger,
) *ReturnOrderService {
	return &ReturnOrderService{
		scope:       scope,
		returnRepo:  returnRepo,
		invalidator: invalidator,
		logger:      logger,
	}
}

// CreateReturnOrder creates a return order in draft against an existing order
func (s *ReturnOrderService) CreateReturnOrder(ctx context.Context, req CreateReturnOrderRequest) (*ReturnOrderDTO, error) {
	var ro *returns.ReturnOrder

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().GetOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}

		value, err := repos.Sequences().Next(ctx, returns.SequenceReturnOrder)
		if err != nil {
			return fmt.Errorf("generating return number: %w", err)
		}
		number := fmt.Sprintf("RT-%d-%06d", order.OrderedAt.Year(), value)

		ro, err = returns.NewReturnOrder(number, order, req.Type, req.ProcessType, req.Reason, req.CreatedBy)
		if err != nil {
			return err
		}
		if req.Remark != "" {
			ro.UpdateRemark(req.Remark)
		}
		return repos.ReturnRepo().Save(ctx, ro)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("return order created",
		zap.String("return_number", ro.ReturnNumber),
		zap.String("order_id", ro.OrderID.String()))

	return ToReturnOrderDTO(ro), nil
}

// AddItem adds a line to a draft return order. The quantity already claimed
// by the order line's other return orders is subtracted from the returnable
// remainder before the new quantity is accepted.
func (s *ReturnOrderService) AddItem(ctx context.Context, req AddItemRequest) (*ReturnOrderDTO, error) {
	var ro *returns.ReturnOrder

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		ro, err = repos.ReturnRepo().FindByID(ctx, req.ReturnOrderID)
		if err != nil {
			return err
		}

		line, err := repos.Orders().GetOrderLine(ctx, req.OrderLineID)
		if err != nil {
			return err
		}
		if line.OrderID != ro.OrderID {
			return shared.NewDomainError(shared.CodePartyMismatch,
				"Order line does not belong to the return order's original order")
		}

		alreadyReturned, err := repos.ReturnRepo().ReturnedQuantityByLine(ctx, line.ID, ro.ID)
		if err != nil {
			return fmt.Errorf("summing returned quantity: %w", err)
		}

		if _, err := ro.AddItem(line, req.ReturnQuantity, alreadyReturned, req.Condition); err != nil {
			return err
		}
		return repos.ReturnRepo().SaveWithLock(ctx, ro)
	})
	if err != nil {
		return nil, err
	}
	return ToReturnOrderDTO(ro), nil
}

// UpdateItemQuantity changes a line's return quantity on a draft return order
func (s *ReturnOrderService) UpdateItemQuantity(ctx context.Context, returnOrderID, itemID uuid.UUID, quantity int) (*ReturnOrderDTO, error) {
	var ro *returns.ReturnOrder

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		ro, err = repos.ReturnRepo().FindByID(ctx, returnOrderID)
		if err != nil {
			return err
		}

		item := ro.GetItem(itemID)
		if item == nil {
			return shared.ErrNotFound
		}
		alreadyReturned, err := repos.ReturnRepo().ReturnedQuantityByLine(ctx, item.OrderLineID, ro.ID)
		if err != nil {
			return fmt.Errorf("summing returned quantity: %w", err)
		}

		if err := ro.UpdateItemQuantity(itemID, quantity, alreadyReturned); err != nil {
			return err
		}
		return repos.ReturnRepo().SaveWithLock(ctx, ro)
	})
	if err != nil {
		return nil, err
	}
	return ToReturnOrderDTO(ro), nil
}

// RemoveItem deletes a line from a draft return order
func (s *ReturnOrderService) RemoveItem(ctx context.Context, returnOrderID, itemID uuid.UUID) (*ReturnOrderDTO, error) {
	return s.transition(ctx, returnOrderID, func(_ TransactionalRepositories, ro *returns.ReturnOrder) error {
		return ro.RemoveItem(itemID)
	})
}

// Submit moves a draft return order to SUBMITTED
func (s *ReturnOrderService) Submit(ctx context.Context, returnOrderID uuid.UUID) (*ReturnOrderDTO, error) {
	return s.transition(ctx, returnOrderID, func(_ TransactionalRepositories, ro *returns.ReturnOrder) error {
		return ro.Submit()
	})
}

// Approve resolves a submitted return order. An approval must carry a refund
// amount, which may not exceed the return total or the order's refundable
// remainder; a pending refund record is created in the same transaction. A
// rejection terminates the return order with no refund.
func (s *ReturnOrderService) Approve(ctx context.Context, req ApproveRequest) (*ReturnOrderDTO, error) {
	if !req.Approved {
		if req.Remark == "" {
			return nil, shared.NewValidationError("Rejection reason is required")
		}
		return s.transition(ctx, req.ReturnOrderID, func(_ TransactionalRepositories, ro *returns.ReturnOrder) error {
			return ro.Reject(req.Actor, req.Remark)
		})
	}

	var ro *returns.ReturnOrder

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		ro, err = repos.ReturnRepo().FindByID(ctx, req.ReturnOrderID)
		if err != nil {
			return err
		}

		order, err := repos.Orders().GetOrder(ctx, ro.OrderID)
		if err != nil {
			return err
		}

		refundable, err := refundableRemainder(ctx, repos, order.ID)
		if err != nil {
			return err
		}
		if req.RefundAmount.GreaterThan(refundable) {
			return shared.NewDomainError(shared.CodeOverRefund,
				fmt.Sprintf("Refund amount exceeds refundable balance of %s", refundable.StringFixed(2)))
		}

		if err := ro.Approve(req.Actor, valueobject.NewMoneyCNY(req.RefundAmount), req.Remark); err != nil {
			return err
		}

		if ro.ProcessType == returns.ProcessTypeRefundOnly {
			if err := s.createRefund(ctx, repos, ro, order, req); err != nil {
				return err
			}
		}
		return repos.ReturnRepo().SaveWithLock(ctx, ro)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("return order approved",
		zap.String("return_number", ro.ReturnNumber),
		zap.String("refund_amount", ro.RefundAmount.String()))

	return ToReturnOrderDTO(ro), nil
}

// StartProcessing moves an approved return order into PROCESSING, taking the
// associated refund with it.
func (s *ReturnOrderService) StartProcessing(ctx context.Context, returnOrderID uuid.UUID, actor uuid.UUID) (*ReturnOrderDTO, error) {
	return s.transition(ctx, returnOrderID, func(repos TransactionalRepositories, ro *returns.ReturnOrder) error {
		if err := ro.StartProcessing(); err != nil {
			return err
		}
		return s.forEachOpenRefund(ctx, repos, ro.ID, func(refund *ledger.RefundRecord) (bool, error) {
			if refund.Status != ledger.RefundStatusPending {
				return false, nil
			}
			return true, refund.StartProcessing(actor)
		})
	})
}

// Complete finalizes a processing return order, settles the associated refund
// record and invalidates the party's receivables view.
func (s *ReturnOrderService) Complete(ctx context.Context, req CompleteRequest) (*ReturnOrderDTO, error) {
	dto, err := s.transition(ctx, req.ReturnOrderID, func(repos TransactionalRepositories, ro *returns.ReturnOrder) error {
		var override *valueobject.Money
		if req.RefundAmount != nil {
			m := valueobject.NewMoneyCNY(*req.RefundAmount)
			override = &m
		}
		if err := ro.Complete(override); err != nil {
			return err
		}
		return s.forEachOpenRefund(ctx, repos, ro.ID, func(refund *ledger.RefundRecord) (bool, error) {
			if refund.Status != ledger.RefundStatusProcessing {
				return false, nil
			}
			return true, refund.Complete(req.Actor, valueobject.NewMoneyCNY(ro.RefundAmount))
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("return order completed",
		zap.String("return_number", dto.ReturnNumber),
		zap.String("refund_amount", dto.RefundAmount.String()))

	s.invalidateReceivables(ctx, dto.PartyID)

	return dto, nil
}

// Cancel terminates a return order before processing has started. Any open
// refund record raised by the approval is rejected in the same transaction.
func (s *ReturnOrderService) Cancel(ctx context.Context, returnOrderID uuid.UUID, actor uuid.UUID, reason string) (*ReturnOrderDTO, error) {
	return s.transition(ctx, returnOrderID, func(repos TransactionalRepositories, ro *returns.ReturnOrder) error {
		if err := ro.Cancel(reason); err != nil {
			return err
		}
		return s.forEachOpenRefund(ctx, repos, ro.ID, func(refund *ledger.RefundRecord) (bool, error) {
			if refund.Status.IsTerminal() {
				return false, nil
			}
			return true, refund.Reject(actor, "Return order cancelled: "+reason)
		})
	})
}

// Delete removes a return order, permitted only while it is a draft
func (s *ReturnOrderService) Delete(ctx context.Context, returnOrderID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ro, err := repos.ReturnRepo().FindByID(ctx, returnOrderID)
		if err != nil {
			return err
		}
		if !ro.CanDelete() {
			return shared.NewInvalidTransitionError(ro.Status.String(), "delete")
		}
		return repos.ReturnRepo().Delete(ctx, ro.ID)
	})
}

// GetReturnOrder loads one return order by id
func (s *ReturnOrderService) GetReturnOrder(ctx context.Context, id uuid.UUID) (*ReturnOrderDTO, error) {
	ro, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToReturnOrderDTO(ro), nil
}

// ListReturnOrders returns a page of return orders with the total match count
func (s *ReturnOrderService) ListReturnOrders(ctx context.Context, filter returns.ReturnOrderFilter) (*ReturnOrderListResult, error) {
	orders, err := s.returnRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.returnRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*ReturnOrderDTO, len(orders))
	for i, ro := range orders {
		items[i] = ToReturnOrderDTO(ro)
	}
	return &ReturnOrderListResult{Items: items, Total: total}, nil
}

func (s *ReturnOrderService) transition(
	ctx context.Context,
	returnOrderID uuid.UUID,
	fn func(repos TransactionalRepositories, ro *returns.ReturnOrder) error,
) (*ReturnOrderDTO, error) {
	var ro *returns.ReturnOrder

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		ro, err = repos.ReturnRepo().FindByID(ctx, returnOrderID)
		if err != nil {
			return err
		}
		if err := fn(repos, ro); err != nil {
			return err
		}
		return repos.ReturnRepo().SaveWithLock(ctx, ro)
	})
	if err != nil {
		return nil, err
	}
	return ToReturnOrderDTO(ro), nil
}

func (s *ReturnOrderService) createRefund(
	ctx context.Context,
	repos TransactionalRepositories,
	ro *returns.ReturnOrder,
	order *ledger.Order,
	req ApproveRequest,
) error {
	value, err := repos.Sequences().Next(ctx, ledger.SequenceRefund)
	if err != nil {
		return fmt.Errorf("generating refund number: %w", err)
	}
	number := fmt.Sprintf("REF-%d-%06d", ro.CreatedAt.Year(), value)

	refundType := ledger.RefundTypePartial
	if req.RefundAmount.GreaterThanOrEqual(order.TotalAmount) {
		refundType = ledger.RefundTypeFull
	}
	method := req.RefundMethod
	if method == "" {
		method = ledger.PaymentMethodBankTransfer
	}

	returnID := ro.ID
	refund, err := ledger.NewRefundRecord(number, order, &returnID, refundType, method,
		valueobject.NewMoneyCNY(req.RefundAmount), ro.CreatedAt, ro.Reason, req.Actor)
	if err != nil {
		return err
	}
	return repos.RefundRepo().Save(ctx, refund)
}

// forEachOpenRefund applies fn to every refund raised by the return order and
// persists the ones fn reports as changed.
func (s *ReturnOrderService) forEachOpenRefund(
	ctx context.Context,
	repos TransactionalRepositories,
	returnOrderID uuid.UUID,
	fn func(*ledger.RefundRecord) (bool, error),
) error {
	refunds, err := repos.RefundRepo().FindByReturnOrderID(ctx, returnOrderID)
	if err != nil {
		return fmt.Errorf("loading refunds: %w", err)
	}
	for _, refund := range refunds {
		changed, err := fn(refund)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		if err := repos.RefundRepo().SaveWithLock(ctx, refund); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReturnOrderService) invalidateReceivables(ctx context.Context, partyID uuid.UUID) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateParty(ctx, partyID); err != nil {
		s.logger.Warn("receivables cache invalidation failed",
			zap.String("party_id", partyID.String()),
			zap.Error(err))
	}
}

// refundableRemainder computes how much money can still be refunded against
// an order: confirmed payments minus refunds completed or still in flight.
func refundableRemainder(ctx context.Context, repos TransactionalRepositories, orderID uuid.UUID) (decimal.Decimal, error) {
	paid, err := repos.PaymentRepo().SumByOrder(ctx, orderID, ledger.PaymentRecordStatusConfirmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing confirmed payments: %w", err)
	}

	refunds, err := repos.RefundRepo().FindByOrderID(ctx, orderID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading refunds: %w", err)
	}

	reserved := decimal.Zero
	for _, r := range refunds {
		switch r.Status {
		case ledger.RefundStatusCompleted:
			reserved = reserved.Add(r.ProcessedAmount)
		case ledger.RefundStatusPending, ledger.RefundStatusProcessing:
			reserved = reserved.Add(r.Amount)
		}
	}

	remainder := paid.Sub(reserved)
	if remainder.IsNegative() {
		return decimal.Zero, nil
	}
	return remainder, nil
}
