package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/shared"
	"github.com/finledger/backend/internal/domain/shared/valueobject"
)

// RefundService manages standalone refund requests: refunds raised directly
// against an order rather than through a return order. Return-driven refunds
// are created by the return order workflow and only processed here.
type RefundService struct {
	scope       TransactionScope
	refundRepo  ledger.RefundRecordRepository
	invalidator ReceivablesInvalidator
	logger      *zap.Logger
}

// NewRefundService creates a new refund service
func NewRefundService(
	scope TransactionScope,
	refundRepo ledger.RefundRecordRepository,
	invalidator ReceivablesInvalidator,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		scope:       scope,
		refundRepo:  refundRepo,
		invalidator: invalidator,
		logger:      logger,
	}
}

// CreateRefund raises a standalone refund request in PENDING status. The
// requested amount must fit inside the order's refundable remainder: money
// actually received minus refunds already paid out or still in flight.
func (s *RefundService) CreateRefund(ctx context.Context, req CreateRefundRequest) (*RefundRecordDTO, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("Refund amount must be positive")
	}

	var record *ledger.RefundRecord

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().GetOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}

		refundable, err := refundableRemainder(ctx, repos, order.ID)
		if err != nil {
			return err
		}
		if req.Amount.GreaterThan(refundable) {
			return shared.NewDomainError(shared.CodeOverRefund,
				fmt.Sprintf("Refund amount exceeds refundable balance of %s", refundable.StringFixed(2)))
		}

		number, err := nextDocumentNumber(ctx, repos.Sequences(), ledger.SequenceRefund, "REF", req.RefundDate.Year())
		if err != nil {
			return err
		}

		record, err = ledger.NewRefundRecord(number, order, nil, req.Type, req.Method,
			valueobject.NewMoneyCNY(req.Amount), req.RefundDate, req.Reason, req.CreatedBy)
		if err != nil {
			return err
		}
		if req.Remark != "" {
			record.Remark = req.Remark
		}
		return repos.RefundRepo().Save(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund created",
		zap.String("refund_number", record.RefundNumber),
		zap.String("order_id", record.OrderID.String()),
		zap.String("amount", record.Amount.String()))

	return ToRefundRecordDTO(record), nil
}

// StartProcessing moves a pending refund to PROCESSING
func (s *RefundService) StartProcessing(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*RefundRecordDTO, error) {
	return s.transition(ctx, id, func(r *ledger.RefundRecord) error {
		return r.StartProcessing(actor)
	})
}

// CompleteRefund finalizes a processing refund with the amount actually paid
// out and invalidates the party's receivables view.
func (s *RefundService) CompleteRefund(ctx context.Context, id uuid.UUID, actor uuid.UUID, processedAmount decimal.Decimal) (*RefundRecordDTO, error) {
	dto, err := s.transition(ctx, id, func(r *ledger.RefundRecord) error {
		return r.Complete(actor, valueobject.NewMoneyCNY(processedAmount))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund completed",
		zap.String("refund_number", dto.RefundNumber),
		zap.String("processed_amount", dto.ProcessedAmount.String()))

	s.invalidateReceivables(ctx, dto.PartyID)

	return dto, nil
}

// RejectRefund terminates a refund without paying anything out
func (s *RefundService) RejectRefund(ctx context.Context, id uuid.UUID, actor uuid.UUID, reason string) (*RefundRecordDTO, error) {
	return s.transition(ctx, id, func(r *ledger.RefundRecord) error {
		return r.Reject(actor, reason)
	})
}

// GetRefund loads one refund record by id
func (s *RefundService) GetRefund(ctx context.Context, id uuid.UUID) (*RefundRecordDTO, error) {
	record, err := s.refundRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToRefundRecordDTO(record), nil
}

// ListRefunds returns a page of refund records with the total match count
func (s *RefundService) ListRefunds(ctx context.Context, filter ledger.RefundRecordFilter) (*RefundRecordListResult, error) {
	records, err := s.refundRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.refundRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*RefundRecordDTO, len(records))
	for i, r := range records {
		items[i] = ToRefundRecordDTO(r)
	}
	return &RefundRecordListResult{Items: items, Total: total}, nil
}

func (s *RefundService) transition(ctx context.Context, id uuid.UUID, fn func(*ledger.RefundRecord) error) (*RefundRecordDTO, error) {
	var record *ledger.RefundRecord

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		record, err = repos.RefundRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
		return repos.RefundRepo().SaveWithLock(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return ToRefundRecordDTO(record), nil
}

func (s *RefundService) invalidateReceivables(ctx context.Context, partyID uuid.UUID) {
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
// an order: confirmed payments minus refunds already completed or reserved by
// pending/processing requests.
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
