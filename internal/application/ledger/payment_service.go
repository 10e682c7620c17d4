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

// ReceivablesInvalidator drops any cached receivables view for a party after
// a financial write. Invalidation is best-effort: a failure is logged and
// never rolls back the write that triggered it.
type ReceivablesInvalidator interface {
	InvalidateParty(ctx context.Context, partyID uuid.UUID) error
}

// PaymentService records and voids payments against orders. Every mutation
// runs inside one serializable transaction so that the overpayment check and
// the insert are atomic as a unit.
type PaymentService struct {
	scope       TransactionScope
	paymentRepo ledger.PaymentRecordRepository
	invalidator ReceivablesInvalidator
	logger      *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	scope TransactionScope,
	paymentRepo ledger.PaymentRecordRepository,
	invalidator ReceivablesInvalidator,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		scope:       scope,
		paymentRepo: paymentRepo,
		invalidator: invalidator,
		logger:      logger,
	}
}

// RecordPayment validates and records a payment against an order, confirming
// it in the same transaction. If the payment settles the order in full the
// order collaborator is asked to advance the order status before commit.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentRecordDTO, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("Payment amount must be positive")
	}
	if req.Method == ledger.PaymentMethodBankTransfer && req.BankReference == "" {
		return nil, shared.NewValidationError("Bank reference is required for bank transfer payments")
	}

	var record *ledger.PaymentRecord

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().GetOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}

		alreadyPaid, err := repos.PaymentRepo().SumByOrder(ctx, order.ID, ledger.PaymentRecordStatusConfirmed)
		if err != nil {
			return fmt.Errorf("summing confirmed payments: %w", err)
		}

		outstanding := ledger.Outstanding(order.TotalAmount, alreadyPaid)
		if alreadyPaid.Add(req.Amount).GreaterThan(order.TotalAmount) {
			return shared.NewDomainError(shared.CodeOverpayment,
				fmt.Sprintf("Payment amount exceeds outstanding balance of %s", outstanding.StringFixed(2)))
		}

		number, err := nextDocumentNumber(ctx, repos.Sequences(), ledger.SequencePayment, "PAY", req.PaymentDate.Year())
		if err != nil {
			return err
		}

		record, err = ledger.NewPaymentRecord(number, order, req.PartyID, req.Method,
			valueobject.NewMoneyCNY(req.Amount), req.PaymentDate, req.RecordedBy)
		if err != nil {
			return err
		}
		if req.BankReference != "" {
			record.SetBankReference(req.BankReference)
		}
		if req.Remark != "" {
			record.SetRemark(req.Remark)
		}
		if err := record.Validate(); err != nil {
			return err
		}
		if !req.Pending {
			if err := record.Confirm(req.RecordedBy); err != nil {
				return err
			}
		}
		if err := repos.PaymentRepo().Save(ctx, record); err != nil {
			return fmt.Errorf("saving payment record: %w", err)
		}

		if !req.Pending && alreadyPaid.Add(req.Amount).GreaterThanOrEqual(order.TotalAmount) && order.Status.CanMarkPaid() {
			if err := repos.Orders().TransitionOrderStatus(ctx, order.ID, ledger.OrderStatusPaid); err != nil {
				return fmt.Errorf("marking order paid: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("payment_number", record.PaymentNumber),
		zap.String("order_id", record.OrderID.String()),
		zap.String("status", record.Status.String()),
		zap.String("amount", record.Amount.String()))

	if record.Status == ledger.PaymentRecordStatusConfirmed {
		s.invalidateReceivables(ctx, record.PartyID)
	}

	return ToPaymentRecordDTO(record), nil
}

// ConfirmPayment moves a pending payment to CONFIRMED. The overpayment check
// runs again here because confirmed amounts may have grown since the record
// was created; a confirmation that would push the order past its total fails
// the same way recording it would have.
func (s *PaymentService) ConfirmPayment(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*PaymentRecordDTO, error) {
	var record *ledger.PaymentRecord

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		record, err = repos.PaymentRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		// guard the state first: a confirmed record's amount is already in
		// the confirmed sum, which would misreport the failure as overpayment
		if record.Status != ledger.PaymentRecordStatusPending {
			return shared.NewInvalidTransitionError(record.Status.String(), "confirm")
		}

		order, err := repos.Orders().GetOrder(ctx, record.OrderID)
		if err != nil {
			return err
		}

		alreadyPaid, err := repos.PaymentRepo().SumByOrder(ctx, order.ID, ledger.PaymentRecordStatusConfirmed)
		if err != nil {
			return fmt.Errorf("summing confirmed payments: %w", err)
		}
		if alreadyPaid.Add(record.Amount).GreaterThan(order.TotalAmount) {
			outstanding := ledger.Outstanding(order.TotalAmount, alreadyPaid)
			return shared.NewDomainError(shared.CodeOverpayment,
				fmt.Sprintf("Payment amount exceeds outstanding balance of %s", outstanding.StringFixed(2)))
		}

		if err := record.Confirm(actor); err != nil {
			return err
		}
		if err := repos.PaymentRepo().SaveWithLock(ctx, record); err != nil {
			return fmt.Errorf("saving payment record: %w", err)
		}

		if alreadyPaid.Add(record.Amount).GreaterThanOrEqual(order.TotalAmount) && order.Status.CanMarkPaid() {
			if err := repos.Orders().TransitionOrderStatus(ctx, order.ID, ledger.OrderStatusPaid); err != nil {
				return fmt.Errorf("marking order paid: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment confirmed",
		zap.String("payment_number", record.PaymentNumber),
		zap.String("order_id", record.OrderID.String()))

	s.invalidateReceivables(ctx, record.PartyID)

	return ToPaymentRecordDTO(record), nil
}

// VoidPayment marks a payment as voided. The record is kept for the audit
// trail but stops counting toward the order's paid total.
func (s *PaymentService) VoidPayment(ctx context.Context, id uuid.UUID, actor uuid.UUID, reason string) (*PaymentRecordDTO, error) {
	var record *ledger.PaymentRecord

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		record, err = repos.PaymentRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := record.Void(actor, reason); err != nil {
			return err
		}
		return repos.PaymentRepo().SaveWithLock(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment voided",
		zap.String("payment_number", record.PaymentNumber),
		zap.String("reason", reason))

	s.invalidateReceivables(ctx, record.PartyID)

	return ToPaymentRecordDTO(record), nil
}

// GetPayment loads one payment record by id
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*PaymentRecordDTO, error) {
	record, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToPaymentRecordDTO(record), nil
}

// GetPaymentsByOrder loads all payment records against one order
func (s *PaymentService) GetPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]*PaymentRecordDTO, error) {
	records, err := s.paymentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	dtos := make([]*PaymentRecordDTO, len(records))
	for i, r := range records {
		dtos[i] = ToPaymentRecordDTO(r)
	}
	return dtos, nil
}

// ListPayments returns a page of payment records with the total match count
func (s *PaymentService) ListPayments(ctx context.Context, filter ledger.PaymentRecordFilter) (*PaymentRecordListResult, error) {
	records, err := s.paymentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.paymentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*PaymentRecordDTO, len(records))
	for i, r := range records {
		items[i] = ToPaymentRecordDTO(r)
	}
	return &PaymentRecordListResult{Items: items, Total: total}, nil
}

func (s *PaymentService) invalidateReceivables(ctx context.Context, partyID uuid.UUID) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateParty(ctx, partyID); err != nil {
		s.logger.Warn("receivables cache invalidation failed",
			zap.String("party_id", partyID.String()),
			zap.Error(err))
	}
}

// nextDocumentNumber formats a document number from a named sequence, e.g.
// PAY-2026-000017. The sequence is contention-safe so concurrent creation
// never collides.
func nextDocumentNumber(ctx context.Context, sequences ledger.SequenceGenerator, sequence, prefix string, year int) (string, error) {
	value, err := sequences.Next(ctx, sequence)
	if err != nil {
		return "", fmt.Errorf("generating %s number: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%d-%06d", prefix, year, value), nil
}
