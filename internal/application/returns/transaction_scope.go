package returns

import (
	"context"

	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/returns"
)

// TransactionScope provides transactional access to the return order
// repositories. Every state transition, including the refund record writes it
// triggers, executes as one atomic unit: either the new state and the
// financial writes all commit, or nothing does.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories a return
// order transition may touch, all scoped to the same transaction.
type TransactionalRepositories interface {
	// ReturnRepo returns the return order repository scoped to the current transaction
	ReturnRepo() returns.ReturnOrderRepository
	// RefundRepo returns the refund record repository scoped to the current transaction
	RefundRepo() ledger.RefundRecordRepository
	// PaymentRepo returns the payment record repository scoped to the current transaction
	PaymentRepo() ledger.PaymentRecordRepository
	// Sequences returns the sequence generator scoped to the current transaction
	Sequences() ledger.SequenceGenerator
	// Orders returns the order collaborator scoped to the current transaction
	Orders() ledger.OrderService
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Used in tests where atomicity is exercised elsewhere.
type NoOpTransactionScope struct {
	returnRepo  returns.ReturnOrderRepository
	refundRepo  ledger.RefundRecordRepository
	paymentRepo ledger.PaymentRecordRepository
	sequences   ledger.SequenceGenerator
	orders      ledger.OrderService
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	returnRepo returns.ReturnOrderRepository,
	refundRepo ledger.RefundRecordRepository,
	paymentRepo ledger.PaymentRecordRepository,
	sequences ledger.SequenceGenerator,
	orders ledger.OrderService,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		returnRepo:  returnRepo,
		refundRepo:  refundRepo,
		paymentRepo: paymentRepo,
		sequences:   sequences,
		orders:      orders,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ReturnRepo returns the return order repository.
func (s *NoOpTransactionScope) ReturnRepo() returns.ReturnOrderRepository {
	return s.returnRepo
}

// RefundRepo returns the refund record repository.
func (s *NoOpTransactionScope) RefundRepo() ledger.RefundRecordRepository {
	return s.refundRepo
}

// PaymentRepo returns the payment record repository.
func (s *NoOpTransactionScope) PaymentRepo() ledger.PaymentRecordRepository {
	return s.paymentRepo
}

// Sequences returns the sequence generator.
func (s *NoOpTransactionScope) Sequences() ledger.SequenceGenerator {
	return s.sequences
}

// Orders returns the order collaborator.
func (s *NoOpTransactionScope) Orders() ledger.OrderService {
	return s.orders
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
