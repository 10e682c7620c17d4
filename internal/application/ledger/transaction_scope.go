package ledger

import (
	"context"

	"github.com/finledger/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to ledger repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same serializable database transaction and are
// committed or rolled back atomically. The transaction carries an explicit
// timeout; on expiry Execute returns shared.ErrTransactionTimeout and no
// partial write survives.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories within
// a transaction. All repositories returned share the same underlying database
// transaction, including the order collaborator so that payment-triggered
// order status changes commit atomically with the payment itself.
type TransactionalRepositories interface {
	// PaymentRepo returns the payment record repository scoped to the current transaction
	PaymentRepo() ledger.PaymentRecordRepository
	// RefundRepo returns the refund record repository scoped to the current transaction
	RefundRepo() ledger.RefundRecordRepository
	// Sequences returns the sequence generator scoped to the current transaction
	Sequences() ledger.SequenceGenerator
	// Orders returns the order collaborator scoped to the current transaction
	Orders() ledger.OrderService
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Used in tests where atomicity is exercised elsewhere.
type NoOpTransactionScope struct {
	paymentRepo ledger.PaymentRecordRepository
	refundRepo  ledger.RefundRecordRepository
	sequences   ledger.SequenceGenerator
	orders      ledger.OrderService
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	paymentRepo ledger.PaymentRecordRepository,
	refundRepo ledger.RefundRecordRepository,
	sequences ledger.SequenceGenerator,
	orders ledger.OrderService,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		paymentRepo: paymentRepo,
		refundRepo:  refundRepo,
		sequences:   sequences,
		orders:      orders,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// PaymentRepo returns the payment record repository.
func (s *NoOpTransactionScope) PaymentRepo() ledger.PaymentRecordRepository {
	return s.paymentRepo
}

// RefundRepo returns the refund record repository.
func (s *NoOpTransactionScope) RefundRepo() ledger.RefundRecordRepository {
	return s.refundRepo
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
