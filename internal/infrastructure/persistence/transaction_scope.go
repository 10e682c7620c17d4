package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appledger "github.com/finledger/backend/internal/application/ledger"
	appreturns "github.com/finledger/backend/internal/application/returns"
	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/returns"
	"github.com/finledger/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgSerializationFailure is the SQLSTATE Postgres reports when a serializable
// transaction loses a race and must be retried.
const pgSerializationFailure = "40001"

// serializableTx runs fn inside a serializable transaction bounded by timeout,
// translating database-level failures into domain errors.
func serializableTx(ctx context.Context, db *gorm.DB, timeout time.Duration, fn func(tx *gorm.DB) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelSerializable})
	return translateTxError(err)
}

// translateTxError maps low-level transaction failures onto the domain's
// retryable error sentinels. All other errors pass through untouched.
func translateTxError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.ErrTransactionTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure {
		return shared.ErrConcurrencyConflict
	}
	return err
}

// GormLedgerTransactionScope implements the payment ledger's TransactionScope
// over serializable database transactions.
type GormLedgerTransactionScope struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope.
// A zero timeout disables the deadline.
func NewGormLedgerTransactionScope(db *gorm.DB, timeout time.Duration) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db, timeout: timeout}
}

// Execute runs the given function within a serializable database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return serializableTx(ctx, s.db, s.timeout, func(tx *gorm.DB) error {
		return fn(&gormLedgerRepositories{tx: tx})
	})
}

// gormLedgerRepositories provides the ledger repositories scoped to one transaction.
type gormLedgerRepositories struct {
	tx *gorm.DB
}

// PaymentRepo returns the payment record repository scoped to the current transaction.
func (r *gormLedgerRepositories) PaymentRepo() ledger.PaymentRecordRepository {
	return NewGormPaymentRecordRepository(r.tx)
}

// RefundRepo returns the refund record repository scoped to the current transaction.
func (r *gormLedgerRepositories) RefundRepo() ledger.RefundRecordRepository {
	return NewGormRefundRecordRepository(r.tx)
}

// Sequences returns the sequence generator scoped to the current transaction.
func (r *gormLedgerRepositories) Sequences() ledger.SequenceGenerator {
	return NewGormSequenceGenerator(r.tx)
}

// Orders returns the order collaborator scoped to the current transaction.
func (r *gormLedgerRepositories) Orders() ledger.OrderService {
	return NewGormOrderRepository(r.tx)
}

// GormReturnsTransactionScope implements the return workflow's
// TransactionScope over serializable database transactions.
type GormReturnsTransactionScope struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormReturnsTransactionScope creates a new GormReturnsTransactionScope.
func NewGormReturnsTransactionScope(db *gorm.DB, timeout time.Duration) *GormReturnsTransactionScope {
	return &GormReturnsTransactionScope{db: db, timeout: timeout}
}

// Execute runs the given function within a serializable database transaction.
func (s *GormReturnsTransactionScope) Execute(ctx context.Context, fn func(repos appreturns.TransactionalRepositories) error) error {
	return serializableTx(ctx, s.db, s.timeout, func(tx *gorm.DB) error {
		return fn(&gormReturnsRepositories{tx: tx})
	})
}

// gormReturnsRepositories provides the return workflow repositories scoped to one transaction.
type gormReturnsRepositories struct {
	tx *gorm.DB
}

// ReturnRepo returns the return order repository scoped to the current transaction.
func (r *gormReturnsRepositories) ReturnRepo() returns.ReturnOrderRepository {
	return NewGormReturnOrderRepository(r.tx)
}

// RefundRepo returns the refund record repository scoped to the current transaction.
func (r *gormReturnsRepositories) RefundRepo() ledger.RefundRecordRepository {
	return NewGormRefundRecordRepository(r.tx)
}

// PaymentRepo returns the payment record repository scoped to the current transaction.
func (r *gormReturnsRepositories) PaymentRepo() ledger.PaymentRecordRepository {
	return NewGormPaymentRecordRepository(r.tx)
}

// Sequences returns the sequence generator scoped to the current transaction.
func (r *gormReturnsRepositories) Sequences() ledger.SequenceGenerator {
	return NewGormSequenceGenerator(r.tx)
}

// Orders returns the order collaborator scoped to the current transaction.
func (r *gormReturnsRepositories) Orders() ledger.OrderService {
	return NewGormOrderRepository(r.tx)
}

// Ensure the scopes implement the application interfaces
var (
	_ appledger.TransactionScope  = (*GormLedgerTransactionScope)(nil)
	_ appreturns.TransactionScope = (*GormReturnsTransactionScope)(nil)
)
