package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/shared"
	"github.com/finledger/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newMockDB creates a GORM connection backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mdb := testutil.NewMockDB(t)
	return mdb.DB, mdb.Mock, mdb.SqlDB
}

func TestGormPaymentRecordRepository_FindByID(t *testing.T) {
	t.Run("finds existing payment record", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPaymentRecordRepository(db)

		paymentID := uuid.New()
		orderID := uuid.New()
		partyID := uuid.New()
		createdBy := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows([]string{
			"id", "created_at", "updated_at", "version", "created_by",
			"payment_number", "order_id", "order_number", "party_id",
			"method", "amount", "status", "payment_date",
		}).AddRow(
			paymentID, now, now, 1, createdBy,
			"PAY-2026-000001", orderID, "SO-2026-000042", partyID,
			"BANK_TRANSFER", decimal.NewFromInt(600), "CONFIRMED", now,
		)

		mock.ExpectQuery(`SELECT \* FROM "payment_records" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(paymentID, 1).
			WillReturnRows(rows)

		record, err := repo.FindByID(context.Background(), paymentID)

		require.NoError(t, err)
		assert.Equal(t, paymentID, record.ID)
		assert.Equal(t, "PAY-2026-000001", record.PaymentNumber)
		assert.Equal(t, ledger.PaymentRecordStatusConfirmed, record.Status)
		assert.True(t, record.Amount.Equal(decimal.NewFromInt(600)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing record", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPaymentRecordRepository(db)

		paymentID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "payment_records" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(paymentID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		record, err := repo.FindByID(context.Background(), paymentID)

		assert.Nil(t, record)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRecordRepository_SumByOrder(t *testing.T) {
	t.Run("sums confirmed payments", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPaymentRecordRepository(db)

		orderID := uuid.New()
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "payment_records" WHERE order_id = \$1 AND status IN \(\$2\)`).
			WithArgs(orderID, "CONFIRMED").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("600"))

		sum, err := repo.SumByOrder(context.Background(), orderID, ledger.PaymentRecordStatusConfirmed)

		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(600)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zero when no payments exist", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPaymentRecordRepository(db)

		orderID := uuid.New()
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "payment_records" WHERE order_id = \$1`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("0"))

		sum, err := repo.SumByOrder(context.Background(), orderID)

		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})
}

func TestGormPaymentRecordRepository_SaveWithLock(t *testing.T) {
	t.Run("returns conflict when version moved", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPaymentRecordRepository(db)

		record := &ledger.PaymentRecord{}
		record.ID = uuid.New()
		record.Version = 3
		record.CreatedBy = uuid.New()
		record.PaymentNumber = "PAY-2026-000009"
		record.Status = ledger.PaymentRecordStatusVoided
		record.Amount = decimal.NewFromInt(100)

		mock.ExpectExec(`UPDATE "payment_records" SET .*`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), record)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
