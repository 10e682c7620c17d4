package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/finledger/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateTxError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, translateTxError(nil))
	})

	t.Run("deadline exceeded becomes transaction timeout", func(t *testing.T) {
		err := translateTxError(fmt.Errorf("tx failed: %w", context.DeadlineExceeded))
		assert.ErrorIs(t, err, shared.ErrTransactionTimeout)
		assert.True(t, shared.IsRetryable(err))
	})

	t.Run("serialization failure becomes concurrency conflict", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: pgSerializationFailure}
		err := translateTxError(fmt.Errorf("tx failed: %w", pgErr))
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.True(t, shared.IsRetryable(err))
	})

	t.Run("other postgres errors pass through", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505"}
		err := translateTxError(pgErr)
		assert.False(t, shared.IsRetryable(err))
		var got *pgconn.PgError
		assert.True(t, errors.As(err, &got))
	})

	t.Run("plain errors pass through", func(t *testing.T) {
		orig := errors.New("boom")
		assert.Equal(t, orig, translateTxError(orig))
	})
}
