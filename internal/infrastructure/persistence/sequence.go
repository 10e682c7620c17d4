package persistence

import (
	"context"

	"github.com/finledger/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormSequenceGenerator hands out monotonic values per named sequence using a
// single atomic upsert, so concurrent transactions never observe the same value.
type GormSequenceGenerator struct {
	db *gorm.DB
}

// NewGormSequenceGenerator creates a new GormSequenceGenerator
func NewGormSequenceGenerator(db *gorm.DB) *GormSequenceGenerator {
	return &GormSequenceGenerator{db: db}
}

// Next returns the next value for the named sequence, creating it on first use
func (g *GormSequenceGenerator) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := g.db.WithContext(ctx).Raw(`
		INSERT INTO sequences (name, value, updated_at)
		VALUES (?, 1, NOW())
		ON CONFLICT (name)
		DO UPDATE SET value = sequences.value + 1, updated_at = NOW()
		RETURNING value`, name).
		Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Ensure GormSequenceGenerator implements the domain interface
var _ ledger.SequenceGenerator = (*GormSequenceGenerator)(nil)
