package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDerivePaymentStatus(t *testing.T) {
	asOf := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := asOf.AddDate(0, 0, -10)
	future := asOf.AddDate(0, 0, 10)

	tests := []struct {
		name     string
		total    string
		paid     string
		dueDate  *time.Time
		expected PaymentStatus
	}{
		{"nothing paid no due date", "1000", "0", nil, PaymentStatusUnpaid},
		{"partially paid no due date", "1000", "600", nil, PaymentStatusPartial},
		{"fully paid", "1000", "1000", nil, PaymentStatusPaid},
		{"paid above total", "1000", "1200", nil, PaymentStatusPaid},
		{"nothing paid past due", "1000", "0", &past, PaymentStatusOverdue},
		{"partially paid past due", "1000", "600", &past, PaymentStatusOverdue},
		{"fully paid past due stays paid", "1000", "1000", &past, PaymentStatusPaid},
		{"partially paid future due", "1000", "600", &future, PaymentStatusPartial},
		{"nothing paid future due", "1000", "0", &future, PaymentStatusUnpaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			paid := decimal.RequireFromString(tt.paid)
			assert.Equal(t, tt.expected, DerivePaymentStatus(total, paid, tt.dueDate, asOf))
		})
	}
}

func TestDerivePaymentStatus_Idempotent(t *testing.T) {
	asOf := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	due := asOf.AddDate(0, 0, -5)
	total := decimal.NewFromInt(1000)
	paid := decimal.NewFromInt(400)

	first := DerivePaymentStatus(total, paid, &due, asOf)
	second := DerivePaymentStatus(total, paid, &due, asOf)

	assert.Equal(t, first, second)
	assert.Equal(t, PaymentStatusOverdue, first)
}

func TestOutstanding(t *testing.T) {
	tests := []struct {
		name     string
		total    string
		paid     string
		expected string
	}{
		{"nothing paid", "1000", "0", "1000"},
		{"partial", "1000", "600", "400"},
		{"exact", "1000", "1000", "0"},
		{"overpaid clamps to zero", "1000", "1200", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Outstanding(decimal.RequireFromString(tt.total), decimal.RequireFromString(tt.paid))
			assert.True(t, out.Equal(decimal.RequireFromString(tt.expected)),
				"expected %s, got %s", tt.expected, out)
		})
	}
}

func TestOverdueDays(t *testing.T) {
	asOf := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	total := decimal.NewFromInt(1000)

	tenDaysAgo := asOf.AddDate(0, 0, -10)
	tomorrow := asOf.AddDate(0, 0, 1)

	tests := []struct {
		name     string
		paid     decimal.Decimal
		dueDate  *time.Time
		expected int
	}{
		{"no due date", decimal.Zero, nil, 0},
		{"not yet due", decimal.Zero, &tomorrow, 0},
		{"ten days overdue", decimal.Zero, &tenDaysAgo, 10},
		{"fully paid never overdue", total, &tenDaysAgo, 0},
		{"partially paid overdue", decimal.NewFromInt(500), &tenDaysAgo, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, OverdueDays(total, tt.paid, tt.dueDate, asOf))
		})
	}
}
