package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is derived per order from the confirmed payment sum and the
// due date. It is never persisted as authoritative state; every read
// recomputes it from stored data.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusOverdue PaymentStatus = "OVERDUE"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid, PaymentStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// DerivePaymentStatus computes the payment status of an order as a pure
// function of its total, the sum of its confirmed payments, the due date and
// the reference time. OVERDUE takes precedence over UNPAID/PARTIAL once the
// due date has passed with money still outstanding.
func DerivePaymentStatus(total, confirmedPaid decimal.Decimal, dueDate *time.Time, asOf time.Time) PaymentStatus {
	if confirmedPaid.GreaterThanOrEqual(total) {
		return PaymentStatusPaid
	}
	if dueDate != nil && asOf.After(*dueDate) {
		return PaymentStatusOverdue
	}
	if confirmedPaid.LessThanOrEqual(decimal.Zero) {
		return PaymentStatusUnpaid
	}
	return PaymentStatusPartial
}

// Outstanding returns the unpaid remainder of an order, never negative
func Outstanding(total, confirmedPaid decimal.Decimal) decimal.Decimal {
	out := total.Sub(confirmedPaid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// OverdueDays returns the whole days past due at asOf, 0 when there is no due
// date, the due date has not passed, or the order is fully paid
func OverdueDays(total, confirmedPaid decimal.Decimal, dueDate *time.Time, asOf time.Time) int {
	if dueDate == nil {
		return 0
	}
	if confirmedPaid.GreaterThanOrEqual(total) {
		return 0
	}
	if !asOf.After(*dueDate) {
		return 0
	}
	days := int(asOf.Sub(*dueDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
