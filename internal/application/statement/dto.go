package statement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finledger/backend/internal/application/receivables"
)

// EntryKind names the source of a statement entry
type EntryKind string

const (
	EntryKindOrder   EntryKind = "ORDER"
	EntryKindPayment EntryKind = "PAYMENT"
	EntryKindReturn  EntryKind = "RETURN"
	EntryKindRefund  EntryKind = "REFUND"
)

// GenerateRequest carries the input for generating a statement. AsOf anchors
// the aging computation; it defaults to the range end when zero so repeated
// generation over the same data stays reproducible.
type GenerateRequest struct {
	PartyID uuid.UUID
	From    time.Time
	To      time.Time
	AsOf    time.Time
}

// Entry is one monetary event in the statement with its signed delta and the
// running balance after it
type Entry struct {
	Date        time.Time       `json:"date"`
	Kind        EntryKind       `json:"kind"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
	Delta       decimal.Decimal `json:"delta"`
	Balance     decimal.Decimal `json:"balance"`
}

// Statement is a chronological running-balance ledger of one party's
// monetary events over a date range
type Statement struct {
	PartyID        uuid.UUID                 `json:"party_id"`
	From           time.Time                 `json:"from"`
	To             time.Time                 `json:"to"`
	AsOf           time.Time                 `json:"as_of"`
	OpeningBalance decimal.Decimal           `json:"opening_balance"`
	ClosingBalance decimal.Decimal           `json:"closing_balance"`
	Entries        []Entry                   `json:"entries"`
	AgingBuckets   []receivables.AgingBucket `json:"aging_buckets"`
}
