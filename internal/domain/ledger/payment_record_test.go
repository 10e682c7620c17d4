package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/backend/internal/domain/shared"
	"github.com/finledger/backend/internal/domain/shared/valueobject"
)

func testOrder(partyID uuid.UUID, total int64) *Order {
	return &Order{
		ID:          uuid.New(),
		OrderNumber: "SO-2026-000042",
		PartyID:     partyID,
		TotalAmount: decimal.NewFromInt(total),
		Status:      OrderStatusAwaitingPayment,
		OrderedAt:   time.Now(),
	}
}

func TestNewPaymentRecord(t *testing.T) {
	partyID := uuid.New()
	actor := uuid.New()
	order := testOrder(partyID, 1000)
	paymentDate := time.Now()

	t.Run("creates pending record", func(t *testing.T) {
		p, err := NewPaymentRecord("PAY-2026-000001", order, partyID,
			PaymentMethodCash, valueobject.NewMoneyCNYFromFloat(600), paymentDate, actor)

		require.NoError(t, err)
		assert.Equal(t, PaymentRecordStatusPending, p.Status)
		assert.Equal(t, order.ID, p.OrderID)
		assert.Equal(t, partyID, p.PartyID)
		assert.Equal(t, actor, p.CreatedBy)
		assert.True(t, p.Amount.Equal(decimal.NewFromInt(600)))
		assert.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, EventTypePaymentRecorded, p.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects party mismatch", func(t *testing.T) {
		otherParty := uuid.New()
		_, err := NewPaymentRecord("PAY-2026-000002", order, otherParty,
			PaymentMethodCash, valueobject.NewMoneyCNYFromFloat(600), paymentDate, actor)

		require.Error(t, err)
		assert.Equal(t, shared.CodePartyMismatch, shared.ErrorCode(err))
	})

	tests := []struct {
		name          string
		paymentNumber string
		order         *Order
		partyID       uuid.UUID
		method        PaymentMethod
		amount        float64
		actor         uuid.UUID
	}{
		{"empty payment number", "", order, partyID, PaymentMethodCash, 100, actor},
		{"nil order", "PAY-1", nil, partyID, PaymentMethodCash, 100, actor},
		{"empty party", "PAY-1", order, uuid.Nil, PaymentMethodCash, 100, actor},
		{"invalid method", "PAY-1", order, partyID, PaymentMethod("CHECK"), 100, actor},
		{"zero amount", "PAY-1", order, partyID, PaymentMethodCash, 0, actor},
		{"negative amount", "PAY-1", order, partyID, PaymentMethodCash, -50, actor},
		{"empty actor", "PAY-1", order, partyID, PaymentMethodCash, 100, uuid.Nil},
	}

	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := NewPaymentRecord(tt.paymentNumber, tt.order, tt.partyID,
				tt.method, valueobject.NewMoneyCNYFromFloat(tt.amount), paymentDate, tt.actor)
			assert.Error(t, err)
		})
	}
}

func TestPaymentRecord_Validate(t *testing.T) {
	partyID := uuid.New()
	order := testOrder(partyID, 1000)

	p, err := NewPaymentRecord("PAY-2026-000003", order, partyID,
		PaymentMethodBankTransfer, valueobject.NewMoneyCNYFromFloat(500), time.Now(), uuid.New())
	require.NoError(t, err)

	err = p.Validate()
	require.Error(t, err)
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	p.SetBankReference("TXN-88411")
	assert.NoError(t, p.Validate())
}

func TestPaymentRecord_Confirm(t *testing.T) {
	partyID := uuid.New()
	actor := uuid.New()
	order := testOrder(partyID, 1000)

	p, err := NewPaymentRecord("PAY-2026-000004", order, partyID,
		PaymentMethodCash, valueobject.NewMoneyCNYFromFloat(500), time.Now(), actor)
	require.NoError(t, err)

	versionBefore := p.GetVersion()
	require.NoError(t, p.Confirm(actor))

	assert.Equal(t, PaymentRecordStatusConfirmed, p.Status)
	assert.NotNil(t, p.ConfirmedAt)
	assert.Equal(t, actor, *p.ConfirmedBy)
	assert.Equal(t, versionBefore+1, p.GetVersion())

	err = p.Confirm(actor)
	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
}

func TestPaymentRecord_Void(t *testing.T) {
	partyID := uuid.New()
	actor := uuid.New()
	order := testOrder(partyID, 1000)

	p, err := NewPaymentRecord("PAY-2026-000005", order, partyID,
		PaymentMethodCash, valueobject.NewMoneyCNYFromFloat(500), time.Now(), actor)
	require.NoError(t, err)

	t.Run("requires reason", func(t *testing.T) {
		assert.Error(t, p.Void(actor, ""))
	})

	t.Run("voids pending record", func(t *testing.T) {
		require.NoError(t, p.Void(actor, "duplicate entry"))
		assert.True(t, p.IsVoided())
		assert.Equal(t, "duplicate entry", p.VoidReason)
	})

	t.Run("voiding twice fails", func(t *testing.T) {
		err := p.Void(actor, "again")
		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})

	t.Run("confirmed record can be voided", func(t *testing.T) {
		p2, err := NewPaymentRecord("PAY-2026-000006", order, partyID,
			PaymentMethodCash, valueobject.NewMoneyCNYFromFloat(500), time.Now(), actor)
		require.NoError(t, err)
		require.NoError(t, p2.Confirm(actor))
		require.NoError(t, p2.Void(actor, "charge reversed by bank"))
		assert.True(t, p2.IsVoided())
	})
}
