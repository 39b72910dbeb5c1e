package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(t *testing.T, total float64) *Invoice {
	t.Helper()
	inv, err := NewInvoice(soloScope(), "INV-0001", uuid.New(), valueobject.NewMoneySAR(decimal.NewFromFloat(total)))
	require.NoError(t, err)
	return inv
}

func TestInvoiceApplyPayment(t *testing.T) {
	t.Run("partial payment moves status to partial", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		require.NoError(t, inv.ApplyPayment(valueobject.NewMoneySAR(decimal.NewFromInt(400))))
		assert.Equal(t, InvoiceStatusPartial, inv.Status)
		assert.True(t, inv.AmountPaid.Equal(decimal.NewFromInt(400)))
		assert.True(t, inv.BalanceDue.Equal(decimal.NewFromInt(600)))
		assert.True(t, inv.AmountPaid.Add(inv.BalanceDue).Equal(inv.TotalAmount))
	})

	t.Run("full payment marks paid and stamps paid date", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		require.NoError(t, inv.ApplyPayment(valueobject.NewMoneySAR(decimal.NewFromInt(1000))))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.NotNil(t, inv.PaidDate)
		assert.True(t, inv.BalanceDue.IsZero())
	})

	t.Run("rejects amount above balance due", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		err := inv.ApplyPayment(valueobject.NewMoneySAR(decimal.NewFromInt(1001)))
		require.Error(t, err)
		assert.Equal(t, "INSUFFICIENT_FUNDS", err.(*shared.DomainError).Code)
		assert.True(t, inv.AmountPaid.IsZero())
	})

	t.Run("rejects payment on cancelled invoice", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		inv.Status = InvoiceStatusCancelled
		err := inv.ApplyPayment(valueobject.NewMoneySAR(decimal.NewFromInt(100)))
		require.Error(t, err)
		assert.Equal(t, "INVALID_STATE", err.(*shared.DomainError).Code)
	})
}

func TestInvoiceReversePayment(t *testing.T) {
	t.Run("reopens a paid invoice to partial", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		require.NoError(t, inv.ApplyPayment(valueobject.NewMoneySAR(decimal.NewFromInt(1000))))
		require.Equal(t, InvoiceStatusPaid, inv.Status)

		require.NoError(t, inv.ReversePayment(valueobject.NewMoneySAR(decimal.NewFromInt(300))))
		assert.Equal(t, InvoiceStatusPartial, inv.Status)
		assert.True(t, inv.BalanceDue.Equal(decimal.NewFromInt(300)))
		assert.Nil(t, inv.PaidDate)
	})

	t.Run("floors amount paid at zero", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		require.NoError(t, inv.ApplyPayment(valueobject.NewMoneySAR(decimal.NewFromInt(200))))
		require.NoError(t, inv.ReversePayment(valueobject.NewMoneySAR(decimal.NewFromInt(500))))
		assert.True(t, inv.AmountPaid.IsZero())
		assert.True(t, inv.BalanceDue.Equal(inv.TotalAmount))
		assert.Equal(t, InvoiceStatusUnpaid, inv.Status)
	})
}
