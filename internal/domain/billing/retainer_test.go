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

func TestRetainerReplenish(t *testing.T) {
	t.Run("credits the balance", func(t *testing.T) {
		r, err := NewRetainer(soloScope(), uuid.New(), valueobject.NewMoneySAR(decimal.NewFromInt(1000)))
		require.NoError(t, err)

		require.NoError(t, r.Replenish(valueobject.NewMoneySAR(decimal.NewFromInt(500)), uuid.New()))
		assert.True(t, r.Balance.Equal(decimal.NewFromInt(1500)))
		assert.Equal(t, RetainerStatusActive, r.Status)
		assert.NotNil(t, r.LastReplenished)
	})

	t.Run("reactivates a depleted retainer", func(t *testing.T) {
		r, err := NewRetainer(soloScope(), uuid.New(), valueobject.ZeroSAR())
		require.NoError(t, err)
		require.Equal(t, RetainerStatusDepleted, r.Status)

		require.NoError(t, r.Replenish(valueobject.NewMoneySAR(decimal.NewFromInt(200)), uuid.New()))
		assert.Equal(t, RetainerStatusActive, r.Status)
	})

	t.Run("rejects replenishing a closed retainer", func(t *testing.T) {
		r, err := NewRetainer(soloScope(), uuid.New(), valueobject.NewMoneySAR(decimal.NewFromInt(100)))
		require.NoError(t, err)
		require.NoError(t, r.Close())

		err = r.Replenish(valueobject.NewMoneySAR(decimal.NewFromInt(50)), uuid.New())
		require.Error(t, err)
		assert.Equal(t, "INVALID_STATE", err.(*shared.DomainError).Code)
	})
}

func TestRetainerDraw(t *testing.T) {
	t.Run("marks depleted when balance reaches zero", func(t *testing.T) {
		r, err := NewRetainer(soloScope(), uuid.New(), valueobject.NewMoneySAR(decimal.NewFromInt(300)))
		require.NoError(t, err)

		require.NoError(t, r.Draw(valueobject.NewMoneySAR(decimal.NewFromInt(300))))
		assert.True(t, r.Balance.IsZero())
		assert.Equal(t, RetainerStatusDepleted, r.Status)
	})

	t.Run("rejects overdraw", func(t *testing.T) {
		r, err := NewRetainer(soloScope(), uuid.New(), valueobject.NewMoneySAR(decimal.NewFromInt(100)))
		require.NoError(t, err)

		err = r.Draw(valueobject.NewMoneySAR(decimal.NewFromInt(200)))
		require.Error(t, err)
		assert.Equal(t, "INSUFFICIENT_FUNDS", err.(*shared.DomainError).Code)
	})
}
