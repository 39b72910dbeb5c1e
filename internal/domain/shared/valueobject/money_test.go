package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), SAR)
		require.NoError(t, err)
		assert.Equal(t, SAR, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", SAR)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", SAR)
		assert.Error(t, err)
	})
}

func TestZero(t *testing.T) {
	m := Zero(USD)
	assert.True(t, m.IsZero())
	assert.Equal(t, USD, m.Currency())

	assert.True(t, ZeroSAR().IsZero())
	assert.Equal(t, SAR, ZeroSAR().Currency())
}

func TestMoneyAdd(t *testing.T) {
	t.Run("adds same currency", func(t *testing.T) {
		a := NewMoneySAR(decimal.NewFromFloat(100.25))
		b := NewMoneySAR(decimal.NewFromFloat(50.75))
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromFloat(151.00)))
	})

	t.Run("rejects mixed currencies", func(t *testing.T) {
		a := NewMoneySAR(decimal.NewFromInt(10))
		b, _ := NewMoney(decimal.NewFromInt(10), USD)
		_, err := a.Add(b)
		assert.Error(t, err)
	})
}

func TestMoneySubtract(t *testing.T) {
	a := NewMoneySAR(decimal.NewFromInt(100))
	b := NewMoneySAR(decimal.NewFromInt(30))
	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(decimal.NewFromInt(70)))

	neg := b.MustSubtract(a)
	assert.True(t, neg.IsNegative())
}

func TestMoneyComparisons(t *testing.T) {
	small := NewMoneySAR(decimal.NewFromInt(5))
	large := NewMoneySAR(decimal.NewFromInt(500))

	lt, err := small.LessThan(large)
	require.NoError(t, err)
	assert.True(t, lt)

	gte, err := large.GreaterThanOrEqual(small)
	require.NoError(t, err)
	assert.True(t, gte)

	other, _ := NewMoney(decimal.NewFromInt(5), KWD)
	_, err = small.GreaterThan(other)
	assert.Error(t, err)
}

func TestMoneyNegate(t *testing.T) {
	m := NewMoneySAR(decimal.NewFromFloat(42.50))
	n := m.Negate()
	assert.True(t, n.IsNegative())
	assert.True(t, n.Negate().Equals(m))
}

func TestMoneyJSON(t *testing.T) {
	m := NewMoneySAR(decimal.NewFromFloat(150.75))
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"150.75","currency":"SAR"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equals(m))
}

func TestMoneyScan(t *testing.T) {
	t.Run("scans string amount with default currency", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("88.20"))
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(88.20)))
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("nil scans to zero", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		var m Money
		assert.Error(t, m.Scan(3.14))
	})
}

func TestMoneyString(t *testing.T) {
	m := NewMoneySAR(decimal.NewFromFloat(1234.5))
	assert.Equal(t, "1234.50 SAR", m.String())
}
