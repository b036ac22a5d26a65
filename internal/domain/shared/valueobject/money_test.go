package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m := NewMoney(10050)
	assert.Equal(t, int64(10050), m.Cents())
	assert.Equal(t, "100.50", m.String())
}

func TestMoneyArithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		sum := NewMoney(1000).Add(NewMoney(250))
		assert.Equal(t, int64(1250), sum.Cents())
	})

	t.Run("sub", func(t *testing.T) {
		diff := NewMoney(1000).Sub(NewMoney(250))
		assert.Equal(t, int64(750), diff.Cents())
	})

	t.Run("sub below zero", func(t *testing.T) {
		diff := NewMoney(100).Sub(NewMoney(250))
		assert.True(t, diff.IsNegative())
		assert.Equal(t, int64(-150), diff.Cents())
	})

	t.Run("neg", func(t *testing.T) {
		assert.Equal(t, int64(-500), NewMoney(500).Neg().Cents())
	})

	t.Run("original is unchanged", func(t *testing.T) {
		m := NewMoney(1000)
		_ = m.Add(NewMoney(1))
		assert.Equal(t, int64(1000), m.Cents())
	})
}

func TestMoneyComparisons(t *testing.T) {
	a := NewMoney(100)
	b := NewMoney(200)

	assert.True(t, a.LessThan(b))
	assert.True(t, a.LessThanOrEqual(b))
	assert.True(t, b.GreaterThan(a))
	assert.True(t, b.GreaterThanOrEqual(a))
	assert.True(t, a.Equals(NewMoney(100)))
	assert.False(t, a.Equals(b))
	assert.True(t, a.GreaterThanOrEqual(NewMoney(100)))
	assert.True(t, a.LessThanOrEqual(NewMoney(100)))
}

func TestMoneySignPredicates(t *testing.T) {
	assert.True(t, Zero.IsZero())
	assert.False(t, Zero.IsPositive())
	assert.False(t, Zero.IsNegative())
	assert.True(t, NewMoney(1).IsPositive())
	assert.True(t, NewMoney(-1).IsNegative())
}

func TestMoneyPercentageOf(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		pct := NewMoney(2500).PercentageOf(NewMoney(10000))
		assert.True(t, pct.Equal(decimal.NewFromInt(25)))
	})

	t.Run("rounds to two places", func(t *testing.T) {
		pct := NewMoney(1).PercentageOf(NewMoney(3))
		assert.Equal(t, "33.33", pct.StringFixed(2))
	})

	t.Run("zero total", func(t *testing.T) {
		assert.True(t, NewMoney(500).PercentageOf(Zero).IsZero())
	})
}

func TestMoneyJSON(t *testing.T) {
	t.Run("marshals as integer cents", func(t *testing.T) {
		data, err := json.Marshal(NewMoney(12345))
		require.NoError(t, err)
		assert.Equal(t, "12345", string(data))
	})

	t.Run("unmarshals integer cents", func(t *testing.T) {
		var m Money
		require.NoError(t, json.Unmarshal([]byte("9900"), &m))
		assert.Equal(t, int64(9900), m.Cents())
	})

	t.Run("rejects fractional values", func(t *testing.T) {
		var m Money
		err := json.Unmarshal([]byte("99.5"), &m)
		assert.Error(t, err)
	})
}

func TestMoneyScan(t *testing.T) {
	t.Run("int64", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(int64(777)))
		assert.Equal(t, int64(777), m.Cents())
	})

	t.Run("bytes", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan([]byte("4200")))
		assert.Equal(t, int64(4200), m.Cents())
	})

	t.Run("nil", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
	})

	t.Run("unsupported type", func(t *testing.T) {
		var m Money
		assert.Error(t, m.Scan(3.14))
	})
}

func TestMoneyValue(t *testing.T) {
	v, err := NewMoney(555).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(555), v)
}
