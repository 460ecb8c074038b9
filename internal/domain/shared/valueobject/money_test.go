package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Arithmetic(t *testing.T) {
	a := NewMoneyFromInt(100)
	b := NewMoneyFromInt(40)

	assert.True(t, a.Add(b).Amount().Equal(decimal.NewFromInt(140)))
	assert.True(t, a.Sub(b).Amount().Equal(decimal.NewFromInt(60)))
	assert.True(t, a.MulInt(3).Amount().Equal(decimal.NewFromInt(300)))
	assert.True(t, a.Div(decimal.NewFromInt(4)).Amount().Equal(decimal.NewFromInt(25)))
	assert.True(t, b.Neg().Amount().Equal(decimal.NewFromInt(-40)))
}

func TestMoney_Comparisons(t *testing.T) {
	a := NewMoneyFromInt(100)
	b := NewMoneyFromInt(40)

	assert.True(t, a.GreaterThan(b))
	assert.True(t, b.LessThan(a))
	assert.True(t, a.GreaterThanOrEqual(NewMoneyFromInt(100)))
	assert.True(t, a.LessThanOrEqual(NewMoneyFromInt(100)))
	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, -1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(NewMoneyFromInt(100)))
}

func TestMoney_EqualWithin(t *testing.T) {
	a := NewMoneyFromFloat(1320.00)

	assert.True(t, a.EqualWithin(NewMoneyFromFloat(1320.005)))
	assert.True(t, a.EqualWithin(NewMoneyFromFloat(1319.99)))
	assert.False(t, a.EqualWithin(NewMoneyFromFloat(1319.98)))
}

func TestMoney_MinAndClamp(t *testing.T) {
	a := NewMoneyFromInt(100)
	b := NewMoneyFromInt(40)

	assert.True(t, a.Min(b).Amount().Equal(decimal.NewFromInt(40)))
	assert.True(t, b.Min(a).Amount().Equal(decimal.NewFromInt(40)))

	neg := NewMoneyFromInt(-5)
	assert.True(t, neg.ClampFloor(Zero()).IsZero())
	assert.True(t, a.ClampFloor(Zero()).Amount().Equal(decimal.NewFromInt(100)))
}

func TestMoney_ZeroValue(t *testing.T) {
	var m Money
	assert.True(t, m.IsZero())
	assert.True(t, m.Add(NewMoneyFromInt(7)).Amount().Equal(decimal.NewFromInt(7)))
}

func TestMoney_FromString(t *testing.T) {
	m, err := NewMoneyFromString("1234.56")
	require.NoError(t, err)
	assert.True(t, m.Amount().Equal(decimal.NewFromFloat(1234.56)))

	_, err = NewMoneyFromString("not-a-number")
	assert.Error(t, err)
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := NewMoneyFromFloat(99.95)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Amount().Equal(back.Amount()))
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "1234.50 UZS", NewMoneyFromFloat(1234.5).String())
}
