package match

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceValidity(t *testing.T) {
	testCases := []struct {
		raw      string
		validity PriceValidity
		ticks    int64
	}{
		{"10", PriceValid, 10000},
		{"9.5", PriceValid, 9500},
		{"0.001", PriceValid, 1},
		{"12.345", PriceValid, 12345},
		{"0", PriceNonPositive, 0},
		{"-1.5", PriceNonPositive, -1500},
		{"10.0001", PriceExtraDecimal, 10000},
		{"abc", PriceMalformed, 0},
		{"", PriceMalformed, 0},
		{"9223372036854775.807", PriceValid, math.MaxInt64},
		{"9223372036854775.808", PriceOutOfRange, 0},
		{"18446744073709561.616", PriceOutOfRange, 0},
		{"-18446744073709561.616", PriceNonPositive, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			p := ParsePrice(tc.raw)
			assert.Equal(t, tc.validity, p.Validity())
			assert.Equal(t, tc.validity == PriceValid, p.IsValid())
			assert.Equal(t, tc.ticks, p.Ticks())
			if p.IsValid() {
				assert.Empty(t, p.Reason())
			} else {
				assert.NotEmpty(t, p.Reason())
			}
		})
	}
}

func TestPriceString(t *testing.T) {
	assert.Equal(t, "10", ParsePrice("10").String())
	assert.Equal(t, "10", ParsePrice("10.000").String())
	assert.Equal(t, "9.5", ParsePrice("9.50").String())
	assert.Equal(t, "0.001", ParsePrice("0.001").String())
	assert.Equal(t, "15", priceFromTicks(15000).String())
	assert.Equal(t, "10.0001", ParsePrice("10.0001").String())
}

func TestPriceCompare(t *testing.T) {
	low := ParsePrice("9.5")
	high := NewPriceFromFloat(10.5)

	assert.Equal(t, -1, low.Cmp(high))
	assert.Equal(t, 1, high.Cmp(low))
	assert.Equal(t, 0, low.Cmp(NewPrice(decimal.RequireFromString("9.500"))))

	assert.True(t, low.LessThan(high))
	assert.False(t, high.LessThan(low))
	assert.True(t, high.GreaterThan(low))
	assert.True(t, ParsePrice("10").Equal(ParsePrice("10.000")))
}

func TestPriceIsZero(t *testing.T) {
	assert.True(t, Price{}.IsZero())
	assert.False(t, ParsePrice("0").IsZero())
	assert.False(t, ParsePrice("abc").IsZero())
	assert.False(t, ParsePrice("1").IsZero())
}

func TestPriceJSON(t *testing.T) {
	data, err := json.Marshal(ParsePrice("9.5"))
	require.NoError(t, err)
	assert.Equal(t, `"9.5"`, string(data))

	var p Price
	require.NoError(t, json.Unmarshal([]byte(`"12.5"`), &p))
	assert.Equal(t, int64(12500), p.Ticks())

	require.NoError(t, json.Unmarshal([]byte(`7`), &p))
	assert.Equal(t, "7", p.String())

	assert.Error(t, json.Unmarshal([]byte(`"x"`), &p))
}
