package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinor(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"50", 5000},
		{"25.5", 2550},
		{"19.99", 1999},
		{"12.345", 1235},
		{"12.344", 1234},
		{"0.015", 2},
		{"0.005", 1},
		{"-0.005", -1},
		{"0", 0},
		{"92233720368547758.07", math.MaxInt64},
		{"-92233720368547758.08", math.MinInt64},
	}

	for _, tt := range tests {
		got, err := ToMinor(decimal.RequireFromString(tt.in))
		require.NoError(t, err, "ToMinor(%s)", tt.in)
		assert.Equal(t, tt.want, got, "ToMinor(%s)", tt.in)
	}
}

func TestToMinor_OutOfRange(t *testing.T) {
	for _, in := range []string{
		"92233720368547758.08",
		"184467440737095516.17",
		"-92233720368547758.09",
		"1e30",
	} {
		got, err := ToMinor(decimal.RequireFromString(in))
		assert.ErrorIs(t, err, ErrOutOfRange, "ToMinor(%s)", in)
		assert.Zero(t, got)
	}
}

func TestToFloatAndDecimal(t *testing.T) {
	assert.Equal(t, 50.0, ToFloat(5000))
	assert.Equal(t, 19.99, ToFloat(1999))
	assert.Equal(t, "0.05", ToDecimal(5).String())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$50.00", Format(5000, "usd"))
	assert.Equal(t, "$0.99", Format(99, ""))
	assert.Equal(t, "12.50 EUR", Format(1250, "eur"))
}

func TestMin(t *testing.T) {
	assert.Equal(t, int64(3000), Min(3000, 5000))
	assert.Equal(t, int64(5000), Min(8000, 5000))
}
