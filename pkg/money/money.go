// Package money converts between decimal currency amounts used on the wire
// and integer minor units used in storage.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const minorUnitsPerMajor = 100

var (
	// ErrOutOfRange is returned for amounts whose minor units do not fit in an int64
	ErrOutOfRange = errors.New("amount is out of range")
	// ErrCurrencyMismatch is returned when an amount would be added to a
	// balance held in another currency
	ErrCurrencyMismatch = errors.New("currency does not match")
)

var (
	hundred  = decimal.NewFromInt(minorUnitsPerMajor)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// ToMinor converts a decimal amount to minor units, rounding half away from zero
func ToMinor(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(hundred).Round(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, fmt.Errorf("%s: %w", amount.String(), ErrOutOfRange)
	}
	return minor.IntPart(), nil
}

// ToDecimal converts minor units back to a decimal amount
func ToDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// ToFloat converts minor units to a float for JSON responses
func ToFloat(minor int64) float64 {
	f, _ := ToDecimal(minor).Float64()
	return f
}

// Format renders minor units as "$12.34" for usd and "12.34 EUR" otherwise
func Format(minor int64, currency string) string {
	amount := ToDecimal(minor).StringFixed(2)
	if strings.EqualFold(currency, "usd") || currency == "" {
		return "$" + amount
	}
	return fmt.Sprintf("%s %s", amount, strings.ToUpper(currency))
}

// Min returns the smaller of two minor-unit amounts
func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
