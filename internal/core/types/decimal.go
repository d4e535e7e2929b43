// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits stored for money columns (NUMERIC(18,2)).
const MoneyScale int32 = 2

// PercentScale is the number of fractional digits kept for percentages.
const PercentScale int32 = 2

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds m half away from zero to MoneyScale digits.
func RoundMoney(m Money) Money {
	return m.Round(MoneyScale)
}

// LineTotal is quantity * unitPrice rounded to MoneyScale.
func LineTotal(quantity int64, unitPrice Money) Money {
	return RoundMoney(unitPrice.Mul(decimal.NewFromInt(quantity)))
}

// Percent returns part/whole*100 rounded to PercentScale digits.
// A non-positive whole yields zero.
func Percent(part, whole int64) decimal.Decimal {
	if whole <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(whole), PercentScale)
}
