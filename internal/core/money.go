// Package core provides money parsing and handling utilities.
//
// Amounts and hours are carried as decimal.Decimal values. Parsing from
// user input or loosely typed storage rounds half-up to cents; the summary
// functions reject any record that still carries more than 2 decimals.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is the number of fractional digits carried by every amount.
const Cents = 2

// ParseAmount parses a non-negative decimal string.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// performs half-up rounding on the third decimal place.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.35
//	ParseAmount("-1")     -> ErrNegativeAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d.Round(Cents), nil
}

// ParseHours parses a non-negative number of hours, rounded to 2 decimals.
func ParseHours(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeHours
	}
	return d.Round(Cents), nil
}

// FromFloat converts a float coming from a loosely typed source.
// NaN and infinities are rejected.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrNonFinite
	}
	return decimal.NewFromFloat(f).Round(Cents), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrNonFinite
	}
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimPrefix(s, "$")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrNonFinite
	}
	return d, nil
}

// FormatMoney renders an amount with a dollar sign, thousands separators
// and exactly two decimals, e.g. $8,400.50.
func FormatMoney(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(Cents)
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatHours renders hours with one decimal, as the analytics cards do.
func FormatHours(d decimal.Decimal) string {
	return d.StringFixed(1)
}

func checkAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrNegativeAmount
	}
	if d.Exponent() < -Cents && !d.Equal(d.Round(Cents)) {
		return ErrAmountPrecision
	}
	return nil
}
