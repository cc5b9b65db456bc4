// Package core provides the bookkeeping domain of betledger.
//
// This file contains the Money type and the parsing of user supplied
// amounts. Amounts keep full decimal precision; rounding to two decimals
// only happens when an amount is rendered.
package core

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a signed currency amount backed by an arbitrary precision decimal.
// The zero value is a valid zero amount.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// MoneyFromFloat converts a float64 into Money.
func MoneyFromFloat(f float64) Money {
	return Money{d: decimal.NewFromFloat(f)}
}

// MoneyFromInt converts a whole currency amount into Money.
func MoneyFromInt(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

// ParseAmount converts a user supplied amount to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. When both
// appear, the first one is treated as a thousands separator
// ("1.234,56" and "1,234.56" both parse as 1234.56). An empty string is zero.
//
// Examples:
//
//	ParseAmount("12,5")  -> 12.5
//	ParseAmount(" -3 ")  -> -3
//	ParseAmount("abc")   -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, nil
	}
	s = strings.ReplaceAll(s, " ", "")

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma < dot:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return Zero, ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	if strings.ContainsAny(s, "eE") {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// Sign returns -1, 0 or 1.
func (m Money) Sign() int {
	return m.d.Sign()
}

func (m Money) IsZero() bool     { return m.d.IsZero() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }

// Equal reports whether both amounts have the same value regardless of scale.
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// Float64 returns the closest float64 value, for charts.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// Round returns the amount rounded half away from zero to two decimals.
func (m Money) Round() Money {
	return Money{d: m.d.Round(2)}
}

// Fixed renders the amount with exactly two decimals and no currency sign.
func (m Money) Fixed() string {
	return m.d.StringFixed(2)
}

// String renders the amount as a currency string (e.g. "€12.34", "-€2.00").
func (m Money) String() string {
	if m.d.IsNegative() {
		return "-€" + m.d.Neg().StringFixed(2)
	}
	return "€" + m.d.StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON number with full precision.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string or null.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*m = Zero
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := ParseAmount(s)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", s, err)
	}
	*m = v
	return nil
}

// Value implements driver.Valuer; amounts are stored as decimal text.
func (m Money) Value() (driver.Value, error) {
	return m.d.String(), nil
}

// Scan implements sql.Scanner. NULL scans as zero.
func (m *Money) Scan(src any) error {
	if src == nil {
		*m = Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	*m = Money{d: d}
	return nil
}

// Sum folds a list of amounts.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
