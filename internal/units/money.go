package units

import (
	"encoding/json"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// MaxMoney is the top of every Money value's range.
var MaxMoney = decimal.NewFromInt(1_000_000_000_000)

// Money is a non-negative decimal amount. The zero value is $0.
type Money struct {
	amount decimal.Decimal
}

// NewMoney returns v as Money, clamped to [0, MaxMoney].
func NewMoney(v float64) Money {
	var m Money
	m.amount = clampMoney(fromFloat(v))
	return m
}

// Float64 returns the amount as a float.
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// Decimal returns the exact amount.
func (m Money) Decimal() decimal.Decimal { return m.amount }

// IsZero reports whether the amount is $0.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// Covers reports whether v can be taken without going negative.
func (m Money) Covers(v float64) bool {
	d := fromFloat(v)
	return !d.IsNegative() && d.LessThanOrEqual(m.amount)
}

// Inc adds v. The result is clamped at MaxMoney; negative v is ignored.
func (m *Money) Inc(v float64) {
	d := fromFloat(v)
	if d.IsNegative() {
		return
	}
	m.amount = clampMoney(m.amount.Add(d))
}

// Dec removes v and returns true, or returns false and leaves the amount
// untouched when v exceeds it (or is negative / not a number).
func (m *Money) Dec(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	d := fromFloat(v)
	if d.IsNegative() || d.GreaterThan(m.amount) {
		return false
	}
	m.amount = m.amount.Sub(d)
	return true
}

// String renders the amount as "$1,234.56".
func (m Money) String() string {
	return "$" + humanize.CommafWithDigits(m.Float64(), 2)
}

// MarshalJSON encodes the amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Float64())
}

func fromFloat(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, -1) {
		return decimal.Zero
	}
	if math.IsInf(v, 1) {
		return MaxMoney
	}
	return decimal.NewFromFloat(v)
}

func clampMoney(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(MaxMoney) {
		return MaxMoney
	}
	return d
}
