// Package units provides the bounded scalar types shared by every
// simulation component: clamped numbers, percentages, money and energy.
package units

import (
	"encoding/json"

	"golang.org/x/exp/constraints"
)

// Number is any scalar a Clamped value can hold.
type Number interface {
	constraints.Integer | constraints.Float
}

// Clamped is a scalar that never leaves [min, max]. Every setter and
// arithmetic helper re-clamps, so out-of-range inputs are absorbed
// instead of rejected.
type Clamped[T Number] struct {
	value T
	min   T
	max   T
}

// NewClamped returns a Clamped holding value clamped to [min, max].
// Swapped bounds are normalised.
func NewClamped[T Number](value, min, max T) Clamped[T] {
	if min > max {
		min, max = max, min
	}
	c := Clamped[T]{min: min, max: max}
	c.Set(value)
	return c
}

// Get returns the current value.
func (c Clamped[T]) Get() T { return c.value }

// Min returns the lower bound.
func (c Clamped[T]) Min() T { return c.min }

// Max returns the upper bound.
func (c Clamped[T]) Max() T { return c.max }

// Set replaces the value, clamping it to the bounds. NaN collapses to min.
func (c *Clamped[T]) Set(v T) {
	c.value = clamp(v, c.min, c.max)
}

// Add adds d and re-clamps. Returns the new value.
func (c *Clamped[T]) Add(d T) T {
	c.Set(c.value + d)
	return c.value
}

// Scale multiplies by f and re-clamps. Returns the new value.
func (c *Clamped[T]) Scale(f float64) T {
	c.Set(T(float64(c.value) * f))
	return c.value
}

// AtMax reports whether the value sits on its upper bound.
func (c Clamped[T]) AtMax() bool { return c.value >= c.max }

// Fraction returns where the value sits inside its range, 0..1.
func (c Clamped[T]) Fraction() float64 {
	span := float64(c.max) - float64(c.min)
	if span == 0 {
		return 0
	}
	return (float64(c.value) - float64(c.min)) / span
}

// MarshalJSON encodes only the value; bounds are static per field.
func (c Clamped[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.value)
}

func clamp[T Number](v, lo, hi T) T {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Percentage is a Clamped float, 0..100 unless declared otherwise.
type Percentage = Clamped[float64]

// NewPercentage returns a Percentage in [0, 100].
func NewPercentage(v float64) Percentage {
	return NewClamped(v, 0, 100)
}
