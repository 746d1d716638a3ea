package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyDecScenario(t *testing.T) {
	balance := NewMoney(100.0)

	ok := balance.Dec(150.0)
	assert.False(t, ok)
	assert.Equal(t, 100.0, balance.Float64())

	ok = balance.Dec(40.0)
	assert.True(t, ok)
	assert.Equal(t, 60.0, balance.Float64())
}

func TestMoneyDecProperty(t *testing.T) {
	amounts := []float64{0, 0.01, 0.1, 1, 12.5, 99.99, 100, 100.01, 250, 1e6}
	for _, start := range []float64{0, 1, 100, 12345.67} {
		for _, amt := range amounts {
			m := NewMoney(start)
			before := m.Decimal()
			ok := m.Dec(amt)
			if amt > start {
				assert.False(t, ok, "dec(%v) from %v", amt, start)
				assert.True(t, before.Equal(m.Decimal()))
				continue
			}
			require.True(t, ok, "dec(%v) from %v", amt, start)
			assert.True(t, before.Sub(NewMoney(amt).Decimal()).Equal(m.Decimal()),
				"dec(%v) from %v left %s", amt, start, m.Decimal())
		}
	}
}

func TestMoneyRejectsNonsense(t *testing.T) {
	m := NewMoney(10)
	assert.False(t, m.Dec(-1))
	assert.False(t, m.Dec(math.NaN()))
	assert.False(t, m.Dec(math.Inf(1)))
	assert.Equal(t, 10.0, m.Float64())

	m.Inc(-5)
	assert.Equal(t, 10.0, m.Float64())

	neg := NewMoney(-3)
	assert.True(t, neg.IsZero())
}

func TestMoneyIncClampsAtMax(t *testing.T) {
	m := NewMoney(1)
	m.Inc(math.Inf(1))
	assert.True(t, m.Decimal().Equal(MaxMoney))
}

func TestMoneyCovers(t *testing.T) {
	m := NewMoney(50)
	assert.True(t, m.Covers(50))
	assert.False(t, m.Covers(50.01))
	assert.False(t, m.Covers(-1))
}

func TestClampedStaysInBounds(t *testing.T) {
	inputs := []float64{-1e9, -100, -0.5, 0, 42, 100, 100.5, 1e9, math.Inf(1), math.Inf(-1), math.NaN()}
	for _, in := range inputs {
		p := NewPercentage(in)
		assert.GreaterOrEqual(t, p.Get(), 0.0, "input %v", in)
		assert.LessOrEqual(t, p.Get(), 100.0, "input %v", in)

		p.Add(in)
		assert.GreaterOrEqual(t, p.Get(), 0.0)
		assert.LessOrEqual(t, p.Get(), 100.0)

		p.Scale(in)
		assert.GreaterOrEqual(t, p.Get(), 0.0)
		assert.LessOrEqual(t, p.Get(), 100.0)

		p.Set(in)
		assert.GreaterOrEqual(t, p.Get(), 0.0)
		assert.LessOrEqual(t, p.Get(), 100.0)
	}
}

func TestClampedIntegerAndSwappedBounds(t *testing.T) {
	c := NewClamped(7, 10, 0)
	assert.Equal(t, 0, c.Min())
	assert.Equal(t, 10, c.Max())
	assert.Equal(t, 7, c.Get())

	assert.Equal(t, 10, c.Add(50))
	assert.True(t, c.AtMax())
	assert.Equal(t, 5, c.Scale(0.5))
	assert.InDelta(t, 0.5, c.Fraction(), 1e-9)
}

func TestClampedMarshalsValueOnly(t *testing.T) {
	p := NewPercentage(55.5)
	b, err := p.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "55.5", string(b))
}

func TestEnergyClamp(t *testing.T) {
	assert.Equal(t, EnergyUnit(5), EnergyUnit(9).Clamp(0, 5))
	assert.Equal(t, EnergyUnit(0), EnergyUnit(-3).Clamp(0, 5))
	assert.Equal(t, EnergyUnit(2), MinEnergy(2, 8))
	assert.Equal(t, "1,200 EU", EnergyUnit(1200).String())
}
