package economy

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/gridworld/internal/calendar"
	"github.com/talgya/gridworld/internal/units"
)

func newTestEngine(seed int64) *Engine {
	return NewEngine(rand.New(rand.NewSource(seed)))
}

func hourly(e *Engine, hours int) {
	var tick uint64
	for i := 0; i < hours; i++ {
		tick += calendar.TicksPerHour
		e.Update(tick, calendar.FromTick(tick), calendar.HourChange)
	}
}

func TestCatalog(t *testing.T) {
	require.Len(t, Catalog, 9)
	seen := map[ProductID]bool{}
	for _, p := range Catalog {
		assert.False(t, seen[p.ID], "duplicate %s", p.ID)
		seen[p.ID] = true
		assert.Positive(t, p.MinDemand)
		assert.Positive(t, p.UnitsPerPercent)
		for i := 1; i < len(p.Timeline); i++ {
			assert.Less(t, p.Timeline[i-1], p.Timeline[i], "%s timeline not increasing", p.ID)
		}
	}
	for _, ind := range []Industry{Food, Textile, Metal, Chemical, Electronics} {
		assert.NotEmpty(t, ProductsOf(ind), ind.String())
	}

	bread, ok := Lookup("bread")
	require.True(t, ok)
	assert.Equal(t, Food, bread.Industry)
	_, ok = Lookup("spaceships")
	assert.False(t, ok)
}

func TestParseIndustry(t *testing.T) {
	ind, err := ParseIndustry("chemical")
	require.NoError(t, err)
	assert.Equal(t, Chemical, ind)

	_, err = ParseIndustry("magic")
	assert.Error(t, err)
}

func TestFuelPriceFor(t *testing.T) {
	assert.InDelta(t, 2.0, FuelPriceFor(0, 1), 1e-9)
	assert.InDelta(t, 2.7, FuelPriceFor(10, 1), 1e-9)
	assert.InDelta(t, 1.79, FuelPriceFor(-3, -1), 1e-9)
	assert.InDelta(t, MaxFuelPrice, FuelPriceFor(500, 1), 1e-9)
	assert.InDelta(t, MinFuelPrice, FuelPriceFor(-90, 0), 1e-9)
}

func TestMacroStepStaysInBand(t *testing.T) {
	e := newTestEngine(7)
	var tick uint64
	for i := 0; i < 600; i++ {
		tick += calendar.TicksPerMonth
		e.Update(tick, calendar.FromTick(tick), calendar.MonthChange)

		infl := e.Inflation()
		assert.GreaterOrEqual(t, infl, MinInflation)
		assert.LessOrEqual(t, infl, MaxInflation)

		fuel := e.FuelPrice().Float64()
		assert.GreaterOrEqual(t, fuel, MinFuelPrice)
		assert.LessOrEqual(t, fuel, MaxFuelPrice)
	}
}

func TestPausedTickIsIgnored(t *testing.T) {
	e := newTestEngine(1)
	before := e.Snapshot()
	e.Update(0, calendar.FromTick(0), calendar.Paused)
	assert.Equal(t, before, e.Snapshot())
}

func TestDemandGenerationUnderPressure(t *testing.T) {
	e := newTestEngine(1)
	tick := uint64(calendar.TicksPerDay)
	e.Update(tick, calendar.FromTick(tick), calendar.DayChange)

	// inflation 2 gives pressure 8, which only reaches the radio threshold
	active := e.ActiveDemands()
	assert.Len(t, active, len(Catalog)-1)
	for _, d := range active {
		assert.NotEqual(t, ProductID("radios"), d.Product)
		p, _ := Lookup(d.Product)
		assert.Equal(t, p.MinDemand, d.Percent.Get())
		assert.Equal(t, uint32(1), d.Age)
	}
}

func TestDemandGenerationUnderDeflation(t *testing.T) {
	e := newTestEngine(3)
	e.inflation.Set(-2)
	for i := 0; i < 50; i++ {
		e.generateDemands(0)
	}
	counts := map[ProductID]int{}
	for _, d := range e.ActiveDemands() {
		counts[d.Product]++
	}
	// bread opens 1-in-3 times on average, radios 1-in-13
	assert.Greater(t, counts["bread"], counts["radios"])
	assert.Positive(t, counts["bread"])
}

func TestHistoryModifier(t *testing.T) {
	cases := []struct {
		mean float64
		any  bool
		want float64
	}{
		{0, false, 0},
		{10, true, -10},
		{30, true, -4},
		{60, true, 10},
		{100, true, 3},
		{140, true, -6},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, historyModifier(c.mean, c.any), "mean %v", c.mean)
	}
}

func TestModifierUsesSameProductOnly(t *testing.T) {
	e := newTestEngine(1)
	met := newDemand("bread", 40, 0)
	met.MeetPercent.Set(60)
	e.history.Push(met)
	missed := newDemand("medicine", 30, 0)
	missed.MeetPercent.Set(5)
	e.history.Push(missed)

	e.generateDemands(0)
	for _, d := range e.ActiveDemands() {
		switch d.Product {
		case "bread":
			assert.Equal(t, 50.0, d.Percent.Get())
		case "medicine":
			assert.Equal(t, 20.0, d.Percent.Get())
		case "tools":
			assert.Equal(t, 15.0, d.Percent.Get())
		}
	}
}

func TestDeadlineRemovalArchivesOnce(t *testing.T) {
	e := newTestEngine(1)
	_, err := e.OpenDemand(0, "bread", 40)
	require.NoError(t, err)

	hourly(e, 167)
	require.Len(t, e.ActiveDemands(), 1)
	d := e.ActiveDemands()[0]
	assert.Equal(t, uint32(167), d.Age)
	// 40 × 1.25 × 0.75 × 0.5 × 0.25
	assert.InDelta(t, 4.6875, d.Percent.Get(), 1e-9)

	hourly(e, 1)
	snap := e.Snapshot()
	assert.Empty(t, snap.Active)
	require.Len(t, snap.History, 1)
	assert.Equal(t, d.ID, snap.History[0].ID)

	hourly(e, 5)
	assert.Len(t, e.Snapshot().History, 1)
}

func TestTimelineBoost(t *testing.T) {
	e := newTestEngine(1)
	_, err := e.OpenDemand(0, "bread", 40)
	require.NoError(t, err)

	hourly(e, 5)
	assert.Equal(t, 40.0, e.ActiveDemands()[0].Percent.Get())
	hourly(e, 1)
	assert.Equal(t, 50.0, e.ActiveDemands()[0].Percent.Get())
}

func TestNegligibleAndMetDemandsLeave(t *testing.T) {
	e := newTestEngine(1)
	_, err := e.OpenDemand(0, "bread", 0.5)
	require.NoError(t, err)
	met, err := e.OpenDemand(0, "medicine", 30)
	require.NoError(t, err)
	_, err = e.RecordSale(met.ID, "medicine", 90)
	require.NoError(t, err)

	hourly(e, 1)
	assert.Empty(t, e.ActiveDemands())
	assert.Len(t, e.Snapshot().History, 2)
}

func TestRecordSale(t *testing.T) {
	e := newTestEngine(1)
	d, err := e.OpenDemand(0, "bread", 40)
	require.NoError(t, err)

	got, err := e.RecordSale(d.ID, "bread", 100)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, got.MeetPercent.Get(), 1e-9)
	assert.InDelta(t, 30.0, got.Percent.Get(), 1e-9)

	// unknown id falls back to the product
	got, err = e.RecordSale(uuid.New(), "bread", 150)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.InDelta(t, 75.0, got.MeetPercent.Get(), 1e-9)
	assert.InDelta(t, 15.0, got.Percent.Get(), 1e-9)

	// oversupply is capped at the remaining demand
	got, err = e.RecordSale(d.ID, "bread", 10_000)
	require.NoError(t, err)
	assert.InDelta(t, 175.0, got.MeetPercent.Get(), 1e-9)
	assert.Equal(t, 0.0, got.Percent.Get())
}

func TestRecordSaleMissingDemand(t *testing.T) {
	e := newTestEngine(1)
	_, err := e.RecordSale(uuid.New(), "radios", 3)
	assert.ErrorIs(t, err, ErrDemandNotFound)
}

func TestOpenDemandUnknownProduct(t *testing.T) {
	e := newTestEngine(1)
	_, err := e.OpenDemand(0, "unobtainium", 10)
	assert.Error(t, err)
}

func TestActiveDemandsIsCopy(t *testing.T) {
	e := newTestEngine(1)
	_, err := e.OpenDemand(0, "shoes", 15)
	require.NoError(t, err)

	view := e.ActiveDemands()
	view[0].Percent = units.NewPercentage(99)
	assert.Equal(t, 15.0, e.ActiveDemands()[0].Percent.Get())
}

func TestDemandUnits(t *testing.T) {
	p, _ := Lookup("medicine")
	d := newDemand("medicine", 30, 0)
	assert.Equal(t, 90, d.Units(p))
	d.Percent.Set(10.1)
	assert.Equal(t, 31, d.Units(p))
}
