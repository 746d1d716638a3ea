package economy

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/talgya/gridworld/internal/calendar"
	"github.com/talgya/gridworld/internal/ring"
	"github.com/talgya/gridworld/internal/units"
)

// Macro bounds.
const (
	MinInflation     = -3.0
	MaxInflation     = 12.0
	StartInflation   = 2.0
	DirectionOdds    = 8 // 1-in-N flip per month
	BaseFuelPrice    = 2.0
	MinFuelPrice     = 0.8
	MaxFuelPrice     = 6.0
	PressurePerPoint = 4.0
)

// Trend is the drift of the inflation walk.
type Trend int8

const (
	Up Trend = iota
	Down
)

func (t Trend) String() string {
	if t == Down {
		return "down"
	}
	return "up"
}

// MarshalText encodes the trend by name.
func (t Trend) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Engine is the economy state and its update rules. It runs inline in
// the host loop; actors only read it, except for RecordSale.
type Engine struct {
	mu        sync.RWMutex
	rng       *rand.Rand
	inflation units.Clamped[float64]
	trend     Trend
	fuelPrice units.Money
	active    []ProductDemand
	history   *ring.Window[ProductDemand]
}

// NewEngine returns an economy at the starting inflation with an empty
// ledger.
func NewEngine(rng *rand.Rand) *Engine {
	e := &Engine{
		rng:       rng,
		inflation: units.NewClamped(StartInflation, MinInflation, MaxInflation),
		trend:     Up,
		history:   ring.NewWindow[ProductDemand](HistoryCapacity),
	}
	e.fuelPrice = units.NewMoney(FuelPriceFor(StartInflation, 0))
	return e
}

// FuelPriceFor derives the fuel price from inflation. noise in [-1, 1]
// moves the price inside a band proportional to |inflation|.
func FuelPriceFor(inflation, noise float64) float64 {
	price := BaseFuelPrice*(1+inflation/100) + noise*math.Abs(inflation)*0.05
	return units.NewClamped(price, MinFuelPrice, MaxFuelPrice).Get()
}

// Update advances the economy for one clock event.
func (e *Engine) Update(tick uint64, d calendar.Date, ev calendar.Event) {
	if !ev.AtLeastMinute() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if ev.AtLeastMonth() {
		e.macroStep()
		slog.Debug("economy macro step",
			"date", d.String(),
			"inflation", e.inflation.Get(),
			"trend", e.trend.String(),
			"fuel_price", e.fuelPrice.String(),
		)
	}
	if ev.AtLeastDay() {
		e.generateDemands(tick)
	}
	if ev.AtLeastHour() {
		e.ageDemands()
	}
}

func (e *Engine) macroStep() {
	if e.rng.Intn(DirectionOdds) == 0 {
		if e.trend == Up {
			e.trend = Down
		} else {
			e.trend = Up
		}
	}

	low, high := -0.3, 0.6
	if e.trend == Down {
		low, high = -0.6, 0.3
	}
	e.inflation.Add(low + e.rng.Float64()*(high-low))

	noise := e.rng.Float64()*2 - 1
	e.fuelPrice = units.NewMoney(FuelPriceFor(e.inflation.Get(), noise))
}

func (e *Engine) generateDemands(tick uint64) {
	inflation := e.inflation.Get()
	pressure := inflation * PressurePerPoint

	for _, p := range Catalog {
		open := false
		switch {
		case inflation < 0:
			n := int(math.Max(1, math.Round(100/p.MinDemand)))
			open = e.rng.Intn(n) == 0
		case pressure < p.MinDemand:
			open = true
		}
		if !open {
			continue
		}
		percent := p.MinDemand + e.modifier(p.ID)
		e.active = append(e.active, newDemand(p.ID, percent, tick))
	}
}

// modifier looks at the same product's archived demands only.
func (e *Engine) modifier(id ProductID) float64 {
	past := lo.Filter(e.history.Items(), func(d ProductDemand, _ int) bool { return d.Product == id })
	if len(past) == 0 {
		return historyModifier(0, false)
	}
	total := lo.SumBy(past, func(d ProductDemand) float64 { return d.MeetPercent.Get() })
	return historyModifier(total/float64(len(past)), true)
}

func (e *Engine) ageDemands() {
	kept := e.active[:0]
	for _, d := range e.active {
		p, ok := Lookup(d.Product)
		if !ok {
			continue
		}
		if d.age(p) {
			e.history.Push(d)
			continue
		}
		kept = append(kept, d)
	}
	e.active = kept
}

// OpenDemand adds a demand outside the daily generation pass.
func (e *Engine) OpenDemand(tick uint64, id ProductID, percent float64) (ProductDemand, error) {
	if _, ok := Lookup(id); !ok {
		return ProductDemand{}, fmt.Errorf("open demand for %q: unknown product", id)
	}
	d := newDemand(id, percent, tick)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = append(e.active, d)
	return d, nil
}

// RecordSale applies a sale to the demand it was made for, falling back
// to the first open demand for the same product. It returns the updated
// demand.
func (e *Engine) RecordSale(demandID uuid.UUID, product ProductID, qty int) (ProductDemand, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := -1
	for i := range e.active {
		if e.active[i].ID == demandID {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i := range e.active {
			if e.active[i].Product == product {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return ProductDemand{}, fmt.Errorf("sale of %d %s: %w", qty, product, ErrDemandNotFound)
	}

	p, ok := Lookup(e.active[idx].Product)
	if !ok {
		return ProductDemand{}, fmt.Errorf("sale of %d %s: %w", qty, product, ErrDemandNotFound)
	}
	e.active[idx].applySale(p, qty)
	return e.active[idx], nil
}

// ActiveDemands returns a copy of the open ledger.
func (e *Engine) ActiveDemands() []ProductDemand {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]ProductDemand, len(e.active))
	copy(out, e.active)
	return out
}

// Inflation returns the current inflation rate in percent.
func (e *Engine) Inflation() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.inflation.Get()
}

// FuelPrice returns the current price of one fuel unit.
func (e *Engine) FuelPrice() units.Money {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fuelPrice
}

// State is a read-only copy of the economy.
type State struct {
	Inflation float64         `json:"inflation"`
	Trend     Trend           `json:"trend"`
	FuelPrice units.Money     `json:"fuel_price"`
	Active    []ProductDemand `json:"active"`
	History   []ProductDemand `json:"history"`
}

// Snapshot copies the full economy state.
func (e *Engine) Snapshot() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	active := make([]ProductDemand, len(e.active))
	copy(active, e.active)
	return State{
		Inflation: e.inflation.Get(),
		Trend:     e.trend,
		FuelPrice: e.fuelPrice,
		Active:    active,
		History:   e.history.Items(),
	}
}
