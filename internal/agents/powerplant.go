package agents

import (
	"sync"

	"github.com/talgya/gridworld/internal/units"
)

// Power plant defaults and trading rules.
const (
	DefaultFuel               = 500
	DefaultFuelCapacity       = 1000
	DefaultProductionCapacity = 120
	DefaultPlantBalance       = 20000.0

	EnergyPerFuel       = 2
	StorageLimit        = 2000
	EnergyMarkup        = 1.35
	FuelReorderFraction = 0.3

	CapacityUpgradeCost  = 8000.0
	CapacityUpgradeUnits = 40
	ShortageTrigger      = 5
)

// PowerPlantState is the plant's full record.
type PowerPlantState struct {
	Fuel               int64            `json:"fuel"`
	FuelCapacity       int64            `json:"fuel_capacity"`
	ProductionCapacity units.EnergyUnit `json:"production_capacity"`
	Stored             units.EnergyUnit `json:"stored"`
	Balance            units.Money      `json:"balance"`
	AwaitingFuel       bool             `json:"awaiting_fuel"`
	AwaitingCapacity   bool             `json:"awaiting_capacity"`
	Shortages          int              `json:"shortages"` // refusals since the last upgrade
	PricePerUnit       float64          `json:"price_per_unit"`
}

// PlantView is read-only access to the power plant.
type PlantView interface {
	Snapshot() PowerPlantState
}

// PowerPlant is owned by the hub. Only the hub's worker mutates it.
type PowerPlant struct {
	mu    sync.RWMutex
	state PowerPlantState
}

// NewPowerPlant returns a plant with the configured starting figures.
func NewPowerPlant(cfg PlantConfig) *PowerPlant {
	cfg = cfg.withDefaults()
	return &PowerPlant{state: PowerPlantState{
		Fuel:               units.NewClamped(cfg.Fuel, 0, cfg.FuelCapacity).Get(),
		FuelCapacity:       cfg.FuelCapacity,
		ProductionCapacity: cfg.ProductionCapacity,
		Balance:            units.NewMoney(cfg.Balance),
	}}
}

// Snapshot copies the plant state.
func (p *PowerPlant) Snapshot() PowerPlantState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// EnergyPriceFor is the selling price of one energy unit at a fuel price.
func EnergyPriceFor(fuelPrice float64) float64 {
	return fuelPrice / EnergyPerFuel * EnergyMarkup
}

// setPrice records the price the hub last announced.
func (p *PowerPlant) setPrice(price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.PricePerUnit = price
}

// fuelOrder is the outcome of a reorder check.
type fuelOrder struct {
	units int64
	cost  float64
}

// orderFuel buys enough fuel to fill the tank when it is running low.
// ok is false when no order was needed; paid is false when the plant
// could not afford it.
func (p *PowerPlant) orderFuel(fuelPrice float64) (order fuelOrder, ok, paid bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := &p.state
	if s.AwaitingFuel || float64(s.Fuel) >= FuelReorderFraction*float64(s.FuelCapacity) {
		return fuelOrder{}, false, false
	}
	order.units = s.FuelCapacity - s.Fuel
	order.cost = float64(order.units) * fuelPrice
	if !s.Balance.Dec(order.cost) {
		return order, true, false
	}
	s.AwaitingFuel = true
	return order, true, true
}

// orderCapacity buys a production upgrade once enough demand was turned
// away and the plant can comfortably afford it.
func (p *PowerPlant) orderCapacity() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := &p.state
	if s.AwaitingCapacity || s.Shortages < ShortageTrigger || !s.Balance.Covers(2*CapacityUpgradeCost) {
		return false
	}
	if !s.Balance.Dec(CapacityUpgradeCost) {
		return false
	}
	s.AwaitingCapacity = true
	s.Shortages = 0
	return true
}

func (p *PowerPlant) receiveFuel(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Fuel = units.NewClamped(p.state.Fuel+n, 0, p.state.FuelCapacity).Get()
	p.state.AwaitingFuel = false
}

func (p *PowerPlant) addCapacity(n units.EnergyUnit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.ProductionCapacity += n
	p.state.AwaitingCapacity = false
}

// produce burns fuel into stored energy for one hour and returns the
// energy added.
func (p *PowerPlant) produce() units.EnergyUnit {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := &p.state
	room := StorageLimit - s.Stored
	out := units.MinEnergy(s.ProductionCapacity, units.EnergyUnit(s.Fuel*EnergyPerFuel))
	out = units.MinEnergy(out, room).Clamp(0, StorageLimit)
	burned := (int64(out) + EnergyPerFuel - 1) / EnergyPerFuel
	s.Fuel -= burned
	if s.Fuel < 0 {
		s.Fuel = 0
	}
	s.Stored += out
	return out
}

// reserve takes up to n units out of storage and returns what it took.
func (p *PowerPlant) reserve(n units.EnergyUnit) units.EnergyUnit {
	p.mu.Lock()
	defer p.mu.Unlock()
	got := units.MinEnergy(n, p.state.Stored).Clamp(0, p.state.Stored)
	p.state.Stored -= got
	return got
}

// available is how much of n storage could cover right now.
func (p *PowerPlant) available(n units.EnergyUnit) units.EnergyUnit {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return units.MinEnergy(n, p.state.Stored).Clamp(0, StorageLimit)
}

func (p *PowerPlant) recordShortage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Shortages++
}

func (p *PowerPlant) credit(amount float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Balance.Inc(amount)
}
