package jobs

import (
	"github.com/google/uuid"

	"github.com/talgya/gridworld/internal/units"
)

// Effect is what happens when a job comes due. The set of effects is
// closed; callers switch on the concrete type.
type Effect interface {
	isEffect()
}

// FuelDelivery tops up the power plant's fuel.
type FuelDelivery struct {
	Units int64 `json:"units"`
}

// CapacityIncrease raises the plant's hourly production capacity.
type CapacityIncrease struct {
	Units units.EnergyUnit `json:"units"`
}

// EnergyTransfer hands reserved energy to a factory.
type EnergyTransfer struct {
	Factory      uuid.UUID        `json:"factory"`
	Run          uuid.UUID        `json:"run"`
	Units        units.EnergyUnit `json:"units"`
	PricePerUnit float64          `json:"price_per_unit"`
}

// ProductionComplete finishes a factory's production run.
type ProductionComplete struct {
	Run uuid.UUID `json:"run"`
}

// PanelInstall adds solar panels to a factory.
type PanelInstall struct {
	Count int `json:"count"`
}

func (FuelDelivery) isEffect()       {}
func (CapacityIncrease) isEffect()   {}
func (EnergyTransfer) isEffect()     {}
func (ProductionComplete) isEffect() {}
func (PanelInstall) isEffect()       {}

// Delays, in periods of the granularity each effect is scheduled with.

// EnergyDelay is minutes until an energy transfer lands.
func EnergyDelay(u units.EnergyUnit) uint64 {
	if u <= 0 {
		return 0
	}
	return uint64(u / 100)
}

// FuelDelay is hours until a fuel order arrives.
func FuelDelay(fuel int64) uint64 {
	d := fuel / 100
	if d < 1 {
		return 1
	}
	return uint64(d)
}

// ProductionDelay is hours to produce n units.
func ProductionDelay(n int) uint64 {
	if n < 0 {
		n = 0
	}
	return uint64(n/20 + 1)
}

// CapacityUpgradeDelay is days until a capacity upgrade is online.
const CapacityUpgradeDelay uint64 = 3

// PanelInstallDelay is days until purchased panels produce.
const PanelInstallDelay uint64 = 2
