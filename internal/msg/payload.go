package msg

import (
	"github.com/google/uuid"

	"github.com/talgya/gridworld/internal/calendar"
	"github.com/talgya/gridworld/internal/economy"
	"github.com/talgya/gridworld/internal/units"
)

// Signal is broadcast by the host loop to every actor.
type Signal interface{ isSignal() }

// ClockTick announces a new tick after weather and economy have updated.
type ClockTick struct {
	Tick  uint64
	Date  calendar.Date
	Event calendar.Event
}

// Quit asks every actor to stop.
type Quit struct{}

func (ClockTick) isSignal() {}
func (Quit) isSignal()      {}

// Announcement is broadcast by the hub to every factory.
type Announcement interface{ isAnnouncement() }

// EnergyPrice is the hub's current price per energy unit.
type EnergyPrice struct {
	PerUnit float64
}

// FactoryBankrupt reports a factory leaving the market for good.
type FactoryBankrupt struct {
	Factory uuid.UUID
	Name    string
}

func (EnergyPrice) isAnnouncement()     {}
func (FactoryBankrupt) isAnnouncement() {}

// ToHub is sent by a factory to the hub.
type ToHub interface{ isToHub() }

// EnergyDemand asks to buy energy for a production run. Balance and
// Reserved are the factory's figures at the time of asking.
type EnergyDemand struct {
	Factory  uuid.UUID
	Run      uuid.UUID
	Units    units.EnergyUnit
	Balance  float64
	Reserved float64
}

// EnergyPayment settles delivered energy.
type EnergyPayment struct {
	Factory uuid.UUID
	Run     uuid.UUID
	Amount  float64
}

// SaleReport tells the hub a stock was sold against a demand.
type SaleReport struct {
	Factory uuid.UUID
	Demand  uuid.UUID
	Product economy.ProductID
	Units   int
	Revenue float64
}

// BankruptcyFiled is sent once by a factory that went bankrupt.
type BankruptcyFiled struct {
	Factory uuid.UUID
	Name    string
}

func (EnergyDemand) isToHub()    {}
func (EnergyPayment) isToHub()   {}
func (SaleReport) isToHub()      {}
func (BankruptcyFiled) isToHub() {}

// ToFactory is sent by the hub to one factory.
type ToFactory interface{ isToFactory() }

// EnergyAccepted confirms an energy sale; delivery follows later.
type EnergyAccepted struct {
	Run          uuid.UUID
	Units        units.EnergyUnit
	PricePerUnit float64
}

// EnergyRefused declines an energy demand.
type EnergyRefused struct {
	Run    uuid.UUID
	Reason string
}

// EnergyDelivered hands over energy sold earlier.
type EnergyDelivered struct {
	Run          uuid.UUID
	Units        units.EnergyUnit
	PricePerUnit float64
}

func (EnergyAccepted) isToFactory()  {}
func (EnergyRefused) isToFactory()   {}
func (EnergyDelivered) isToFactory() {}
