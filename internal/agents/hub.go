// Package agents holds the simulation's concurrent actors: the energy
// hub with its power plant, and the factories that buy energy from it to
// produce against consumer demand.
package agents

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/gridworld/internal/economy"
	"github.com/talgya/gridworld/internal/jobs"
	"github.com/talgya/gridworld/internal/msg"
	"github.com/talgya/gridworld/internal/telemetry"
	"github.com/talgya/gridworld/internal/units"
)

// MailboxSize bounds every point-to-point channel.
const MailboxSize = 64

// Actor errors.
var (
	ErrUnknownFactory = errors.New("agents: unknown factory")
	ErrBankrupt       = errors.New("agents: factory is bankrupt")
)

// Market is the part of the economy actors trade against.
type Market interface {
	ActiveDemands() []economy.ProductDemand
	Inflation() float64
	FuelPrice() units.Money
	RecordSale(demand uuid.UUID, product economy.ProductID, qty int) (economy.ProductDemand, error)
}

type factoryLink struct {
	name    string
	mailbox *msg.Mailbox[msg.ToFactory]
	view    FactoryView
}

// Hub sells the power plant's energy to factories and relays hub-wide
// announcements.
type Hub struct {
	id       uuid.UUID
	plant    *PowerPlant
	market   Market
	jobs     *jobs.Scheduler
	log      telemetry.Logger
	inbox    *msg.Mailbox[msg.ToHub]
	clock    <-chan msg.Msg[msg.Signal]
	signals  msg.Publisher[msg.Signal]
	announce *msg.Broadcaster[msg.Announcement]

	mu        sync.RWMutex
	factories map[uuid.UUID]factoryLink
	order     []uuid.UUID

	tick uint64
}

// NewHub returns a hub owning plant. It subscribes to signals right away
// so no tick published before Run starts is missed.
func NewHub(plant *PowerPlant, market Market, signals msg.Publisher[msg.Signal], sink *telemetry.Sink) *Hub {
	id := uuid.New()
	return &Hub{
		id:        id,
		plant:     plant,
		market:    market,
		jobs:      jobs.NewScheduler(),
		log:       sink.For("hub"),
		inbox:     msg.NewMailbox[msg.ToHub](id, MailboxSize),
		clock:     signals.Subscribe(id),
		signals:   signals,
		announce:  msg.NewBroadcaster[msg.Announcement](MailboxSize),
		factories: make(map[uuid.UUID]factoryLink),
	}
}

// ID is the hub's PID.
func (h *Hub) ID() uuid.UUID { return h.id }

// Inbox is where factories send to the hub.
func (h *Hub) Inbox() *msg.Mailbox[msg.ToHub] { return h.inbox }

// Announcements is the hub-wide broadcast factories subscribe to.
func (h *Hub) Announcements() msg.Publisher[msg.Announcement] { return h.announce }

// Plant is a read-only view of the power plant.
func (h *Hub) Plant() PlantView { return h.plant }

// Jobs reports the hub's pending delayed effects.
func (h *Hub) Jobs() jobs.Pending { return h.jobs.Pending() }

// Register links a factory so the hub can address it.
func (h *Hub) Register(f *Factory) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.factories[f.ID()]; !ok {
		h.order = append(h.order, f.ID())
	}
	h.factories[f.ID()] = factoryLink{name: f.Name(), mailbox: f.Inbox(), view: f}
}

// Factories lists read-only views of every registered factory in
// registration order.
func (h *Hub) Factories() []FactoryView {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]FactoryView, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.factories[id].view)
	}
	return out
}

func (h *Hub) link(id uuid.UUID) (factoryLink, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	l, ok := h.factories[id]
	if !ok {
		return factoryLink{}, fmt.Errorf("factory %s: %w", id, ErrUnknownFactory)
	}
	return l, nil
}

// Run processes clock signals and factory messages until Quit or ctx is
// done.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-h.clock:
			if !ok {
				return nil
			}
			switch p := m.Payload.(type) {
			case msg.ClockTick:
				h.onTick(p)
			case msg.Quit:
				h.log.Info("quit received")
				return nil
			default:
				h.log.Warn("unrecognized signal %T", p)
			}
		case m, ok := <-h.inbox.C():
			if !ok {
				return nil
			}
			h.handle(m)
		}
	}
}

// Close releases the hub's channels.
func (h *Hub) Close() {
	h.signals.Unsubscribe(h.id)
	h.announce.Close()
	h.inbox.Close()
}

// DiscardJobs drops every pending delayed effect.
func (h *Hub) DiscardJobs() int { return h.jobs.Discard() }

func (h *Hub) onTick(t msg.ClockTick) {
	h.tick = t.Tick

	for _, j := range h.jobs.Due(t.Tick, t.Event) {
		h.fire(j)
	}

	if t.Event.AtLeastMinute() {
		h.plantTransactions(t.Tick)
	}

	if t.Event.AtLeastHour() {
		h.plant.produce()
		price := EnergyPriceFor(h.market.FuelPrice().Float64())
		h.plant.setPrice(price)
		for _, pid := range h.announce.Publish(h.id, msg.EnergyPrice{PerUnit: price}) {
			h.log.Warn("energy price not delivered to %s", h.nameOf(pid))
		}
	}
}

func (h *Hub) nameOf(pid uuid.UUID) string {
	if l, err := h.link(pid); err == nil {
		return l.name
	}
	return pid.String()
}

func (h *Hub) plantTransactions(tick uint64) {
	fuelPrice := h.market.FuelPrice().Float64()
	if order, needed, paid := h.plant.orderFuel(fuelPrice); needed {
		if !paid {
			h.log.Warn("cannot afford %d fuel at %s", order.units, units.NewMoney(order.cost))
		} else {
			h.jobs.Schedule(tick, jobs.Hourly, jobs.FuelDelay(order.units), jobs.FuelDelivery{Units: order.units})
			h.log.Info("ordered %d fuel for %s", order.units, units.NewMoney(order.cost))
		}
	}

	if h.plant.orderCapacity() {
		h.jobs.Schedule(tick, jobs.Daily, jobs.CapacityUpgradeDelay, jobs.CapacityIncrease{Units: CapacityUpgradeUnits})
		h.log.Info("ordered capacity upgrade of %s for %s", units.EnergyUnit(CapacityUpgradeUnits), units.NewMoney(CapacityUpgradeCost))
	}
}

func (h *Hub) fire(j jobs.Job) {
	switch e := j.Effect.(type) {
	case jobs.FuelDelivery:
		h.plant.receiveFuel(e.Units)
		h.log.Info("fuel delivered: %d units", e.Units)
	case jobs.CapacityIncrease:
		h.plant.addCapacity(e.Units)
		h.log.Info("production capacity raised by %s", e.Units)
	case jobs.EnergyTransfer:
		l, err := h.link(e.Factory)
		if err != nil {
			h.log.Error("energy transfer for run %s: %v", e.Run, err)
			return
		}
		err = l.mailbox.Send(h.id, msg.EnergyDelivered{Run: e.Run, Units: e.Units, PricePerUnit: e.PricePerUnit})
		if err != nil {
			h.log.Warn("energy delivery to %s failed: %v", l.name, err)
		}
	default:
		h.log.Error("hub cannot apply job effect %T", e)
	}
}

func (h *Hub) handle(m msg.Msg[msg.ToHub]) {
	switch p := m.Payload.(type) {
	case msg.EnergyDemand:
		h.onEnergyDemand(p)
	case msg.EnergyPayment:
		h.plant.credit(p.Amount)
	case msg.SaleReport:
		if _, err := h.market.RecordSale(p.Demand, p.Product, p.Units); err != nil {
			h.log.Error("sale of %d %s not recorded: %v", p.Units, p.Product, err)
		}
	case msg.BankruptcyFiled:
		h.log.Warn("%s left the market", p.Name)
		h.announce.Publish(h.id, msg.FactoryBankrupt{Factory: p.Factory, Name: p.Name})
	default:
		h.log.Warn("unrecognized message %T from %s", p, m.Sender)
	}
}

// EvaluateOffer decides whether a factory can pay for energy on top of
// what it has already committed. remaining is the balance left after
// both; the offer stands only while it stays positive.
func EvaluateOffer(balance, reserved, pricePerUnit float64, n units.EnergyUnit) (remaining float64, ok bool) {
	remaining = balance - (reserved + pricePerUnit*float64(n))
	return remaining, remaining > 0
}

func (h *Hub) onEnergyDemand(d msg.EnergyDemand) {
	l, err := h.link(d.Factory)
	if err != nil {
		h.log.Error("energy demand for run %s: %v", d.Run, err)
		return
	}

	refuse := func(reason string) {
		if err := l.mailbox.Send(h.id, msg.EnergyRefused{Run: d.Run, Reason: reason}); err != nil {
			h.log.Warn("refusal to %s not delivered: %v", l.name, err)
		}
	}

	if l.view != nil && l.view.Snapshot().Bankrupt {
		refuse(ErrBankrupt.Error())
		return
	}

	n := h.plant.available(d.Units)
	if n <= 0 {
		h.plant.recordShortage()
		h.log.Warn("energy shortage, %s refused %s", l.name, d.Units)
		refuse("shortage")
		return
	}

	price := EnergyPriceFor(h.market.FuelPrice().Float64())
	remaining, ok := EvaluateOffer(d.Balance, d.Reserved, price, n)
	if !ok {
		h.log.Info("%s cannot afford %s (short by %s)", l.name, n, units.NewMoney(-remaining))
		refuse("insufficient budget")
		return
	}

	if err := l.mailbox.Send(h.id, msg.EnergyAccepted{Run: d.Run, Units: n, PricePerUnit: price}); err != nil {
		h.log.Warn("acceptance to %s not delivered: %v", l.name, err)
		return
	}
	n = h.plant.reserve(n)
	h.jobs.Schedule(h.tick, jobs.Minutely, jobs.EnergyDelay(n), jobs.EnergyTransfer{
		Factory:      d.Factory,
		Run:          d.Run,
		Units:        n,
		PricePerUnit: price,
	})
}
