package agents

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/talgya/gridworld/internal/economy"
	"github.com/talgya/gridworld/internal/jobs"
	"github.com/talgya/gridworld/internal/msg"
	"github.com/talgya/gridworld/internal/telemetry"
	"github.com/talgya/gridworld/internal/units"
)

// Factory trading rules.
const (
	BudgetShare       = 0.75 // share of the balance one run may commit
	SaleMarkup        = 1.4
	PanelCost         = 2500.0
	PanelBuyThreshold = 15000.0
	PanelOutput       = 3.0 // energy per panel-hour at full brightness
)

// SunSource reports the current sun brightness, 0–100.
type SunSource interface {
	SunBrightness() float64
}

// ProductStock is a finished batch waiting for a buyer.
type ProductStock struct {
	Run      uuid.UUID         `json:"run"`
	Demand   uuid.UUID         `json:"demand"`
	Product  economy.ProductID `json:"product"`
	Units    int               `json:"units"`
	UnitCost float64           `json:"unit_cost"` // including energy
}

// FactoryState is a copy of a factory's record.
type FactoryState struct {
	ID              uuid.UUID           `json:"id"`
	Name            string              `json:"name"`
	Industry        economy.Industry    `json:"industry"`
	Portfolio       []economy.ProductID `json:"portfolio"`
	Balance         units.Money         `json:"balance"`
	AvailableEnergy units.EnergyUnit    `json:"available_energy"`
	ReservedCost    float64             `json:"reserved_cost"`
	Stocks          []ProductStock      `json:"stocks"`
	SolarPanels     int                 `json:"solar_panels"`
	PendingPanels   int                 `json:"pending_panels"`
	PendingRuns     int                 `json:"pending_runs"`
	EnergyPrice     float64             `json:"energy_price"` // last announced
	Bankrupt        bool                `json:"bankrupt"`
}

// FactoryView is read-only access to a factory.
type FactoryView interface {
	ID() uuid.UUID
	Name() string
	Snapshot() FactoryState
}

// run is a production run from acceptance of a demand to completion.
type run struct {
	id           uuid.UUID
	demand       uuid.UUID
	product      economy.Product
	units        int
	cost         float64 // excluding energy
	energyNeeded units.EnergyUnit
	energyBill   float64 // reserved once the hub accepts
	unitCost     float64 // including energy, set on delivery
	produced     int
}

// ProductionCost is the excluding-energy cost of n units under inflation.
func ProductionCost(n int, p economy.Product, inflation float64) float64 {
	return float64(n) * p.BaseUnitCost * (1 + inflation/100)
}

// Affordable reports whether a run costing cost fits the budget share of
// balance.
func Affordable(cost float64, balance units.Money) bool {
	return cost <= BudgetShare*balance.Float64()
}

// Factory produces goods against demands in its industry.
type Factory struct {
	id        uuid.UUID
	name      string
	industry  economy.Industry
	portfolio []economy.ProductID

	market Market
	sun    SunSource
	jobs   *jobs.Scheduler
	log    telemetry.Logger
	hub    *msg.Mailbox[msg.ToHub]
	inbox  *msg.Mailbox[msg.ToFactory]
	clock  <-chan msg.Msg[msg.Signal]
	news   <-chan msg.Msg[msg.Announcement]

	signals  msg.Publisher[msg.Signal]
	announce msg.Publisher[msg.Announcement]

	mu    sync.RWMutex
	state FactoryState
	runs  map[uuid.UUID]*run
	sold  map[uuid.UUID]float64 // demand → meet percent seen when sold against

	tick uint64
}

// NewFactory returns a factory trading with hub. It subscribes to the
// clock and the hub's announcements immediately.
func NewFactory(cfg FactoryConfig, hub *Hub, market Market, sun SunSource, signals msg.Publisher[msg.Signal], sink *telemetry.Sink) *Factory {
	id := uuid.New()
	f := &Factory{
		id:        id,
		name:      cfg.Name,
		industry:  cfg.Industry,
		portfolio: slices.Clone(cfg.Products),
		market:    market,
		sun:       sun,
		jobs:      jobs.NewScheduler(),
		log:       sink.For(cfg.Name),
		hub:       hub.Inbox(),
		inbox:     msg.NewMailbox[msg.ToFactory](id, MailboxSize),
		clock:     signals.Subscribe(id),
		news:      hub.Announcements().Subscribe(id),
		signals:   signals,
		announce:  hub.Announcements(),
		runs:      make(map[uuid.UUID]*run),
		sold:      make(map[uuid.UUID]float64),
	}
	f.state = FactoryState{
		ID:          id,
		Name:        cfg.Name,
		Industry:    cfg.Industry,
		Portfolio:   slices.Clone(cfg.Products),
		Balance:     units.NewMoney(cfg.Balance),
		SolarPanels: cfg.SolarPanels,
	}
	return f
}

func (f *Factory) ID() uuid.UUID { return f.id }

func (f *Factory) Name() string { return f.name }

// Inbox is where the hub sends to this factory.
func (f *Factory) Inbox() *msg.Mailbox[msg.ToFactory] { return f.inbox }

// Snapshot copies the factory's record.
func (f *Factory) Snapshot() FactoryState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s := f.state
	s.Portfolio = slices.Clone(f.state.Portfolio)
	s.Stocks = slices.Clone(f.state.Stocks)
	s.PendingRuns = len(f.runs)
	return s
}

// Bankrupt reports whether the factory has left the market.
func (f *Factory) Bankrupt() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state.Bankrupt
}

// Run processes signals, announcements and hub messages until Quit or
// ctx is done. A bankrupt factory keeps draining its channels.
func (f *Factory) Run(ctx context.Context) error {
	news := f.news
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-f.clock:
			if !ok {
				return nil
			}
			switch p := m.Payload.(type) {
			case msg.ClockTick:
				f.onTick(p)
			case msg.Quit:
				return nil
			default:
				f.log.Warn("unrecognized signal %T", p)
			}
		case m, ok := <-news:
			if !ok {
				news = nil
				continue
			}
			f.onAnnouncement(m)
		case m, ok := <-f.inbox.C():
			if !ok {
				return nil
			}
			f.handle(m)
		}
	}
}

// Close releases the factory's channels.
func (f *Factory) Close() {
	f.signals.Unsubscribe(f.id)
	f.announce.Unsubscribe(f.id)
	f.inbox.Close()
}

func (f *Factory) makes(id economy.ProductID) bool {
	p, ok := economy.Lookup(id)
	return ok && p.Industry == f.industry && slices.Contains(f.portfolio, id)
}

func (f *Factory) sendHub(payload msg.ToHub) bool {
	if err := f.hub.Send(f.id, payload); err != nil {
		f.log.Warn("message %T to hub failed: %v", payload, err)
		return false
	}
	return true
}

func (f *Factory) onTick(t msg.ClockTick) {
	f.tick = t.Tick

	due := f.jobs.Due(t.Tick, t.Event)
	if f.Bankrupt() {
		return
	}
	for _, j := range due {
		f.fire(j)
	}

	if t.Event.AtLeastHour() {
		f.collectSolar()
		f.scanDemands()
	}
	if t.Event.AtLeastDay() {
		f.sellStocks()
	}
	if t.Event.AtLeastMonth() {
		f.maybeBuyPanel()
	}
}

func (f *Factory) onAnnouncement(m msg.Msg[msg.Announcement]) {
	switch p := m.Payload.(type) {
	case msg.EnergyPrice:
		f.setEnergyPrice(p.PerUnit)
	case msg.FactoryBankrupt:
		if p.Factory != f.id {
			f.log.Info("competitor %s went bankrupt", p.Name)
		}
	default:
		f.log.Warn("unrecognized announcement %T", p)
	}
}

func (f *Factory) setEnergyPrice(perUnit float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.EnergyPrice = perUnit
}

func (f *Factory) handle(m msg.Msg[msg.ToFactory]) {
	if f.Bankrupt() {
		return
	}
	switch p := m.Payload.(type) {
	case msg.EnergyAccepted:
		f.onAccepted(p)
	case msg.EnergyRefused:
		f.onRefused(p)
	case msg.EnergyDelivered:
		f.onDelivered(p)
	default:
		f.log.Warn("unrecognized message %T from %s", p, m.Sender)
	}
}

func (f *Factory) fire(j jobs.Job) {
	switch e := j.Effect.(type) {
	case jobs.ProductionComplete:
		f.completeRun(e.Run)
	case jobs.PanelInstall:
		f.installPanels(e.Count)
		f.log.Info("installed %d solar panel(s)", e.Count)
	default:
		f.log.Error("factory cannot apply job effect %T", e)
	}
}

func (f *Factory) installPanels(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.SolarPanels += n
	f.state.PendingPanels -= n
}

func (f *Factory) collectSolar() {
	brightness := f.sun.SunBrightness()
	f.mu.Lock()
	defer f.mu.Unlock()
	gain := units.EnergyUnit(float64(f.state.SolarPanels) * brightness / 100 * PanelOutput)
	f.state.AvailableEnergy += gain
}

func (f *Factory) hasRunFor(demand uuid.UUID) bool {
	for _, r := range f.runs {
		if r.demand == demand {
			return true
		}
	}
	return false
}

// awaitingLedger reports whether d was sold against and the market has
// not applied the sale yet. Callers hold f.mu.
func (f *Factory) awaitingLedger(d economy.ProductDemand) bool {
	meet, ok := f.sold[d.ID]
	if !ok {
		return false
	}
	if d.MeetPercent.Get() != meet {
		delete(f.sold, d.ID)
		return false
	}
	return true
}

// forgetSales drops sale marks for demands that left the ledger. Callers
// hold f.mu.
func (f *Factory) forgetSales(active []economy.ProductDemand) {
	for id := range f.sold {
		if !slices.ContainsFunc(active, func(d economy.ProductDemand) bool { return d.ID == id }) {
			delete(f.sold, id)
		}
	}
}

// scanDemands opens a production run for every matching demand the
// factory can afford and asks the hub for the energy.
func (f *Factory) scanDemands() {
	active := f.market.ActiveDemands()
	demands := lo.Filter(active, func(d economy.ProductDemand, _ int) bool {
		return f.makes(d.Product)
	})

	for _, ask := range f.openRuns(active, demands, f.market.Inflation()) {
		if !f.sendHub(ask) {
			f.dropRun(ask.Run)
		}
	}
}

func (f *Factory) openRuns(active, demands []economy.ProductDemand, inflation float64) []msg.EnergyDemand {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgetSales(active)

	var asks []msg.EnergyDemand
	for _, d := range demands {
		if f.hasRunFor(d.ID) || f.awaitingLedger(d) ||
			slices.ContainsFunc(f.state.Stocks, func(s ProductStock) bool { return s.Demand == d.ID }) {
			continue
		}
		p, _ := economy.Lookup(d.Product)
		n := d.Units(p)
		if n <= 0 {
			continue
		}
		cost := ProductionCost(n, p, inflation)
		if !Affordable(cost, f.state.Balance) {
			continue
		}
		r := &run{
			id:           uuid.New(),
			demand:       d.ID,
			product:      p,
			units:        n,
			cost:         cost,
			energyNeeded: units.EnergyUnit(n) * p.EnergyPerUnit,
		}
		f.runs[r.id] = r
		f.state.ReservedCost += cost
		asks = append(asks, msg.EnergyDemand{
			Factory:  f.id,
			Run:      r.id,
			Units:    r.energyNeeded,
			Balance:  f.state.Balance.Float64(),
			Reserved: f.state.ReservedCost,
		})
	}
	return asks
}

// dropRun forgets a run and releases everything it reserved.
func (f *Factory) dropRun(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok {
		return
	}
	f.release(r.cost + r.energyBill)
	delete(f.runs, id)
}

// release lowers the reservation; callers hold f.mu.
func (f *Factory) release(amount float64) {
	f.state.ReservedCost = math.Max(0, f.state.ReservedCost-amount)
}

func (f *Factory) onAccepted(p msg.EnergyAccepted) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[p.Run]
	if !ok {
		f.log.Error("acceptance for unknown run %s", p.Run)
		return
	}
	r.energyBill = p.PricePerUnit * float64(p.Units)
	f.state.ReservedCost += r.energyBill
}

func (f *Factory) onRefused(p msg.EnergyRefused) {
	f.dropRun(p.Run)
	f.log.Info("energy refused for run %s: %s", p.Run, p.Reason)
}

// delivery is the outcome of settling one energy delivery.
type delivery struct {
	run        *run // nil when the run is unknown
	producible int
	short      bool
	owed       float64 // debited production and energy cost
	bill       float64
	bankrupt   bool
	balance    units.Money
}

func (f *Factory) onDelivered(p msg.EnergyDelivered) {
	out := f.settle(p)

	if out.bankrupt {
		f.log.Critical("bankrupt: cannot pay %s with %s", units.NewMoney(out.owed), out.balance)
		f.sendHub(msg.BankruptcyFiled{Factory: f.id, Name: f.name})
		return
	}
	if out.run == nil {
		f.log.Error("delivery for unknown run %s, paid %s", p.Run, units.NewMoney(out.bill))
		f.sendHub(msg.EnergyPayment{Factory: f.id, Run: p.Run, Amount: out.bill})
		return
	}

	r := out.run
	if out.short {
		f.log.Warn("energy shortfall on %s: producing %d of %d units", r.product.ID, out.producible, r.units)
	}
	f.sendHub(msg.EnergyPayment{Factory: f.id, Run: r.id, Amount: out.bill})
	if out.producible > 0 {
		f.jobs.Schedule(f.tick, jobs.Hourly, jobs.ProductionDelay(out.producible), jobs.ProductionComplete{Run: r.id})
	}
}

// settle books a delivery. Energy for an unknown run is still paid for.
func (f *Factory) settle(p msg.EnergyDelivered) delivery {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := delivery{bill: p.PricePerUnit * float64(p.Units)}
	f.state.AvailableEnergy += p.Units
	r, ok := f.runs[p.Run]

	var perUnit float64
	if ok {
		out.run = r
		out.producible = r.units
		if f.state.AvailableEnergy < r.energyNeeded {
			out.producible = int(f.state.AvailableEnergy / r.product.EnergyPerUnit)
			out.short = true
		}
		perUnit = r.cost / float64(r.units)
	}
	out.owed = perUnit*float64(out.producible) + out.bill

	if !f.state.Balance.Dec(out.owed) {
		f.state.Bankrupt = true
		out.bankrupt = true
		out.balance = f.state.Balance
		return out
	}
	if !ok {
		return out
	}

	f.state.AvailableEnergy -= units.EnergyUnit(out.producible) * r.product.EnergyPerUnit
	f.release(r.cost + r.energyBill)
	r.produced = out.producible
	if out.producible > 0 {
		r.unitCost = perUnit + float64(r.product.EnergyPerUnit)*p.PricePerUnit
	} else {
		delete(f.runs, r.id)
	}
	return out
}

func (f *Factory) completeRun(id uuid.UUID) {
	r, ok := f.stock(id)
	if !ok {
		f.log.Error("completion for unknown run %s", id)
		return
	}
	f.log.Info("produced %d %s", r.produced, r.product.ID)
	f.sellStocks()
}

// stock moves a finished run into the stock list.
func (f *Factory) stock(id uuid.UUID) (*run, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok {
		return nil, false
	}
	delete(f.runs, id)
	f.state.Stocks = append(f.state.Stocks, ProductStock{
		Run:      r.id,
		Demand:   r.demand,
		Product:  r.product.ID,
		Units:    r.produced,
		UnitCost: r.unitCost,
	})
	return r, true
}

// sellStocks sells every stock that still has a buyer. The matching
// demand is the run's own, or any open demand for the same product.
func (f *Factory) sellStocks() {
	for _, r := range f.takeSales(f.market.ActiveDemands()) {
		f.log.Info("sold %d %s for %s", r.Units, r.Product, units.NewMoney(r.Revenue))
		f.sendHub(r)
	}
}

func (f *Factory) takeSales(demands []economy.ProductDemand) []msg.SaleReport {
	f.mu.Lock()
	defer f.mu.Unlock()

	var reports []msg.SaleReport
	kept := f.state.Stocks[:0]
	for _, s := range f.state.Stocks {
		d, found := lo.Find(demands, func(d economy.ProductDemand) bool { return d.ID == s.Demand })
		if !found {
			d, found = lo.Find(demands, func(d economy.ProductDemand) bool { return d.Product == s.Product })
		}
		if !found {
			kept = append(kept, s)
			continue
		}
		revenue := float64(s.Units) * s.UnitCost * SaleMarkup
		f.state.Balance.Inc(revenue)
		f.sold[d.ID] = d.MeetPercent.Get()
		reports = append(reports, msg.SaleReport{
			Factory: f.id,
			Demand:  d.ID,
			Product: s.Product,
			Units:   s.Units,
			Revenue: revenue,
		})
	}
	f.state.Stocks = kept
	return reports
}

func (f *Factory) maybeBuyPanel() {
	if !f.payForPanel() {
		return
	}
	f.jobs.Schedule(f.tick, jobs.Daily, jobs.PanelInstallDelay, jobs.PanelInstall{Count: 1})
	f.log.Info("bought a solar panel for %s", units.NewMoney(PanelCost))
}

func (f *Factory) payForPanel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Balance.Float64() <= PanelBuyThreshold || !f.state.Balance.Dec(PanelCost) {
		return false
	}
	f.state.PendingPanels++
	return true
}

// DiscardJobs drops pending production and installation jobs.
func (f *Factory) DiscardJobs() int { return f.jobs.Discard() }
