// Actor spawning: builds the hub, its power plant and the factories from
// configuration.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/samber/lo"

	"github.com/talgya/gridworld/internal/economy"
	"github.com/talgya/gridworld/internal/msg"
	"github.com/talgya/gridworld/internal/telemetry"
	"github.com/talgya/gridworld/internal/units"
)

// PlantConfig holds the plant's starting figures. Zero fields take the
// defaults.
type PlantConfig struct {
	Fuel               int64
	FuelCapacity       int64
	ProductionCapacity units.EnergyUnit
	Balance            float64
}

func (c PlantConfig) withDefaults() PlantConfig {
	if c.FuelCapacity <= 0 {
		c.FuelCapacity = DefaultFuelCapacity
	}
	if c.Fuel <= 0 {
		c.Fuel = DefaultFuel
	}
	if c.ProductionCapacity <= 0 {
		c.ProductionCapacity = DefaultProductionCapacity
	}
	if c.Balance <= 0 {
		c.Balance = DefaultPlantBalance
	}
	return c
}

// FactoryConfig describes one factory. An empty Products list means the
// whole industry; an empty Name is generated.
type FactoryConfig struct {
	Name        string
	Industry    economy.Industry
	Balance     float64
	Products    []economy.ProductID
	SolarPanels int
}

// Validate checks that every product exists and belongs to the industry.
func (c FactoryConfig) Validate() error {
	for _, id := range c.Products {
		p, ok := economy.Lookup(id)
		if !ok {
			return fmt.Errorf("factory %q: unknown product %q", c.Name, id)
		}
		if p.Industry != c.Industry {
			return fmt.Errorf("factory %q: product %q is %s, not %s", c.Name, id, p.Industry, c.Industry)
		}
	}
	if c.Balance < 0 {
		return fmt.Errorf("factory %q: negative balance", c.Name)
	}
	if c.SolarPanels < 0 {
		return fmt.Errorf("factory %q: negative solar panels", c.Name)
	}
	return nil
}

// Spawner creates the actor graph for a simulation.
type Spawner struct {
	rng     *rand.Rand
	market  Market
	sun     SunSource
	signals msg.Publisher[msg.Signal]
	sink    *telemetry.Sink
}

// NewSpawner returns a spawner wiring actors to the given collaborators.
func NewSpawner(rng *rand.Rand, market Market, sun SunSource, signals msg.Publisher[msg.Signal], sink *telemetry.Sink) *Spawner {
	return &Spawner{rng: rng, market: market, sun: sun, signals: signals, sink: sink}
}

// Spawn builds the hub and one factory per config, registered with the
// hub in order.
func (s *Spawner) Spawn(plant PlantConfig, factories []FactoryConfig) (*Hub, []*Factory, error) {
	hub := NewHub(NewPowerPlant(plant), s.market, s.signals, s.sink)

	used := make(map[string]bool, len(factories))
	out := make([]*Factory, 0, len(factories))
	for _, cfg := range factories {
		if len(cfg.Products) == 0 {
			cfg.Products = lo.Map(economy.ProductsOf(cfg.Industry), func(p economy.Product, _ int) economy.ProductID { return p.ID })
		}
		if cfg.Name == "" {
			cfg.Name = s.generateName(cfg.Industry, used)
		}
		if err := cfg.Validate(); err != nil {
			hub.Close()
			for _, f := range out {
				f.Close()
			}
			return nil, nil, err
		}
		used[cfg.Name] = true

		f := NewFactory(cfg, hub, s.market, s.sun, s.signals, s.sink)
		hub.Register(f)
		out = append(out, f)
	}
	return hub, out, nil
}

func (s *Spawner) generateName(industry economy.Industry, used map[string]bool) string {
	var name string
	for range 2 * len(familyNames) {
		name = fmt.Sprintf("%s %s Works", familyNames[s.rng.Intn(len(familyNames))], industryTitle(industry))
		if !used[name] {
			return name
		}
	}
	return fmt.Sprintf("%s #%d", name, len(used)+1)
}

func industryTitle(i economy.Industry) string {
	name := []byte(i.String())
	if len(name) > 0 && name[0] >= 'a' && name[0] <= 'z' {
		name[0] -= 'a' - 'A'
	}
	return string(name)
}

// DefaultFactories is the roster used when configuration names none.
func DefaultFactories() []FactoryConfig {
	return []FactoryConfig{
		{Name: "Millward Bakery", Industry: economy.Food, Balance: 6000, Products: []economy.ProductID{"bread"}},
		{Name: "Deepwell Cannery", Industry: economy.Food, Balance: 5000, Products: []economy.ProductID{"canned-fish"}},
		{Name: "Thatcher Textiles", Industry: economy.Textile, Balance: 8000, SolarPanels: 1},
		{Name: "Redforge Steel", Industry: economy.Metal, Balance: 15000, Products: []economy.ProductID{"tools", "steel-beams"}},
		{Name: "Caldwell Chemicals", Industry: economy.Chemical, Balance: 12000, SolarPanels: 2},
		{Name: "Brightwater Radio", Industry: economy.Electronics, Balance: 10000},
	}
}

var familyNames = []string{
	"Voss", "Thornwood", "Blackwood", "Ashford", "Ironhand", "Dunmore",
	"Greenvale", "Stormcrow", "Hearthstone", "Millward", "Copperfield",
	"Ravenmoor", "Silverdale", "Stoneheart", "Deepwell", "Brightwater",
	"Redforge", "Windholm", "Goldhaven", "Riverstone", "Steelworth",
	"Embercroft", "Holloway", "Farrow", "Thatcher", "Caldwell", "Mercer",
}
