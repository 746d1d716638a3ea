// Package economy runs the macro economy: inflation, fuel price and the
// ledger of consumer demands factories produce against.
package economy

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/talgya/gridworld/internal/units"
)

// Industry groups products a factory is equipped to make.
type Industry uint8

const (
	Food Industry = iota
	Textile
	Metal
	Chemical
	Electronics
)

var industryNames = [...]string{"food", "textile", "metal", "chemical", "electronics"}

func (i Industry) String() string {
	if int(i) < len(industryNames) {
		return industryNames[i]
	}
	return fmt.Sprintf("industry(%d)", i)
}

// MarshalText encodes the industry by name.
func (i Industry) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// ParseIndustry resolves an industry name.
func ParseIndustry(name string) (Industry, error) {
	for i, n := range industryNames {
		if n == name {
			return Industry(i), nil
		}
	}
	return 0, fmt.Errorf("unknown industry %q", name)
}

// ProductID names a catalog product.
type ProductID string

// Product is one static catalog entry.
type Product struct {
	ID       ProductID `json:"id"`
	Industry Industry  `json:"industry"`

	// MinDemand is the percent a fresh demand opens at.
	MinDemand float64 `json:"min_demand"`

	// Timeline holds the five age thresholds in hours. The first boosts
	// demand, the next three fade it, the last is the deadline.
	Timeline [5]uint32 `json:"timeline"`

	BaseUnitCost    float64          `json:"base_unit_cost"` // excluding energy
	EnergyPerUnit   units.EnergyUnit `json:"energy_per_unit"`
	UnitsPerPercent float64          `json:"units_per_percent"`
}

// Catalog is the fixed product table.
var Catalog = []Product{
	{ID: "bread", Industry: Food, MinDemand: 40, Timeline: [5]uint32{6, 24, 48, 96, 168}, BaseUnitCost: 1.2, EnergyPerUnit: 2, UnitsPerPercent: 10},
	{ID: "canned-fish", Industry: Food, MinDemand: 25, Timeline: [5]uint32{12, 48, 96, 168, 336}, BaseUnitCost: 2.5, EnergyPerUnit: 3, UnitsPerPercent: 6},
	{ID: "clothing", Industry: Textile, MinDemand: 20, Timeline: [5]uint32{24, 72, 168, 336, 504}, BaseUnitCost: 6, EnergyPerUnit: 4, UnitsPerPercent: 4},
	{ID: "shoes", Industry: Textile, MinDemand: 15, Timeline: [5]uint32{24, 96, 192, 336, 504}, BaseUnitCost: 9, EnergyPerUnit: 5, UnitsPerPercent: 3},
	{ID: "tools", Industry: Metal, MinDemand: 15, Timeline: [5]uint32{24, 96, 240, 480, 720}, BaseUnitCost: 14, EnergyPerUnit: 8, UnitsPerPercent: 3},
	{ID: "steel-beams", Industry: Metal, MinDemand: 10, Timeline: [5]uint32{48, 120, 240, 480, 720}, BaseUnitCost: 30, EnergyPerUnit: 15, UnitsPerPercent: 2},
	{ID: "medicine", Industry: Chemical, MinDemand: 30, Timeline: [5]uint32{12, 36, 96, 192, 336}, BaseUnitCost: 12, EnergyPerUnit: 5, UnitsPerPercent: 3},
	{ID: "fertilizer", Industry: Chemical, MinDemand: 20, Timeline: [5]uint32{24, 72, 168, 336, 504}, BaseUnitCost: 4, EnergyPerUnit: 6, UnitsPerPercent: 5},
	{ID: "radios", Industry: Electronics, MinDemand: 8, Timeline: [5]uint32{48, 120, 240, 480, 720}, BaseUnitCost: 25, EnergyPerUnit: 12, UnitsPerPercent: 2},
}

// Lookup finds a product by ID.
func Lookup(id ProductID) (Product, bool) {
	return lo.Find(Catalog, func(p Product) bool { return p.ID == id })
}

// ProductsOf lists the catalog entries of one industry.
func ProductsOf(industry Industry) []Product {
	return lo.Filter(Catalog, func(p Product, _ int) bool { return p.Industry == industry })
}
