package economy

import (
	"errors"

	"github.com/google/uuid"

	"github.com/talgya/gridworld/internal/units"
)

// ErrDemandNotFound is returned when a sale matches no active demand.
var ErrDemandNotFound = errors.New("economy: demand not found")

// Ledger limits.
const (
	NegligiblePercent = 1.0
	HistoryCapacity   = 50
	maxMeetPercent    = 200.0
)

// Timeline multipliers for the first four thresholds.
var timelineScale = [4]float64{1.25, 0.75, 0.50, 0.25}

// ProductDemand is an open consumer demand for one product.
type ProductDemand struct {
	ID          uuid.UUID              `json:"id"`
	Product     ProductID              `json:"product"`
	Percent     units.Percentage       `json:"percent"`
	Age         uint32                 `json:"age"` // hours
	MeetPercent units.Clamped[float64] `json:"meet_percent"`
	Opened      uint64                 `json:"opened"` // tick
}

func newDemand(product ProductID, percent float64, tick uint64) ProductDemand {
	return ProductDemand{
		ID:          uuid.New(),
		Product:     product,
		Percent:     units.NewPercentage(percent),
		MeetPercent: units.NewClamped(0, 0, maxMeetPercent),
		Opened:      tick,
	}
}

// Units is how many units would satisfy the remaining demand.
func (d ProductDemand) Units(p Product) int {
	return ceilUnits(d.Percent.Get() * p.UnitsPerPercent)
}

func ceilUnits(v float64) int {
	n := int(v)
	if float64(n) < v {
		n++
	}
	return n
}

// age advances the demand one hour and reports whether it should leave
// the ledger.
func (d *ProductDemand) age(p Product) (done bool) {
	d.Age++
	for i, threshold := range p.Timeline[:4] {
		if d.Age == threshold {
			d.Percent.Scale(timelineScale[i])
		}
	}
	return d.Age >= p.Timeline[4] ||
		d.Percent.Get() < NegligiblePercent ||
		d.MeetPercent.Get() >= 100
}

// applySale records qty units against the demand.
func (d *ProductDemand) applySale(p Product, qty int) {
	want := d.Percent.Get() * p.UnitsPerPercent
	fraction := 1.0
	if want > 0 {
		fraction = float64(qty) / want
	}
	if fraction > 1 {
		fraction = 1
	}
	d.MeetPercent.Add(fraction * 100)
	d.Percent.Scale(1 - fraction)
}

// historyModifier maps how well a product's past demands were met to a
// percent bonus or malus on the next one.
func historyModifier(meanMeet float64, any bool) float64 {
	switch {
	case !any:
		return 0
	case meanMeet < 25:
		return -10
	case meanMeet < 50:
		return -4
	case meanMeet < 80:
		return 10
	case meanMeet <= 100:
		return 3
	default:
		return -6
	}
}
