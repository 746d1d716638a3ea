package units

import "github.com/dustin/go-humanize"

// EnergyUnit counts whole units of electrical energy. It has no bounds of
// its own; consumers clamp against what is actually available.
type EnergyUnit int64

// Clamp returns e limited to [lo, hi].
func (e EnergyUnit) Clamp(lo, hi EnergyUnit) EnergyUnit {
	return clamp(e, lo, hi)
}

// String renders the amount with thousands separators and a unit suffix.
func (e EnergyUnit) String() string {
	return humanize.Comma(int64(e)) + " EU"
}

// MinEnergy returns the smaller of a and b.
func MinEnergy(a, b EnergyUnit) EnergyUnit {
	if a < b {
		return a
	}
	return b
}
