package console

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Crisis levels, most severe first.
const (
	Critical = "CRITICAL"
	Warning  = "WARNING"
	Watch    = "WATCH"
	Healthy  = "HEALTHY"
)

// Triage thresholds.
const (
	lowBalance        = 1000.0
	shortageWarning   = 3
	highInflation     = 10.0
	bankruptCritical  = 0.5
	fuelWatchFraction = 0.1
)

// GridHealth holds derived diagnostic signals computed from a snapshot.
type GridHealth struct {
	Solvent          int
	Bankrupt         int
	BankruptFraction float64
	LowBalance       int // solvent factories under lowBalance
	FuelFraction     float64
	Shortages        int
	Inflation        float64
	BankruptTrend    []int // oldest first, from history
	CrisisLevel      string
}

// Triage computes a GridHealth from the snapshot's data.
func Triage(snap *GridSnapshot) *GridHealth {
	h := &GridHealth{
		Shortages: snap.Plant.Shortages,
		Inflation: snap.Economy.Inflation,
	}

	for _, f := range snap.Factories {
		if f.Bankrupt {
			h.Bankrupt++
			continue
		}
		h.Solvent++
		if f.Balance < lowBalance {
			h.LowBalance++
		}
	}
	if total := h.Solvent + h.Bankrupt; total > 0 {
		h.BankruptFraction = float64(h.Bankrupt) / float64(total)
	}
	if snap.Plant.FuelCapacity > 0 {
		h.FuelFraction = float64(snap.Plant.Fuel) / float64(snap.Plant.FuelCapacity)
	}
	for _, row := range snap.History {
		h.BankruptTrend = append(h.BankruptTrend, row.FactoriesBankrupt)
	}

	stalled := snap.Plant.Fuel == 0 && snap.Plant.Stored == 0

	h.CrisisLevel = Healthy
	switch {
	case h.BankruptFraction > bankruptCritical:
		h.CrisisLevel = Critical
	case stalled && !snap.Plant.AwaitingFuel:
		h.CrisisLevel = Critical
	case h.Bankrupt > 0 && h.bankruptciesRising():
		h.CrisisLevel = Warning
	case h.Shortages >= shortageWarning:
		h.CrisisLevel = Warning
	case h.Inflation >= highInflation, h.LowBalance > 0, h.FuelFraction < fuelWatchFraction:
		h.CrisisLevel = Watch
	}
	return h
}

// bankruptciesRising reports a new bankruptcy within the history window.
// Without history every bankruptcy counts as new.
func (h *GridHealth) bankruptciesRising() bool {
	if len(h.BankruptTrend) < 2 {
		return true
	}
	return h.Bankrupt > h.BankruptTrend[0]
}

// Summary renders one line per concern for the terminal.
func Summary(snap *GridSnapshot, h *GridHealth) []string {
	state := "running"
	if snap.Status.Misc.Paused {
		state = "paused"
	}
	return []string{
		fmt.Sprintf("%s (%s), tick %s, %s at %s/tick",
			snap.Status.DateText, snap.Status.Season, humanize.Comma(int64(snap.Status.Tick)),
			state, snap.Status.Misc.Interval),
		fmt.Sprintf("plant: fuel %s/%s, stored %s, balance $%s, price %.2f",
			humanize.Comma(snap.Plant.Fuel), humanize.Comma(snap.Plant.FuelCapacity),
			humanize.Comma(snap.Plant.Stored), humanize.CommafWithDigits(snap.Plant.Balance, 2),
			snap.Plant.PricePerUnit),
		fmt.Sprintf("factories: %d solvent, %d bankrupt, %d low on funds",
			h.Solvent, h.Bankrupt, h.LowBalance),
		fmt.Sprintf("economy: inflation %.2f%% (%s), fuel $%.2f, %d open demands",
			snap.Economy.Inflation, snap.Economy.Trend, snap.Economy.FuelPrice, len(snap.Economy.Active)),
		"health: " + h.CrisisLevel,
	}
}
