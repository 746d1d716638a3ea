package console

import "fmt"

// Actions a cycle may take.
const (
	ActionNone     = "none"
	ActionPause    = "pause"
	ActionSlowDown = "slow_down"
)

// CalmSpeed is the preset a warning slows the clock to.
const CalmSpeed = 3

// Decision is the outcome of one cycle's rules.
type Decision struct {
	Action    string `json:"action"`
	Speed     int    `json:"speed,omitempty"`
	Rationale string `json:"rationale"`
}

// Decide applies the rules to a triaged snapshot. A critical grid is
// paused for the operator. A warning slows a fast clock. The memory keeps
// the console from re-pausing a grid the operator has resumed.
func Decide(snap *GridSnapshot, h *GridHealth, mem *CycleMemory) Decision {
	switch h.CrisisLevel {
	case Critical:
		if snap.Status.Misc.Paused {
			return Decision{Action: ActionNone, Rationale: "critical, already paused"}
		}
		if mem.PausedAt(Critical) {
			return Decision{Action: ActionNone, Rationale: "critical, operator resumed after an earlier pause"}
		}
		return Decision{
			Action:    ActionPause,
			Rationale: fmt.Sprintf("critical: %d of %d factories bankrupt", h.Bankrupt, h.Bankrupt+h.Solvent),
		}
	case Warning:
		if snap.Status.Misc.SpeedIndex > CalmSpeed {
			return Decision{
				Action:    ActionSlowDown,
				Speed:     CalmSpeed,
				Rationale: fmt.Sprintf("warning: %d shortages, %d bankrupt", h.Shortages, h.Bankrupt),
			}
		}
	}
	return Decision{Action: ActionNone, Rationale: h.CrisisLevel}
}
