// Package weather evolves wind, clouds and sun from the calendar.
// The simulator only runs on hour-or-coarser ticks; nothing here changes
// mid-hour.
package weather

import (
	"sync"

	"github.com/talgya/gridworld/internal/units"
)

// Track and wind limits.
const (
	TrackWidth    = 24   // cells on the 1-D sky track
	MaxWindSpeed  = 40.0 // top of the wind scale
	CalmThreshold = 6.0  // below this a direction flip may happen
	CalmReset     = 2.0  // speed after a flip
	FlipOdds      = 10   // 1-in-N flip chance
	SpawnOdds     = 6    // flat 1-in-N spawn chance
)

// Direction is where the wind blows toward.
type Direction uint8

const (
	East Direction = iota // clouds drift toward higher positions
	West
)

func (d Direction) String() string {
	if d == West {
		return "west"
	}
	return "east"
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == East {
		return West
	}
	return East
}

// Wind is the current wind state.
type Wind struct {
	Speed     units.Clamped[float64] `json:"speed"`
	Direction Direction              `json:"direction"`
}

// NewWind returns a wind of the given speed and direction.
func NewWind(speed float64, dir Direction) Wind {
	return Wind{Speed: units.NewClamped(speed, 0, MaxWindSpeed), Direction: dir}
}

// Bracket is a named wind speed range.
type Bracket uint8

const (
	Faint Bracket = iota
	Mild
	Strong
	Typhoon
)

// BracketFor classifies a wind speed.
func BracketFor(speed float64) Bracket {
	switch {
	case speed < 8:
		return Faint
	case speed < 18:
		return Mild
	case speed < 30:
		return Strong
	default:
		return Typhoon
	}
}

// Divisor slows cloud movement in weak wind and speeds it in storms.
func (b Bracket) Divisor() float64 {
	switch b {
	case Faint:
		return 4
	case Mild:
		return 2
	case Strong:
		return 1
	default:
		return 0.5
	}
}

// Rank is 1 for Faint up to 4 for Typhoon.
func (b Bracket) Rank() int { return int(b) + 1 }

func (b Bracket) String() string {
	switch b {
	case Faint:
		return "faint"
	case Mild:
		return "mild"
	case Strong:
		return "strong"
	default:
		return "typhoon"
	}
}

// MarshalText encodes the bracket by name.
func (b Bracket) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// Environment is the shared weather record. The Simulator is its only
// writer; everyone else reads snapshots.
type Environment struct {
	mu     sync.RWMutex
	wind   Wind
	clouds []Cloud
	sun    Sun
	tick   uint64
}

// NewEnvironment returns a calm, cloudless, dark sky.
func NewEnvironment() *Environment {
	return &Environment{
		wind: NewWind(5, East),
		sun:  nightSun(),
	}
}

// Snapshot is a deep copy of the environment for presentation and actors.
type Snapshot struct {
	Tick    uint64  `json:"tick"`
	Wind    Wind    `json:"wind"`
	Bracket Bracket `json:"bracket"`
	Clouds  []Cloud `json:"clouds"`
	Sun     Sun     `json:"sun"`
}

// Snapshot copies the current state.
func (e *Environment) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	clouds := make([]Cloud, len(e.clouds))
	copy(clouds, e.clouds)
	return Snapshot{
		Tick:    e.tick,
		Wind:    e.wind,
		Bracket: BracketFor(e.wind.Speed.Get()),
		Clouds:  clouds,
		Sun:     e.sun,
	}
}

// SunBrightness returns the current brightness, 0–100.
func (e *Environment) SunBrightness() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sun.Brightness.Get()
}
