package weather

import (
	"math"

	"github.com/talgya/gridworld/internal/calendar"
	"github.com/talgya/gridworld/internal/units"
)

// SunStage is where the sun is in its daily arc.
type SunStage uint8

const (
	Night SunStage = iota
	Rising
	Zenith
	Setting
)

func (s SunStage) String() string {
	switch s {
	case Rising:
		return "rising"
	case Zenith:
		return "zenith"
	case Setting:
		return "setting"
	default:
		return "night"
	}
}

// MarshalText encodes the stage by name.
func (s SunStage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Brightness bands before seasonal scaling.
const (
	BrightnessNone   = 0.0
	BrightnessWeak   = 40.0
	BrightnessNormal = 70.0
	BrightnessStrong = 100.0
)

// Sun is recomputed wholesale every hour.
type Sun struct {
	Position   int              `json:"position"` // -1 when parked below the horizon
	Brightness units.Percentage `json:"brightness"`
	Stage      SunStage         `json:"stage"`
}

func nightSun() Sun {
	return Sun{Position: -1, Brightness: units.NewPercentage(BrightnessNone), Stage: Night}
}

// ComputeSun places the sun for the given hour and month and dims it by
// any clouds sharing its cell.
func ComputeSun(hour int, m calendar.MonthData, clouds []Cloud) Sun {
	if hour < m.DayStart || hour >= m.DayEnd {
		return nightSun()
	}

	daylight := m.Daylight()
	offset := (TrackWidth - daylight) / 2
	if offset < 0 {
		offset = 0
	}
	pos := TrackWidth - 1 - (offset + hour - m.DayStart)
	if pos < 0 {
		pos = 0
	}

	noon := float64(m.DayStart+m.DayEnd) / 2
	dist := math.Abs(float64(hour) - noon)
	window := float64(daylight) / 6

	var band float64
	switch {
	case dist <= window:
		band = BrightnessStrong
	case dist <= 2*window:
		band = BrightnessNormal
	default:
		band = BrightnessWeak
	}

	stage := Zenith
	if dist > window {
		if float64(hour) < noon {
			stage = Rising
		} else {
			stage = Setting
		}
	}

	brightness := band * m.SunshineFactor
	for _, c := range clouds {
		if c.Cell() == pos {
			brightness -= c.Size.Occlusion()
		}
	}

	return Sun{Position: pos, Brightness: units.NewPercentage(brightness), Stage: stage}
}
