// Package calendar turns the monotonic tick counter into a simplified date
// and classifies the most significant change per tick.
//
// The calendar is deliberately not real: every month has 30 days and every
// year has 12 months. One tick is one sim-minute.
package calendar

import "fmt"

// Tick radix.
const (
	TicksPerHour  = 60
	TicksPerDay   = 1440   // 24 × 60
	TicksPerMonth = 43200  // 30 days
	TicksPerYear  = 518400 // 12 months
)

// Date is a decoded tick. It is never mutated, only replaced.
type Date struct {
	Minute int    `json:"minute"` // 0–59
	Hour   int    `json:"hour"`   // 0–23
	Day    int    `json:"day"`    // 1–30
	Month  int    `json:"month"`  // 1–12
	Year   uint64 `json:"year"`
}

// FromTick decodes a tick counter into a Date.
func FromTick(tick uint64) Date {
	return Date{
		Minute: int(tick % 60),
		Hour:   int((tick / TicksPerHour) % 24),
		Day:    int((tick/TicksPerDay)%30) + 1,
		Month:  int((tick/TicksPerMonth)%12) + 1,
		Year:   tick / TicksPerYear,
	}
}

// String renders the date as "Y3 M04 D12 07:05".
func (d Date) String() string {
	return fmt.Sprintf("Y%d M%02d D%02d %02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute)
}

// Season returns the quarter of the year the date falls in.
func (d Date) Season() string {
	return SeasonName(uint8((d.Month - 1) / 3))
}

// SeasonName returns a human-readable season name.
func SeasonName(season uint8) string {
	switch season {
	case 0:
		return "Winter"
	case 1:
		return "Spring"
	case 2:
		return "Summer"
	case 3:
		return "Autumn"
	default:
		return "Unknown"
	}
}
