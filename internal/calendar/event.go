package calendar

// Event is the most significant change a tick produced.
type Event uint8

// Ordered from least to most significant. Paused sits below everything.
const (
	Paused Event = iota
	NothingUnusual
	HourChange
	DayChange
	MonthChange
	YearChange
)

// Classify compares prev and next field by field in significance order and
// reports the first field that differs.
func Classify(prev, next Date) Event {
	switch {
	case prev.Year != next.Year:
		return YearChange
	case prev.Month != next.Month:
		return MonthChange
	case prev.Day != next.Day:
		return DayChange
	case prev.Hour != next.Hour:
		return HourChange
	default:
		return NothingUnusual
	}
}

// AtLeastMinute is true for every tick that actually advanced the clock.
func (e Event) AtLeastMinute() bool { return e >= NothingUnusual }

// AtLeastHour is true for hour changes or coarser.
func (e Event) AtLeastHour() bool { return e >= HourChange }

// AtLeastDay is true for day changes or coarser.
func (e Event) AtLeastDay() bool { return e >= DayChange }

// AtLeastMonth is true for month changes or coarser.
func (e Event) AtLeastMonth() bool { return e >= MonthChange }

// AtLeastYear is true only for year changes.
func (e Event) AtLeastYear() bool { return e >= YearChange }

func (e Event) String() string {
	switch e {
	case Paused:
		return "paused"
	case NothingUnusual:
		return "minute"
	case HourChange:
		return "hour"
	case DayChange:
		return "day"
	case MonthChange:
		return "month"
	case YearChange:
		return "year"
	default:
		return "unknown"
	}
}

// MarshalText lets events appear by name in JSON snapshots.
func (e Event) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}
