package weather

// CloudSize buckets clouds by mass.
type CloudSize uint8

const (
	Small CloudSize = iota
	Medium
	Big
)

// Speed is the base drift in cells per update before the wind divisor.
func (s CloudSize) Speed() float64 {
	switch s {
	case Small:
		return 1.0
	case Medium:
		return 0.66
	default:
		return 0.33
	}
}

// Mass weights a cloud for clustering.
func (s CloudSize) Mass() float64 {
	return float64(s) + 1
}

// Occlusion is how much brightness the cloud takes from the sun.
func (s CloudSize) Occlusion() float64 {
	switch s {
	case Small:
		return 10
	case Medium:
		return 25
	default:
		return 40
	}
}

func (s CloudSize) String() string {
	switch s {
	case Small:
		return "small"
	case Medium:
		return "medium"
	default:
		return "big"
	}
}

// MarshalText encodes the size by name.
func (s CloudSize) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Cloud drifts along the sky track until it leaves it.
type Cloud struct {
	Size     CloudSize `json:"size"`
	Position float64   `json:"position"`
	Variant  int       `json:"variant"` // rendering hint only
}

// Cell returns the track cell the cloud occupies.
func (c Cloud) Cell() int { return int(c.Position) }

// MoveClouds drifts every cloud downwind and drops the ones that would
// leave the track. The input slice is not modified.
func MoveClouds(clouds []Cloud, dir Direction, bracket Bracket) []Cloud {
	out := make([]Cloud, 0, len(clouds))
	for _, c := range clouds {
		delta := c.Size.Speed() / bracket.Divisor()
		if dir == West {
			delta = -delta
		}
		next := c.Position + delta
		if next < 0 || next >= TrackWidth {
			continue
		}
		c.Position = next
		out = append(out, c)
	}
	return out
}

// upwindCells returns the edge cell clouds enter from and its neighbour.
func upwindCells(dir Direction) (edge, neighbour int) {
	if dir == West {
		return TrackWidth - 1, TrackWidth - 2
	}
	return 0, 1
}

// SpawnChance is the probability that a new cloud forms at the upwind
// edge this update. A crowded edge clusters: the neighbour cell's mass
// raises the chance, scaled by the month and damped by the wind bracket.
func SpawnChance(clouds []Cloud, dir Direction, bracket Bracket, cloudForming float64) float64 {
	edge, neighbour := upwindCells(dir)
	atEdge := 0
	mass := 0.0
	for _, c := range clouds {
		switch c.Cell() {
		case edge:
			atEdge++
		case neighbour:
			mass += c.Size.Mass()
		}
	}
	if atEdge < 2 {
		return 1.0 / SpawnOdds
	}
	chance := (0.25 + 0.05*mass) * cloudForming / float64(bracket.Rank())
	if chance > 0.9 {
		chance = 0.9
	}
	return chance
}

// spawnPosition is where a new cloud enters the track.
func spawnPosition(dir Direction) float64 {
	edge, _ := upwindCells(dir)
	return float64(edge)
}
