package weather

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/gridworld/internal/calendar"
	"github.com/talgya/gridworld/internal/units"
)

// Simulator advances an Environment from calendar ticks.
type Simulator struct {
	env   *Environment
	rng   *rand.Rand
	noise opensimplex.Noise
}

// NewSimulator returns a simulator writing into env. The noise field that
// shapes wind gusts is seeded from seed.
func NewSimulator(env *Environment, rng *rand.Rand, seed int64) *Simulator {
	return &Simulator{
		env:   env,
		rng:   rng,
		noise: opensimplex.New(seed),
	}
}

// Environment returns the record the simulator writes.
func (s *Simulator) Environment() *Environment { return s.env }

// Update evolves the weather for one tick. Mid-hour ticks are ignored.
func (s *Simulator) Update(tick uint64, d calendar.Date, ev calendar.Event) {
	if !ev.AtLeastHour() {
		return
	}
	month := calendar.MonthInfo(d.Month)

	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if d.Hour%2 == 0 {
		sample := s.gust(tick)
		s.env.wind.Speed.Set(WindStep(s.env.wind.Speed.Get(), sample, month.WindspeedFactor))
	}
	if d.Hour%6 == 0 && s.env.wind.Speed.Get() < CalmThreshold && s.rng.Intn(FlipOdds) == 0 {
		s.env.wind.Direction = s.env.wind.Direction.Flip()
		s.env.wind.Speed.Set(CalmReset)
	}

	bracket := BracketFor(s.env.wind.Speed.Get())
	s.env.clouds = MoveClouds(s.env.clouds, s.env.wind.Direction, bracket)
	if s.rng.Float64() < SpawnChance(s.env.clouds, s.env.wind.Direction, bracket, month.CloudFormingFactor) {
		s.env.clouds = append(s.env.clouds, Cloud{
			Size:     CloudSize(s.rng.Intn(3)),
			Position: spawnPosition(s.env.wind.Direction),
			Variant:  s.rng.Intn(4),
		})
	}

	s.env.sun = ComputeSun(d.Hour, month, s.env.clouds)
	s.env.tick = tick
}

// gust blends the coherent noise field with a fresh draw, giving a value
// in [-1, 1] that drifts hour to hour instead of jumping.
func (s *Simulator) gust(tick uint64) float64 {
	hours := float64(tick / calendar.TicksPerHour)
	n := s.noise.Eval2(hours*0.31, 0.5)
	sample := 0.5*n + 0.5*(s.rng.Float64()*2-1)
	return units.NewClamped(sample, -1, 1).Get()
}

// WindStep applies one bounded random-walk step. sample in [-1, 1] picks
// the step inside [-down, +up]; down widens near the top of the scale so
// storms do not persist. The step is scaled by the month's wind factor
// and the result clamped to [0, MaxWindSpeed].
func WindStep(speed, sample, monthFactor float64) float64 {
	const up, down, stormDown = 3.0, 3.0, 6.0
	var step float64
	if sample >= 0 {
		step = sample * up
	} else {
		lower := down
		if speed > 0.8*MaxWindSpeed {
			lower = stormDown
		}
		step = sample * lower
	}
	next := units.NewClamped(speed+step*monthFactor, 0, MaxWindSpeed)
	return next.Get()
}
