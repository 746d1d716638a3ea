package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/gridworld/internal/agents"
	"github.com/talgya/gridworld/internal/calendar"
	"github.com/talgya/gridworld/internal/economy"
	"github.com/talgya/gridworld/internal/entropy"
	"github.com/talgya/gridworld/internal/jobs"
	"github.com/talgya/gridworld/internal/msg"
	"github.com/talgya/gridworld/internal/persistence"
	"github.com/talgya/gridworld/internal/telemetry"
	"github.com/talgya/gridworld/internal/weather"
)

// Wiring limits.
const (
	BroadcastBuffer = 256
	ShutdownGrace   = 2 * time.Second
)

// Journal receives the daily summary. persistence.DB implements it.
type Journal interface {
	SaveDailyStats(row persistence.DailyStats) error
	SaveMeta(key, value string) error
}

// Options configure a Simulation. Zero values take defaults.
type Options struct {
	Seed         int64
	SpeedIndex   int
	SinkCapacity int
	Plant        agents.PlantConfig
	Factories    []agents.FactoryConfig
	Journal      Journal            // optional
	Recorder     telemetry.Recorder // optional
	Logger       *slog.Logger
}

// Simulation holds every system and runs them from the engine's ticks.
// Weather and economy update inline, then actors are told about the tick.
type Simulation struct {
	Engine    *Engine
	Clock     *calendar.Clock
	Env       *weather.Environment
	Weather   *weather.Simulator
	Economy   *economy.Engine
	Hub       *agents.Hub
	Factories []*agents.Factory
	Signals   *msg.Broadcaster[msg.Signal]
	Sink      *telemetry.Sink

	id      uuid.UUID
	seed    int64
	journal Journal
	log     telemetry.Logger

	mu         sync.Mutex
	cancel     context.CancelFunc
	group      *errgroup.Group
	sinkCancel context.CancelFunc
	sinkDone   chan struct{}
	quitOnce   sync.Once
	quit       chan struct{}
}

// NewSimulation builds the clock, weather, economy and actor graph.
func NewSimulation(opts Options) (*Simulation, error) {
	seed := entropy.Seed(opts.Seed)
	streams := entropy.NewStreams(seed)

	clock := calendar.NewClock(0)
	env := weather.NewEnvironment()
	econ := economy.NewEngine(streams.Economy)
	signals := msg.NewBroadcaster[msg.Signal](BroadcastBuffer)
	sink := telemetry.NewSink(opts.SinkCapacity, opts.Recorder, opts.Logger)

	roster := opts.Factories
	if len(roster) == 0 {
		roster = agents.DefaultFactories()
	}
	hub, factories, err := agents.NewSpawner(streams.Spawner, econ, env, signals, sink).Spawn(opts.Plant, roster)
	if err != nil {
		return nil, fmt.Errorf("spawn actors: %w", err)
	}

	s := &Simulation{
		Engine:    NewEngine(clock, opts.SpeedIndex),
		Clock:     clock,
		Env:       env,
		Weather:   weather.NewSimulator(env, streams.Weather, streams.Noise),
		Economy:   econ,
		Hub:       hub,
		Factories: factories,
		Signals:   signals,
		Sink:      sink,
		id:        uuid.New(),
		seed:      seed,
		journal:   opts.Journal,
		log:       sink.For("host"),
		quit:      make(chan struct{}),
	}
	s.Engine.OnTick = s.onTick
	s.Engine.OnDay = s.onDay
	s.Engine.OnWeek = s.onWeek

	slog.Info("simulation assembled", "seed", seed, "factories", len(factories))
	return s, nil
}

// Seed is the seed every random stream was derived from.
func (s *Simulation) Seed() int64 { return s.seed }

// onTick runs weather, then economy, then tells the actors.
func (s *Simulation) onTick(tick uint64, d calendar.Date, ev calendar.Event) {
	s.Sink.SetTick(tick)
	s.Weather.Update(tick, d, ev)
	s.Economy.Update(tick, d, ev)
	for _, pid := range s.Signals.Publish(s.id, msg.ClockTick{Tick: tick, Date: d, Event: ev}) {
		s.log.Warn("tick %d not delivered to %s", tick, s.actorName(pid))
	}
}

func (s *Simulation) actorName(pid uuid.UUID) string {
	if pid == s.Hub.ID() {
		return "hub"
	}
	if f, ok := lo.Find(s.Factories, func(f *agents.Factory) bool { return f.ID() == pid }); ok {
		return f.Name()
	}
	return pid.String()
}

func (s *Simulation) onDay(tick uint64, d calendar.Date) {
	row := s.DailyStats(tick, d)
	slog.Info("daily report",
		"date", row.Date,
		"inflation", fmt.Sprintf("%.2f", row.Inflation),
		"fuel_price", fmt.Sprintf("%.2f", row.FuelPrice),
		"active_demands", row.ActiveDemands,
		"plant_stored", row.PlantStored,
		"solvent", row.FactoriesSolvent,
		"bankrupt", row.FactoriesBankrupt,
	)
	if s.journal == nil {
		return
	}
	if err := s.journal.SaveDailyStats(row); err != nil {
		slog.Error("daily stats not saved", "error", err)
	}
}

func (s *Simulation) onWeek(tick uint64, d calendar.Date) {
	slog.Info("weekly summary",
		"date", d.String(),
		"season", d.Season(),
		"log_dropped", s.Sink.Dropped(),
		"pending_jobs", s.Hub.Jobs().Total(),
	)
	// Keep the recent-log window from carrying stale weeks.
	s.Sink.Trim(telemetry.RecentCapacity / 2)
}

// DailyStats summarises the simulation for the journal.
func (s *Simulation) DailyStats(tick uint64, d calendar.Date) persistence.DailyStats {
	econ := s.Economy.Snapshot()
	plant := s.Hub.Plant().Snapshot()
	env := s.Env.Snapshot()

	row := persistence.DailyStats{
		Tick:          tick,
		Date:          d.String(),
		Inflation:     econ.Inflation,
		FuelPrice:     econ.FuelPrice.Float64(),
		ActiveDemands: len(econ.Active),
		PlantBalance:  plant.Balance.Float64(),
		PlantStored:   int64(plant.Stored),
		PlantFuel:     plant.Fuel,
		WindSpeed:     env.Wind.Speed.Get(),
		Clouds:        len(env.Clouds),
	}
	for _, f := range s.Factories {
		fs := f.Snapshot()
		if fs.Bankrupt {
			row.FactoriesBankrupt++
		} else {
			row.FactoriesSolvent++
		}
		row.FactoryBalance += fs.Balance.Float64()
	}
	return row
}

// Start launches the log sink, the actors and the clock. Each actor runs
// under a supervisor that restarts it after a panic.
func (s *Simulation) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sinkCtx, sinkCancel := context.WithCancel(context.Background())
	s.sinkCancel = sinkCancel
	s.sinkDone = make(chan struct{})
	go func() {
		defer close(s.sinkDone)
		s.Sink.Run(sinkCtx)
	}()

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	s.cancel, s.group = cancel, g

	supervise(gctx, g, "hub", s.log, s.Hub.Run)
	for _, f := range s.Factories {
		supervise(gctx, g, f.Name(), s.log, f.Run)
	}
	supervise(gctx, g, "clock", s.log, s.Engine.Run)

	if s.journal != nil {
		if err := s.journal.SaveMeta("seed", strconv.FormatInt(s.seed, 10)); err != nil {
			slog.Warn("journal meta not saved", "error", err)
		}
		if err := s.journal.SaveMeta("started_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
			slog.Warn("journal meta not saved", "error", err)
		}
	}
	s.log.Info("simulation started with %d factories", len(s.Factories))
}

// Shutdown stops the clock, asks every actor to quit and waits for them.
// Pending jobs are discarded, not drained.
func (s *Simulation) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group == nil {
		return nil
	}

	s.Engine.Stop()
	if failed := s.Signals.Publish(s.id, msg.Quit{}); len(failed) > 0 {
		slog.Warn("quit not delivered to every actor, cancelling", "missed", len(failed))
		s.cancel()
	}

	done := make(chan error, 1)
	go func() { done <- s.group.Wait() }()
	var err error
	select {
	case err = <-done:
	case <-time.After(ShutdownGrace):
		slog.Warn("actors slow to quit, cancelling")
		s.cancel()
		err = <-done
	}
	s.cancel()

	dropped := s.Hub.DiscardJobs()
	for _, f := range s.Factories {
		dropped += f.DiscardJobs()
		f.Close()
	}
	s.Hub.Close()
	s.Signals.Close()

	tick, date := s.Clock.Now()
	slog.Info("simulation stopped", "tick", tick, "date", date.String(), "discarded_jobs", dropped)

	s.sinkCancel()
	<-s.sinkDone
	s.group = nil
	return err
}

// Quit asks the process to shut down. Done is closed once it is called.
func (s *Simulation) Quit() {
	s.quitOnce.Do(func() {
		s.log.Info("quit requested")
		close(s.quit)
	})
}

// Done is closed after Quit.
func (s *Simulation) Done() <-chan struct{} { return s.quit }

// TogglePause holds or releases the clock and returns the new state.
func (s *Simulation) TogglePause() bool {
	paused := s.Engine.TogglePause()
	slog.Info("pause toggled", "paused", paused)
	return paused
}

// SetSpeed selects a speed preset and returns the one applied.
func (s *Simulation) SetSpeed(index int) int {
	applied := s.Engine.SetSpeed(index)
	slog.Info("speed changed", "index", applied, "interval", calendar.SpeedInterval(applied))
	return applied
}

// Misc is the presentation-facing run state.
type Misc struct {
	Paused     bool   `json:"paused"`
	SpeedIndex int    `json:"speed_index"`
	Interval   string `json:"interval"`
}

// Misc snapshots the run state.
func (s *Simulation) Misc() Misc {
	idx := s.Engine.SpeedIndex()
	return Misc{
		Paused:     s.Engine.Paused(),
		SpeedIndex: idx,
		Interval:   calendar.SpeedInterval(idx).String(),
	}
}

// Status is the top-level state summary.
type Status struct {
	Tick      uint64        `json:"tick"`
	Date      calendar.Date `json:"date"`
	DateText  string        `json:"date_text"`
	Season    string        `json:"season"`
	Misc      Misc          `json:"misc"`
	Jobs      jobs.Pending  `json:"jobs"`
	Seed      int64         `json:"seed"`
	Factories int           `json:"factories"`
	Bankrupt  int           `json:"bankrupt"`
}

// Status snapshots the simulation.
func (s *Simulation) Status() Status {
	tick, date := s.Clock.Now()
	bankrupt := lo.CountBy(s.Factories, func(f *agents.Factory) bool { return f.Bankrupt() })
	return Status{
		Tick:      tick,
		Date:      date,
		DateText:  date.String(),
		Season:    date.Season(),
		Misc:      s.Misc(),
		Jobs:      s.Hub.Jobs(),
		Seed:      s.seed,
		Factories: len(s.Factories),
		Bankrupt:  bankrupt,
	}
}

// FactoryStates snapshots every factory in roster order.
func (s *Simulation) FactoryStates() []agents.FactoryState {
	return lo.Map(s.Hub.Factories(), func(v agents.FactoryView, _ int) agents.FactoryState { return v.Snapshot() })
}

// Frame is a full read-only picture of the simulation at one moment.
type Frame struct {
	Status      Status                 `json:"status"`
	Environment weather.Snapshot       `json:"environment"`
	Economy     economy.State          `json:"economy"`
	Plant       agents.PowerPlantState `json:"plant"`
	Factories   []agents.FactoryState  `json:"factories"`
}

// Frame snapshots every system. Each part is consistent on its own; the
// parts may straddle a tick.
func (s *Simulation) Frame() Frame {
	return Frame{
		Status:      s.Status(),
		Environment: s.Env.Snapshot(),
		Economy:     s.Economy.Snapshot(),
		Plant:       s.Hub.Plant().Snapshot(),
		Factories:   s.FactoryStates(),
	}
}
