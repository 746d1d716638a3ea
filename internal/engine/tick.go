// Package engine provides the tick-based simulation loop and wires the
// simulation's systems together.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/talgya/gridworld/internal/calendar"
)

// TicksPerSimWeek is the period of the weekly callback.
const TicksPerSimWeek = 7 * calendar.TicksPerDay

// Engine drives the clock forward at the selected speed.
type Engine struct {
	clock   *calendar.Clock
	paused  atomic.Bool
	speed   atomic.Int32
	running atomic.Bool
	sleep   func(ctx context.Context, d time.Duration)

	// Callbacks for each tick layer, populated during setup.
	OnTick func(tick uint64, d calendar.Date, ev calendar.Event) // every running tick
	OnHour func(tick uint64, d calendar.Date)
	OnDay  func(tick uint64, d calendar.Date)
	OnWeek func(tick uint64, d calendar.Date)
}

// NewEngine creates an engine over clock at the given speed preset.
func NewEngine(clock *calendar.Clock, speed int) *Engine {
	e := &Engine{clock: clock, sleep: sleepCtx}
	e.speed.Store(int32(calendar.ClampSpeed(speed)))
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run advances the clock until Stop is called or ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	tick, _ := e.clock.Now()
	slog.Info("simulation engine started", "tick", tick, "interval", calendar.SpeedInterval(e.SpeedIndex()))

	for e.running.Load() && ctx.Err() == nil {
		start := time.Now()

		ev := e.clock.Tick(e.paused.Load())
		if ev == calendar.Paused {
			continue
		}
		tick, date := e.clock.Now()
		e.step(tick, date, ev)

		// Sleep for the remainder of the tick interval.
		elapsed := time.Since(start)
		target := calendar.SpeedInterval(e.SpeedIndex())
		if elapsed < target {
			e.sleep(ctx, target-elapsed)
		}
	}

	e.running.Store(false)
	tick, _ = e.clock.Now()
	slog.Info("simulation engine stopped", "tick", tick)
	return nil
}

// Stop halts the loop after the current tick.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool { return e.running.Load() }

func (e *Engine) step(tick uint64, d calendar.Date, ev calendar.Event) {
	if e.OnTick != nil {
		e.OnTick(tick, d, ev)
	}
	if ev.AtLeastHour() && e.OnHour != nil {
		e.OnHour(tick, d)
	}
	if ev.AtLeastDay() && e.OnDay != nil {
		e.OnDay(tick, d)
	}
	if ev.AtLeastDay() && tick%TicksPerSimWeek == 0 && e.OnWeek != nil {
		e.OnWeek(tick, d)
	}
}

// TogglePause flips the paused flag and returns the new value.
func (e *Engine) TogglePause() bool {
	for {
		old := e.paused.Load()
		if e.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Paused reports whether the clock is held.
func (e *Engine) Paused() bool { return e.paused.Load() }

// SetSpeed selects a speed preset, clamped to the table, and returns it.
func (e *Engine) SetSpeed(index int) int {
	index = calendar.ClampSpeed(index)
	e.speed.Store(int32(index))
	return index
}

// SpeedIndex is the current speed preset.
func (e *Engine) SpeedIndex() int { return int(e.speed.Load()) }
