package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Watcher runs observe, triage, decide and act on an interval.
type Watcher struct {
	Observer *Observer
	Actor    *Actor // nil observes without acting
	Memory   *CycleMemory
	Out      io.Writer
}

// Cycle executes one observe → triage → decide → act pass.
func (w *Watcher) Cycle(ctx context.Context) (Decision, error) {
	snap, err := w.Observer.Observe(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("observe: %w", err)
	}
	health := Triage(snap)
	for _, line := range Summary(snap, health) {
		fmt.Fprintln(w.Out, line)
	}

	d := Decide(snap, health, w.Memory)
	if d.Action != ActionNone {
		if w.Actor == nil {
			fmt.Fprintf(w.Out, "would %s: %s\n", d.Action, d.Rationale)
		} else if err := w.Actor.Apply(ctx, d); err != nil {
			return d, fmt.Errorf("act %s: %w", d.Action, err)
		} else {
			fmt.Fprintf(w.Out, "%s: %s\n", d.Action, d.Rationale)
		}
	}

	w.Memory.Record(CycleRecord{
		Tick:        snap.Status.Tick,
		Action:      d.Action,
		CrisisLevel: health.CrisisLevel,
		Bankrupt:    health.Bankrupt,
		Shortages:   health.Shortages,
		Rationale:   d.Rationale,
	})
	w.Memory.Save()
	return d, nil
}

// Run cycles every interval until ctx is done. A failed cycle is logged
// and the next one proceeds.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := w.Cycle(ctx); err != nil {
			slog.Error("watch cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// WaitForAPI polls the status endpoint with exponential backoff until it
// answers or timeout passes.
func WaitForAPI(ctx context.Context, o *Observer, timeout time.Duration) error {
	backoff := 500 * time.Millisecond
	const maxBackoff = 10 * time.Second
	deadline := time.Now().Add(timeout)

	for {
		if _, err := o.Status(ctx); err == nil {
			return nil
		} else if time.Now().After(deadline) {
			return fmt.Errorf("gridsim API not ready after %s: %w", timeout, err)
		}
		slog.Info("gridsim not ready, retrying", "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
