package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/gridworld/internal/telemetry"
)

// MaxRestarts bounds how often a panicking worker is restarted.
const MaxRestarts = 3

// worker is a long-running actor loop.
type worker func(ctx context.Context) error

// supervise runs w in g, restarting it after a panic up to MaxRestarts
// times. Each panic is logged as critical on log.
func supervise(ctx context.Context, g *errgroup.Group, name string, log telemetry.Logger, w worker) {
	g.Go(func() error {
		for attempt := 0; ; attempt++ {
			panicked, err := runGuarded(ctx, w)
			if !panicked {
				return err
			}
			if attempt >= MaxRestarts {
				log.Critical("%s gave up after %d restarts: %v", name, MaxRestarts, err)
				return fmt.Errorf("worker %s: %w", name, err)
			}
			log.Critical("%s crashed, restarting (%d/%d): %v", name, attempt+1, MaxRestarts, err)
			if ctx.Err() != nil {
				return nil
			}
		}
	})
}

func runGuarded(ctx context.Context, w worker) (panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker panic", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
			panicked = true
		}
	}()
	return false, w(ctx)
}
