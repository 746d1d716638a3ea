package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/gridworld/internal/ring"
)

// Sink defaults.
const (
	DefaultCapacity = 256
	RecentCapacity  = 200
	flushInterval   = time.Second
	flushBatch      = 64
)

// Sink collects entries from every actor.
type Sink struct {
	ch       chan Entry
	dropped  atomic.Uint64
	tick     atomic.Uint64
	log      *slog.Logger
	recorder Recorder

	mu     sync.RWMutex
	recent *ring.Window[Entry]
}

// NewSink returns a sink buffering up to capacity entries. recorder may
// be nil.
func NewSink(capacity int, recorder Recorder, log *slog.Logger) *Sink {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sink{
		ch:       make(chan Entry, capacity),
		log:      log,
		recorder: recorder,
		recent:   ring.NewWindow[Entry](RecentCapacity),
	}
}

// SetTick stamps subsequent entries with tick.
func (s *Sink) SetTick(tick uint64) { s.tick.Store(tick) }

// Log queues e without blocking. A full sink drops the entry and
// reports it on the process logger instead.
func (s *Sink) Log(e Entry) bool {
	select {
	case s.ch <- e:
		return true
	default:
		n := s.dropped.Add(1)
		s.log.Warn("log sink full, entry dropped",
			"actor", e.Actor,
			"severity", e.Severity.String(),
			"message", e.Message,
			"dropped", humanize.Comma(int64(n)),
		)
		return false
	}
}

// Dropped counts entries lost to a full buffer.
func (s *Sink) Dropped() uint64 { return s.dropped.Load() }

// Run drains the sink until ctx is cancelled, then flushes whatever is
// still queued.
func (s *Sink) Run(ctx context.Context) error {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Entry, 0, flushBatch)
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case e := <-s.ch:
					batch = s.accept(ctx, e, batch)
				default:
					s.flush(context.Background(), batch)
					return nil
				}
			}
		case e := <-s.ch:
			batch = s.accept(ctx, e, batch)
			if len(batch) >= flushBatch {
				batch = s.flush(ctx, batch)
			}
		case <-ticker.C:
			batch = s.flush(ctx, batch)
		}
	}
}

func (s *Sink) accept(ctx context.Context, e Entry, batch []Entry) []Entry {
	s.log.Log(ctx, e.Severity.Level(), e.Message, "actor", e.Actor, "tick", e.Tick)

	s.mu.Lock()
	s.recent.Push(e)
	s.mu.Unlock()

	if s.recorder == nil {
		return batch
	}
	return append(batch, e)
}

func (s *Sink) flush(ctx context.Context, batch []Entry) []Entry {
	if len(batch) == 0 || s.recorder == nil {
		return batch[:0]
	}
	if err := s.recorder.RecordEntries(ctx, batch); err != nil {
		s.log.Error("failed to record log entries", "count", len(batch), "error", err)
	}
	return batch[:0]
}

// Recent returns up to n of the newest entries, oldest first.
func (s *Sink) Recent(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recent.Last(n)
}

// Trim keeps only the newest keep entries in the recent window.
func (s *Sink) Trim(keep int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.recent.Last(keep)
	s.recent = ring.NewWindow[Entry](RecentCapacity)
	for _, e := range kept {
		s.recent.Push(e)
	}
}

// For returns a Logger writing as actor.
func (s *Sink) For(actor string) Logger {
	return Logger{sink: s, actor: actor}
}

// Logger is an actor's handle on the sink.
type Logger struct {
	sink  *Sink
	actor string
}

// Actor is the name entries are tagged with.
func (l Logger) Actor() string { return l.actor }

func (l Logger) emit(sev Severity, format string, args []any) {
	if l.sink == nil {
		return
	}
	l.sink.Log(Entry{
		Tick:     l.sink.tick.Load(),
		Actor:    l.actor,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (l Logger) Info(format string, args ...any)     { l.emit(Info, format, args) }
func (l Logger) Warn(format string, args ...any)     { l.emit(Warning, format, args) }
func (l Logger) Error(format string, args ...any)    { l.emit(Error, format, args) }
func (l Logger) Critical(format string, args ...any) { l.emit(Critical, format, args) }
