package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *memRecorder) RecordEntries(_ context.Context, batch []Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, batch...)
	return nil
}

func (r *memRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func quietLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: ReplaceLevel,
	})), &buf
}

func TestSeverityLevels(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Info.Level())
	assert.Equal(t, slog.LevelWarn, Warning.Level())
	assert.Equal(t, slog.LevelError, Error.Level())
	assert.Equal(t, LevelCritical, Critical.Level())
	assert.Greater(t, LevelCritical, slog.LevelError)
}

func TestFullSinkDropsWithoutBlocking(t *testing.T) {
	log, buf := quietLogger()
	s := NewSink(2, nil, log)
	l := s.For("hub")

	l.Info("one")
	l.Info("two")
	l.Warn("three")

	assert.Equal(t, uint64(1), s.Dropped())
	assert.Contains(t, buf.String(), "log sink full")
	assert.Contains(t, buf.String(), "three")
}

func TestRunMirrorsRecordsAndFlushes(t *testing.T) {
	log, buf := quietLogger()
	rec := &memRecorder{}
	s := NewSink(16, rec, log)
	s.SetTick(42)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	l := s.For("factory-1")
	l.Info("produced %d units", 10)
	l.Critical("bankrupt")

	require.Eventually(t, func() bool { return len(s.Recent(10)) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	recent := s.Recent(10)
	assert.Equal(t, Entry{Tick: 42, Actor: "factory-1", Severity: Info, Message: "produced 10 units"}, recent[0])
	assert.Equal(t, Critical, recent[1].Severity)
	assert.Equal(t, 2, rec.len())
	assert.Contains(t, buf.String(), "level=CRITICAL")
}

func TestRunDrainsOnShutdown(t *testing.T) {
	log, _ := quietLogger()
	rec := &memRecorder{}
	s := NewSink(16, rec, log)
	for i := 0; i < 5; i++ {
		s.For("plant").Info("entry %d", i)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Run(ctx))
	assert.Len(t, s.Recent(100), 5)
	assert.Equal(t, 5, rec.len())
}

func TestTrimKeepsNewest(t *testing.T) {
	log, _ := quietLogger()
	s := NewSink(8, nil, log)
	for i := 0; i < 5; i++ {
		s.recent.Push(Entry{Tick: uint64(i)})
	}
	s.Trim(2)
	got := s.Recent(10)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(3), got[0].Tick)
	assert.Equal(t, uint64(4), got[1].Tick)
}

func TestZeroLoggerIsSilent(t *testing.T) {
	var l Logger
	assert.NotPanics(t, func() { l.Error("nobody listens") })
}
