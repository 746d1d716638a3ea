// Package telemetry is the simulation's log sink. Actors write entries
// through a Logger; the sink mirrors them to slog, keeps a recent window
// for presentation and hands batches to an optional Recorder.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
)

// LevelCritical sits above slog.LevelError.
const LevelCritical = slog.Level(12)

// Severity of a simulation log entry.
type Severity uint8

const (
	Info Severity = iota
	Warning
	Error
	Critical
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Critical:
		return "critical"
	default:
		return "info"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Level maps the severity onto slog.
func (s Severity) Level() slog.Level {
	switch s {
	case Warning:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	case Critical:
		return LevelCritical
	default:
		return slog.LevelInfo
	}
}

// ReplaceLevel names LevelCritical in handler output. Use it as
// slog.HandlerOptions.ReplaceAttr.
func ReplaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= LevelCritical {
		a.Value = slog.StringValue("CRITICAL")
	}
	return a
}

// Entry is one simulation log line.
type Entry struct {
	Tick     uint64   `json:"tick" db:"tick"`
	Actor    string   `json:"actor" db:"actor"`
	Severity Severity `json:"severity" db:"severity"`
	Message  string   `json:"message" db:"message"`
}

func (e Entry) String() string {
	return fmt.Sprintf("[%d] %s %s: %s", e.Tick, e.Severity, e.Actor, e.Message)
}

// Recorder persists batches of entries.
type Recorder interface {
	RecordEntries(ctx context.Context, batch []Entry) error
}
