// Package observability carries structured events out of the store, dispatch,
// and stream subsystems. Events are rendered through slog by default and can
// be captured in-process for tests.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is an event severity. Values sit inside the OTel SeverityNumber
// ranges so collectors can ingest them untranslated.
type Level int

const (
	LevelVerbose Level = 5
	LevelInfo    Level = 9
	LevelWarning Level = 13
	LevelError   Level = 17
)

func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps the level onto the nearest slog level.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType names an event, dotted by subsystem ("faz.hook", "kv.snapshot.write").
type EventType string

// Event is a single observation emitted by a subsystem.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, level Level, source string, data map[string]any) Event {
	return Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	}
}

// Observer receives events. Implementations must be safe for concurrent use;
// dispatch and stream delivery emit from many request goroutines.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// NoOpObserver drops every event.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(context.Context, Event) {}
