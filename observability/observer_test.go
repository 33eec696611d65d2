package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/tailored-agentic-units/caw/observability"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  string
	}{
		{name: "trace range", level: 1, want: "TRACE"},
		{name: "verbose", level: observability.LevelVerbose, want: "DEBUG"},
		{name: "info", level: observability.LevelInfo, want: "INFO"},
		{name: "warning", level: observability.LevelWarning, want: "WARN"},
		{name: "error", level: observability.LevelError, want: "ERROR"},
		{name: "fatal range", level: 21, want: "FATAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func TestLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level observability.Level
		want  slog.Level
	}{
		{level: observability.LevelVerbose, want: slog.LevelDebug},
		{level: observability.LevelInfo, want: slog.LevelInfo},
		{level: observability.LevelWarning, want: slog.LevelWarn},
		{level: observability.LevelError, want: slog.LevelError},
	}

	for _, tt := range tests {
		if got := tt.level.SlogLevel(); got != tt.want {
			t.Errorf("Level(%d).SlogLevel() = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestSlogObserver_Attributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	obs := observability.NewSlogObserver(logger)
	obs.OnEvent(context.Background(), observability.NewEvent(
		"faz.event.dispatch",
		observability.LevelInfo,
		"faz.Dispatcher",
		map[string]any{"handler": "caw"},
	))

	out := buf.String()
	for _, want := range []string{"faz.event.dispatch", "source=faz.Dispatcher", "handler=caw"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestSlogObserver_RespectsHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	obs := observability.NewSlogObserver(logger)
	obs.OnEvent(context.Background(), observability.NewEvent("kv.snapshot.write", observability.LevelVerbose, "test", nil))

	if buf.Len() != 0 {
		t.Errorf("expected verbose event to be filtered, got %q", buf.String())
	}
}

func TestRecorder_Concurrent(t *testing.T) {
	rec := observability.NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.OnEvent(context.Background(), observability.NewEvent("a", observability.LevelInfo, "test", nil))
		}()
	}
	wg.Wait()

	rec.OnEvent(context.Background(), observability.NewEvent("b", observability.LevelInfo, "test", nil))

	if got := len(rec.OfType("a")); got != 50 {
		t.Errorf("OfType(a) = %d events, want 50", got)
	}
	if got := len(rec.Events()); got != 51 {
		t.Errorf("Events() = %d, want 51", got)
	}

	rec.Reset()
	if got := len(rec.Events()); got != 0 {
		t.Errorf("Events() after Reset = %d, want 0", got)
	}
}
