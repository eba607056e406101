package logging

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func resetLoggingState() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.TimeFieldFormat = defaultTimeFmt
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	isTerminalFn = func(fd int) bool { return false }
}

func TestInitSetsGlobalLevel(t *testing.T) {
	t.Cleanup(resetLoggingState)

	Init(Config{Format: "json", Level: "debug", Component: "apiserver"})

	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("expected global level debug, got %s", zerolog.GlobalLevel())
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"info", zerolog.InfoLevel},
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"  Info  ", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSelectWriterConsole(t *testing.T) {
	t.Cleanup(resetLoggingState)

	w := selectWriter(Config{Format: "console"})
	if _, ok := w.(zerolog.ConsoleWriter); !ok {
		t.Fatalf("expected console writer, got %#v", w)
	}
}

func TestSelectWriterAutoWithoutTerminal(t *testing.T) {
	t.Cleanup(resetLoggingState)
	isTerminalFn = func(fd int) bool { return false }

	w := selectWriter(Config{Format: "auto"})
	if w != os.Stderr {
		t.Fatalf("expected stderr writer for non-terminal auto, got %#v", w)
	}
}

func TestSelectWriterAutoWithTerminal(t *testing.T) {
	t.Cleanup(resetLoggingState)
	isTerminalFn = func(fd int) bool { return true }

	w := selectWriter(Config{Format: "auto"})
	if _, ok := w.(zerolog.ConsoleWriter); !ok {
		t.Fatalf("expected console writer for terminal auto, got %#v", w)
	}
}

func TestWithRequestIDGeneratesWhenEmpty(t *testing.T) {
	ctx, id := WithRequestID(context.Background(), "")
	if id == "" {
		t.Fatal("expected generated request ID")
	}
	if got := RequestIDFromContext(ctx); got != id {
		t.Fatalf("expected request ID %q on context, got %q", id, got)
	}
}

func TestWithRequestIDKeepsExplicitID(t *testing.T) {
	ctx, id := WithRequestID(context.Background(), " req-42 ")
	if id != "req-42" {
		t.Fatalf("expected trimmed request ID req-42, got %q", id)
	}
	if got := RequestIDFromContext(ctx); got != "req-42" {
		t.Fatalf("expected req-42 on context, got %q", got)
	}
}

func TestRequestIDFromContextMissing(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request ID, got %q", got)
	}
}
