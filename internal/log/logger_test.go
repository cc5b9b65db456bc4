package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "warning": slog.LevelWarn,
		"error": slog.LevelError, "": slog.LevelInfo, "verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q)=%v want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, Level: slog.LevelInfo, Component: ComponentFinance})
	l.Info("entry written", FieldUserID, "u1")
	l.WithComponent(ComponentCache).Warn("miss")
	l.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "component=finance") || !strings.Contains(out, "user_id=u1") {
		t.Fatalf("missing attrs: %s", out)
	}
	if !strings.Contains(out, "component=cache") {
		t.Fatalf("missing derived component: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered: %s", out)
	}
}

func TestHTTPLoggerLevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	h := NewHTTPLogger(New(Config{Output: &buf, Level: slog.LevelDebug}))
	r := httptest.NewRequest("GET", "/api/v1/dashboard", nil)

	h.End(context.Background(), r, "req_1", 200, 3)
	h.End(context.Background(), r, "req_2", 404, 3)
	h.End(context.Background(), r, "req_3", 500, 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %s", len(lines), buf.String())
	}
	for i, lvl := range []string{"level=INFO", "level=WARN", "level=ERROR"} {
		if !strings.Contains(lines[i], lvl) {
			t.Errorf("line %d: want %s in %s", i, lvl, lines[i])
		}
	}
}

func TestFromContextFallback(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected fallback logger")
	}
	l := Discard()
	if got := FromContext(WithLogger(context.Background(), l)); got != l {
		t.Fatal("expected stored logger")
	}
}
