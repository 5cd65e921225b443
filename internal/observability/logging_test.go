package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")

	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("expected req-123, got %s", got)
	}
}

func TestWithOperationKeepsRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithOperation(ctx, "job.info", "GET", "job/x/api/json")

	lc := GetContext(ctx)
	if lc.RequestID != "req-1" {
		t.Errorf("request id lost: %+v", lc)
	}
	if lc.Operation != "job.info" || lc.Method != "GET" || lc.Path != "job/x/api/json" {
		t.Errorf("unexpected log context: %+v", lc)
	}
}

func TestEmptyContext(t *testing.T) {
	if attrs := getLogAttrs(context.Background()); len(attrs) != 0 {
		t.Errorf("expected no attrs, got %v", attrs)
	}
}

func TestLogAttrsIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := WithOperation(WithRequestID(context.Background(), "abc"), "queue.list", "GET", "queue/api/json")
	LogAttrs(ctx, logger, slog.LevelInfo, "attempt finished", slog.Int("attempt", 2))

	out := buf.String()
	for _, want := range []string{"request_id=abc", "operation=queue.list", "attempt=2", "attempt finished"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestDefaultLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	ctx := WithRequestID(context.Background(), "r1")
	DebugContext(ctx, "debug msg")
	InfoContext(ctx, "info msg")
	WarnContext(ctx, "warn msg")
	ErrorContext(ctx, "error msg")

	out := buf.String()
	for _, want := range []string{"debug msg", "info msg", "warn msg", "error msg"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if strings.Count(out, "request_id=r1") != 4 {
		t.Errorf("expected request id on every line: %q", out)
	}
}
