package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewMultiHandlerCollapses(t *testing.T) {
	if _, ok := newMultiHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every child is nil")
	}
	inner := slog.NewJSONHandler(&bytes.Buffer{}, nil)
	if h := newMultiHandler(nil, inner); h != inner {
		t.Fatal("expected a single child to be returned unwrapped")
	}
}

func TestTeeWritesBothSinks(t *testing.T) {
	var file, mirror bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelInfo}))

	logger := Tee(base, &mirror, "debug")
	logger.Debug("debug only")
	logger.Info("both sinks", String("title_id", "0004000000123500"))

	if strings.Contains(file.String(), "debug only") {
		t.Fatal("base handler must keep its own level")
	}
	if !strings.Contains(file.String(), "both sinks") {
		t.Fatalf("base sink missing record: %s", file.String())
	}
	out := mirror.String()
	if !strings.Contains(out, "debug only") || !strings.Contains(out, "title_id=0004000000123500") {
		t.Fatalf("mirror missing records: %s", out)
	}
}

func TestMultiHandlerEnabled(t *testing.T) {
	info := slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	errOnly := slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})
	h := newMultiHandler(info, errOnly)
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected info to be enabled through the first child")
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled for both children")
	}
}
