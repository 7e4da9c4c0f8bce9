package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cifinalize/internal/config"
	"cifinalize/internal/logging"
	"cifinalize/internal/platform"
)

func newFileLogger(t *testing.T, format, level string) (func(), string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, err := logging.New(logging.Options{
		Format:      format,
		Level:       level,
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithRunID(context.Background(), "0f1e2d3c-aaaa-bbbb-cccc-000000000000")
	return func() {
		component := logging.NewComponentLogger(logging.WithContext(ctx, logger), "engine")
		component.Info("finalizing title", logging.String(logging.FieldTitleID, logging.TitleID(0x0004000000123500)))
		component.Debug("debug detail")
	}, logPath
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")

	content, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerPrefixesRunAndComponent(t *testing.T) {
	emit, logPath := newFileLogger(t, "console", "info")
	emit()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "INFO [run 0f1e2d3c] engine: finalizing title") {
		t.Fatalf("unexpected console line %q", line)
	}
	if !strings.Contains(line, "title_id=0004000000123500") {
		t.Fatalf("expected hex title id, got %q", line)
	}
	if strings.Contains(line, "debug detail") {
		t.Fatalf("debug line should be filtered at info level: %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	emit, logPath := newFileLogger(t, "console", "debug")
	emit()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestJSONLoggerFields(t *testing.T) {
	emit, logPath := newFileLogger(t, "json", "info")
	emit()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if payload["level"] != "info" || payload["msg"] != "finalizing title" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if runID, _ := payload[logging.FieldRunID].(string); runID == "" || payload[logging.FieldComponent] != "engine" {
		t.Fatalf("missing context fields in %v", payload)
	}
}

func TestJSONLoggerDerivesResultCode(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "codes.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatal(err)
	}
	failure := fmt.Errorf("install: %w", platform.Fail("finish ticket", platform.ResultInvalidSize, nil))
	logger.Error("ticket install failed", logging.Error(failure))
	logger.Error("explicit code", logging.String(logging.FieldResultCode, "custom"), logging.Error(failure))
	logger.With(logging.String(logging.FieldResultCode, "bound")).Error("bound code", logging.Error(failure))
	logger.Error("plain error", logging.Error(errors.New("disk full")))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), content)
	}
	want := []any{"e0e08bfc", "custom", "bound", nil}
	for i, line := range lines {
		var payload map[string]any
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			t.Fatalf("decode line %d: %v", i, err)
		}
		if got := payload[logging.FieldResultCode]; got != want[i] {
			t.Fatalf("line %d result_code = %v, want %v (%s)", i, got, want[i], line)
		}
		if ts, _ := payload["ts"].(string); !strings.HasSuffix(ts, "Z") || len(ts) != len("2006-01-02T15:04:05.000Z") {
			t.Fatalf("line %d unexpected ts %q", i, payload["ts"])
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewRunContextAssignsID(t *testing.T) {
	ctx, id := logging.NewRunContext(context.Background())
	got, ok := logging.RunIDFromContext(ctx)
	if !ok || got != id || len(id) != 36 {
		t.Fatalf("unexpected run id %q (ok=%v, want %q)", got, ok, id)
	}
	if _, ok := logging.RunIDFromContext(context.Background()); ok {
		t.Fatal("expected no run id on background context")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatal(err)
	}
	logging.WarnWithContext(logger, "seed install failed", "seed_failure")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"event_type=seed_failure", "error_hint=", "impact="} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}
