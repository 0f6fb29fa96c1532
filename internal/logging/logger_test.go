package logging_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audiocheck/internal/config"
	"audiocheck/internal/logging"
)

func newFileLogger(t *testing.T, opts logging.Options) (func(), string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "out.log")
	opts.Outputs = []string{logPath}
	logger, err := logging.New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return func() {
		logger.Info("check started", logging.String(logging.FieldComponent, "integrity"), logging.String(logging.FieldPath, "/music/a.flac"), logging.Int("files", 3))
		logger.Debug("debug detail", logging.String(logging.FieldEventType, "scan_detail"))
	}, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(data)
}

func TestConsoleLoggerFormatsHeaderAndFields(t *testing.T) {
	emit, path := newFileLogger(t, logging.Options{Format: "console", Level: "info"})
	emit()
	content := readLog(t, path)

	if !strings.Contains(content, "INFO [integrity] – check started (/music/a.flac)") {
		t.Fatalf("unexpected header: %q", content)
	}
	if !strings.Contains(content, "    - files: 3") {
		t.Fatalf("expected field line, got %q", content)
	}
	if strings.Contains(content, "debug detail") {
		t.Fatalf("debug record leaked at info level: %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	emit, path := newFileLogger(t, logging.Options{Format: "console", Level: "debug"})
	emit()
	content := readLog(t, path)
	if !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
	if !strings.Contains(content, "event_type: scan_detail") {
		t.Fatalf("expected debug record to keep event_type, got %q", content)
	}
}

func TestJSONLoggerAddsRunID(t *testing.T) {
	emit, path := newFileLogger(t, logging.Options{Format: "json", Level: "info", RunID: "run-42"})
	emit()
	line := strings.TrimSpace(readLog(t, path))

	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode json line %q: %v", line, err)
	}
	if payload["run_id"] != "run-42" {
		t.Fatalf("expected run_id attr, got %v", payload)
	}
	if payload["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesRunLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "error"

	logger, err := logging.NewFromConfig(&cfg, "abc")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logging.ErrorWithContext(logger, "store write failed", "store_write_failed", logging.Error(errors.New("disk full")))

	content := readLog(t, logging.RunLogPath(cfg.Paths.LogDir, "abc"))
	if !strings.Contains(content, `"event_type":"store_write_failed"`) {
		t.Fatalf("expected event_type in run log, got %q", content)
	}
	if !strings.Contains(content, `"error_hint"`) {
		t.Fatalf("expected default error_hint in run log, got %q", content)
	}
}

func TestNewFromConfigHonoursOutputs(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = ""
	consolePath := filepath.Join(t.TempDir(), "nested", "console.log")
	cfg.Logging.Outputs = []string{consolePath}

	logger, err := logging.NewFromConfig(&cfg, "")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("sweep finished", logging.Int("removed", 2))

	content := readLog(t, consolePath)
	if !strings.Contains(content, "sweep finished") || !strings.Contains(content, "removed: 2") {
		t.Fatalf("expected console record in configured output, got %q", content)
	}
}

func TestWarnWithContextKeepsExplicitFields(t *testing.T) {
	emitPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Outputs: []string{emitPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logging.WarnWithContext(logger, "slow flush", "flush_slow", logging.String(logging.FieldImpact, "results delayed"))
	content := readLog(t, emitPath)
	if strings.Count(content, `"impact"`) != 1 || !strings.Contains(content, "results delayed") {
		t.Fatalf("expected caller impact to win, got %q", content)
	}
}
