package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewCreatesDirAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, err := New(dir, "info")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Info("test_message_from_logging_test")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "test_message_from_logging_test") {
		t.Errorf("log file missing message: %q", data)
	}
}

func TestNewConsoleOnly(t *testing.T) {
	log, err := New("", "debug")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level should be enabled")
	}
}

func TestNewBadLevel(t *testing.T) {
	if _, err := New("", "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewLevelFilters(t *testing.T) {
	log, err := New("", "warn")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
}
