package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerIsNeverNil(t *testing.T) {
	// The package init must install a usable no-op logger so early
	// callers never hit a nil pointer.
	if Logger == nil {
		t.Fatal("Logger is nil before Initialize")
	}
	// Must not panic
	Logger.Infow("noop logger accepts writes", "key", "value")
}

func TestInitialize(t *testing.T) {
	if err := Initialize(false); err != nil {
		t.Fatalf("Initialize(false) failed: %v", err)
	}
	if JSONOutput {
		t.Error("JSONOutput should be false after Initialize(false)")
	}

	if err := Initialize(true); err != nil {
		t.Fatalf("Initialize(true) failed: %v", err)
	}
	if !JSONOutput {
		t.Error("JSONOutput should be true after Initialize(true)")
	}
}

func TestInitializeWithFile(t *testing.T) {
	dir := t.TempDir()

	path, err := InitializeWithFile(false, dir)
	if err != nil {
		t.Fatalf("InitializeWithFile failed: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "webpify_") || !strings.HasSuffix(base, ".log") {
		t.Errorf("unexpected log file name %q", base)
	}

	Logger.Infow("checkpoint", "index", 100, "processed", 73)
	Logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "checkpoint") {
		t.Errorf("log file missing record, got: %q", string(data))
	}
}
