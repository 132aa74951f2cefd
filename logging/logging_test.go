package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "flowtrans.log")

	logger, err := New(Options{File: path})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Info("query handled", zap.String("query_id", "abc"))
	logger.Debug("hidden at info level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"query handled"`) || !strings.Contains(out, `"query_id":"abc"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if !strings.Contains(out, `"timestamp"`) {
		t.Fatalf("missing timestamp key: %s", out)
	}
	if strings.Contains(out, "hidden at info level") {
		t.Fatalf("debug entry written at info level: %s", out)
	}
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	logger, err := New(Options{Verbose: true})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !logger.Core().Enabled(zap.DebugLevel) {
		t.Fatalf("verbose logger should enable debug level")
	}
}

func TestNewOrNopFallsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// The parent of the log path is a regular file, so MkdirAll fails.
	logger := NewOrNop(Options{File: filepath.Join(blocker, "sub", "x.log")})
	if logger == nil {
		t.Fatalf("NewOrNop returned nil")
	}
	if logger.Core().Enabled(zap.ErrorLevel) {
		t.Fatalf("expected a no-op logger")
	}
}
