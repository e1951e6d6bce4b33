package logger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evdnx/gridtrader/logger"
	"github.com/evdnx/gridtrader/testutils"
)

func TestMockLogger(t *testing.T) {
	l := testutils.NewMockLogger()
	l.Info("hello", logger.String("k", "v"))
	if got := l.LastMessage(); got != "hello" {
		t.Fatalf("expected last message 'hello', got %q", got)
	}
}

func TestZapLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridtrader.log")
	l, err := logger.NewZapLogger(logger.Options{Level: "info", File: path})
	if err != nil {
		t.Fatalf("NewZapLogger failed: %v", err)
	}
	l.Info("grid_initialized", logger.Int64("units", 2), logger.Float64("position", 1200))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"grid_initialized"`) || !strings.Contains(out, `"units":2`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if !strings.Contains(out, `"ts":`) {
		t.Fatalf("expected ts key in output: %s", out)
	}
}

func TestZapLoggerRejectsBadLevel(t *testing.T) {
	if _, err := logger.NewZapLogger(logger.Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
