package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitializeWritesFile(t *testing.T) {
	dir := t.TempDir()
	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer Close()

	Warning("dropped %s message", "updateHighchart")

	content, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "[WARN] dropped updateHighchart message") {
		t.Errorf("log file missing warning, got:\n%s", content)
	}
	if !strings.Contains(string(content), "logger_test.go") {
		t.Errorf("log line does not point at the caller, got:\n%s", content)
	}
}

func TestRotateLogs(t *testing.T) {
	if err := RotateLogs(); err == nil {
		t.Error("RotateLogs() before Initialize succeeded")
	}

	dir := t.TempDir()
	if err := Initialize(dir); err != nil {
		t.Fatal(err)
	}
	defer Close()

	Info("before rotation")
	if err := RotateLogs(); err != nil {
		t.Fatalf("RotateLogs() error = %v", err)
	}
	Info("after rotation")

	matches, err := filepath.Glob(filepath.Join(dir, "livechart-*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("rotated files = %v, want 1", matches)
	}

	rotated, _ := os.ReadFile(matches[0])
	if !strings.Contains(string(rotated), "before rotation") {
		t.Errorf("rotated file missing old entries")
	}
	current, _ := os.ReadFile(filepath.Join(dir, FileName))
	if !strings.Contains(string(current), "after rotation") || strings.Contains(string(current), "before rotation") {
		t.Errorf("active file content unexpected:\n%s", current)
	}
}
