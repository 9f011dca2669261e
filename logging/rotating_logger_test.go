package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRotatingLoggerWritesDailyFile(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 7, 0)
	rl.now = fixedClock(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	defer rl.Close()

	if _, err := rl.Write([]byte("first\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "pvcohort-2024-03-05.log"))
	if err != nil {
		t.Fatalf("Expected daily log file: %v", err)
	}
	if string(content) != "first\n" {
		t.Errorf("Unexpected content %q", content)
	}
}

func TestRotatingLoggerRotatesOnDayChange(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 7, 0)
	rl.now = fixedClock(time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC))
	defer rl.Close()

	_, _ = rl.Write([]byte("day one\n"))
	rl.now = fixedClock(time.Date(2024, 3, 6, 0, 1, 0, 0, time.UTC))
	_, _ = rl.Write([]byte("day two\n"))

	for _, name := range []string{"pvcohort-2024-03-05.log", "pvcohort-2024-03-06.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
		}
	}
}

func TestRotatingLoggerRotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 7, 10)
	rl.now = fixedClock(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	defer rl.Close()

	_, _ = rl.Write([]byte("12345678\n"))
	_, _ = rl.Write([]byte("abcdefgh\n"))
	_, _ = rl.Write([]byte("ABCDEFGH\n"))

	checks := map[string]string{
		"pvcohort-2024-03-05.log":    "12345678\n",
		"pvcohort-2024-03-05_01.log": "abcdefgh\n",
		"pvcohort-2024-03-05_02.log": "ABCDEFGH\n",
	}
	for name, want := range checks {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
			continue
		}
		if string(got) != want {
			t.Errorf("%s content = %q, want %q", name, got, want)
		}
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	oldFile := filepath.Join(dir, "pvcohort-2024-01-01.log")
	recentFile := filepath.Join(dir, "pvcohort-2024-03-04.log")
	otherFile := filepath.Join(dir, "notes.txt")
	for _, f := range []string{oldFile, recentFile, otherFile} {
		if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	old := now.Add(-60 * 24 * time.Hour)
	_ = os.Chtimes(oldFile, old, old)
	_ = os.Chtimes(otherFile, old, old)
	_ = os.Chtimes(recentFile, now, now)

	rl := NewRotatingLogger(dir, 28, 0)
	rl.now = fixedClock(now)

	deleted, err := rl.cleanupOldLogs()
	if err != nil {
		t.Fatalf("cleanupOldLogs() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted file, got %d", deleted)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("Expected old log file to be removed")
	}
	if _, err := os.Stat(otherFile); err != nil {
		t.Error("Expected unrelated file to be kept")
	}
}

func TestSetupLoggerWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	logger, rl := SetupLogger(dir, slog.LevelError, 7, 1024*1024)
	if rl == nil {
		t.Fatal("Expected a rotating logger")
	}

	logger.Debug("dictionary loaded", "entries", 3)
	if err := rl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files, _ := filepath.Glob(filepath.Join(dir, "pvcohort-*.log"))
	if len(files) != 1 {
		t.Fatalf("Expected one log file, got %v", files)
	}
	content, _ := os.ReadFile(files[0])
	line := strings.TrimSpace(string(content))

	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("Expected JSON record, got %q: %v", line, err)
	}
	if record["msg"] != "dictionary loaded" {
		t.Errorf("msg = %v, want %q", record["msg"], "dictionary loaded")
	}
	if record["entries"] != float64(3) {
		t.Errorf("entries = %v, want 3", record["entries"])
	}
}
