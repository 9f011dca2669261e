package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var numberedFileRegex = regexp.MustCompile(`^pvcohort-\d{4}-\d{2}-\d{2}_(\d{2})\.log$`)

// RotatingLogger writes one log file per day, starting a numbered file when
// the size limit is reached
type RotatingLogger struct {
	logDir      string
	currentFile *os.File
	currentDay  string
	currentSize int64
	retention   time.Duration
	maxFileSize int64
	now         func() time.Time
	mu          sync.Mutex
}

// NewRotatingLogger creates a rotating logger keeping retentionDays of files
func NewRotatingLogger(logDir string, retentionDays int, maxFileSize int64) *RotatingLogger {
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionDays) * 24 * time.Hour,
		maxFileSize: maxFileSize,
		now:         time.Now,
	}
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// rotate opens the file for day (caller must hold the lock)
func (rl *RotatingLogger) rotate(day string, full bool) error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
		rl.currentFile = nil
	}

	name := fmt.Sprintf("pvcohort-%s.log", day)
	if full || rl.isFull(filepath.Join(rl.logDir, name)) {
		name = rl.nextNumberedFile(day, full)
	}

	logPath := filepath.Join(rl.logDir, name)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	rl.currentFile = file
	rl.currentDay = day
	rl.currentSize = 0
	if info, err := file.Stat(); err == nil {
		rl.currentSize = info.Size()
	}
	return nil
}

func (rl *RotatingLogger) isFull(path string) bool {
	info, err := os.Stat(path)
	return err == nil && rl.maxFileSize > 0 && info.Size() >= rl.maxFileSize
}

// nextNumberedFile returns the last numbered file of the day if it still has
// room and forceNew is false, otherwise the next free number
func (rl *RotatingLogger) nextNumberedFile(day string, forceNew bool) string {
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, fmt.Sprintf("pvcohort-%s_??.log", day)))

	highest := 0
	var highestPath string
	for _, match := range matches {
		m := numberedFileRegex.FindStringSubmatch(filepath.Base(match))
		if len(m) < 2 {
			continue
		}
		if n, _ := strconv.Atoi(m[1]); n > highest {
			highest = n
			highestPath = match
		}
	}

	if !forceNew && highestPath != "" && !rl.isFull(highestPath) {
		return filepath.Base(highestPath)
	}
	return fmt.Sprintf("pvcohort-%s_%02d.log", day, highest+1)
}

// Write writes data to the current log file
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	day := dayKey(rl.now())
	switch {
	case rl.currentFile == nil || rl.currentDay != day:
		if err := rl.rotate(day, false); err != nil {
			return 0, err
		}
	case rl.maxFileSize > 0 && rl.currentSize+int64(len(p)) > rl.maxFileSize:
		if err := rl.rotate(day, true); err != nil {
			return 0, err
		}
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize += int64(n)
	return n, err
}

// cleanupOldLogs removes log files older than the retention period
func (rl *RotatingLogger) cleanupOldLogs() (int, error) {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := rl.now().Add(-rl.retention)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "pvcohort-") || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(rl.logDir, entry.Name())); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}

// Close closes the current log file
func (rl *RotatingLogger) Close() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile == nil {
		return nil
	}
	err := rl.currentFile.Close()
	rl.currentFile = nil
	return err
}

// SetupLogger configures slog to log text to the console and JSON to a
// rotating file under logDir. When the directory cannot be used, only the
// console logger is returned.
func SetupLogger(logDir string, consoleLevel slog.Level, retentionDays int, maxFileSize int64) (*slog.Logger, *RotatingLogger) {
	consoleHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: consoleLevel,
	})

	if err := os.MkdirAll(logDir, 0755); err != nil {
		consoleLogger := slog.New(consoleHandler)
		consoleLogger.Error("Failed to create logs directory", "error", err)
		return consoleLogger, nil
	}

	rotatingLogger := NewRotatingLogger(logDir, retentionDays, maxFileSize)
	if deleted, err := rotatingLogger.cleanupOldLogs(); err != nil {
		slog.Warn("Failed to cleanup old logs", "error", err)
	} else if deleted > 0 {
		fmt.Fprintf(os.Stderr, "Cleaned up %d old log files\n", deleted)
	}

	fileHandler := slog.NewJSONHandler(rotatingLogger, &slog.HandlerOptions{
		Level: GetFileLogLevel(),
	})

	return slog.New(&multiHandler{
		handlers: []slog.Handler{consoleHandler, fileHandler},
	}), rotatingLogger
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
