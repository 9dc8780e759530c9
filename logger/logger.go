package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/zhubert/cubensis-link/paths"
)

var (
	root     *slog.Logger
	levelVar = new(slog.LevelVar)
	logFile  *os.File
	mu       sync.Mutex
	initDone bool
)

// DefaultLogPath returns the log file used when Init is never called.
func DefaultLogPath() (string, error) {
	dir, err := paths.LogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cubensis-link.log"), nil
}

// SetDebug enables or disables debug level logging
func SetDebug(enabled bool) {
	if enabled {
		levelVar.Set(slog.LevelDebug)
	} else {
		levelVar.Set(slog.LevelInfo)
	}
}

// Init opens path for appending and makes it the log sink. Subsequent calls are
// no-ops until Reset.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if initDone {
		return nil
	}
	if err := open(path); err != nil {
		return err
	}
	root.Info("logger initialized", "path", path)
	return nil
}

// open installs a text handler writing to path. Caller must hold mu.
func open(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	logFile = f
	root = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar}))
	initDone = true
	return nil
}

// ensureInit falls back to DefaultLogPath. Caller must hold mu.
func ensureInit() {
	if initDone {
		return
	}

	path, err := DefaultLogPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to get default log path: %v\n", err)
		return
	}
	if err := open(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}
	root.Info("logger initialized", "path", path)
}

// Get returns the root logger instance.
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	ensureInit()

	if root == nil {
		return slog.Default()
	}
	return root
}

// WithSession returns a logger tagged with an activation's session id.
//
//	log := logger.WithSession(id)
//	log.Info("command registered", "command", "cubensis-link.SetProjectWithHotReload")
//	// level=INFO msg="command registered" sessionID=9f1c... command=cubensis-link.SetProjectWithHotReload
func WithSession(sessionID string) *slog.Logger {
	return Get().With("sessionID", sessionID)
}

// WithComponent returns a logger tagged with a component name.
func WithComponent(component string) *slog.Logger {
	return Get().With("component", component)
}

// Close closes the log file
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	root = nil
}

// Reset drops all logger state so Init can run again. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	initDone = false
	root = nil
	levelVar = new(slog.LevelVar)
}

// ClearLogs removes every *.log file in the logs directory and returns how many
// were deleted.
func ClearLogs() (int, error) {
	dir, err := paths.LogsDir()
	if err != nil {
		return 0, fmt.Errorf("failed to get logs directory: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return 0, err
	}

	count := 0
	for _, f := range files {
		if err := os.Remove(f); err == nil {
			count++
		} else if !os.IsNotExist(err) {
			return count, err
		}
	}
	return count, nil
}
