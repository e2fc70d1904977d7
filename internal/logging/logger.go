// Package logging provides categorized file-based logging for sentinel.
// Logs are written to <state dir>/logs with a separate file per category.
// When debug mode is off, Debug lines are suppressed.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup and wiring
	CategoryPrivacy    Category = "privacy"    // Classification, redaction, vault
	CategoryPerception Category = "perception" // Provider probing and generation
	CategoryRouting    Category = "routing"    // Local vs cloud path decisions
	CategoryInterpret  Category = "interpret"  // Instruction interpretation
	CategoryDispatch   Category = "dispatch"   // Action validation and execution
	CategoryServer     Category = "server"     // HTTP surface
)

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	debugMode bool
	stateMu   sync.RWMutex
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

// Initialize sets up the logging directory. Safe to call once at startup;
// before initialization all logging is a no-op.
func Initialize(stateDir string, debug bool) error {
	if stateDir == "" {
		return fmt.Errorf("state dir required")
	}
	dir := filepath.Join(stateDir, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}
	stateMu.Lock()
	logsDir = dir
	debugMode = debug
	stateMu.Unlock()
	return nil
}

// IsDebugMode reports whether debug logging is enabled.
func IsDebugMode() bool {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return debugMode
}

// Get returns the logger for a category, creating its file lazily.
// Returns nil when logging has not been initialized; a nil *Logger is
// safe to call.
func Get(category Category) *Logger {
	stateMu.RLock()
	dir := logsDir
	stateMu.RUnlock()
	if dir == "" {
		return nil
	}

	loggersMu.RLock()
	l, ok := loggers[category]
	loggersMu.RUnlock()
	if ok {
		return l
	}

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	path := filepath.Join(dir, string(category)+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	l = &Logger{
		category: category,
		logger:   log.New(f, "", log.LstdFlags|log.Lmicroseconds),
		file:     f,
	}
	loggers[category] = l
	return l
}

// Info writes an info-level line.
func (l *Logger) Info(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.logger.Printf("[INFO] "+format, args...)
}

// Debug writes a debug-level line when debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l == nil || !IsDebugMode() {
		return
	}
	l.logger.Printf("[DEBUG] "+format, args...)
}

// Warn writes a warn-level line.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.logger.Printf("[WARN] "+format, args...)
}

// Error writes an error-level line.
func (l *Logger) Error(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.logger.Printf("[ERROR] "+format, args...)
}

// CloseAll closes every open log file. Called on shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for cat, l := range loggers {
		if l.file != nil {
			_ = l.file.Close()
		}
		delete(loggers, cat)
	}
}

// Convenience helpers, one pair per category, matching call sites like
// logging.Routing("cloud path rejected: %s", reason).

func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debug(format, args...)
}

func Privacy(format string, args ...interface{}) { Get(CategoryPrivacy).Info(format, args...) }
func PrivacyDebug(format string, args ...interface{}) {
	Get(CategoryPrivacy).Debug(format, args...)
}

func Perception(format string, args ...interface{}) { Get(CategoryPerception).Info(format, args...) }
func PerceptionDebug(format string, args ...interface{}) {
	Get(CategoryPerception).Debug(format, args...)
}

func Routing(format string, args ...interface{}) { Get(CategoryRouting).Info(format, args...) }
func RoutingDebug(format string, args ...interface{}) {
	Get(CategoryRouting).Debug(format, args...)
}

func Interpret(format string, args ...interface{}) { Get(CategoryInterpret).Info(format, args...) }
func InterpretDebug(format string, args ...interface{}) {
	Get(CategoryInterpret).Debug(format, args...)
}

func Dispatch(format string, args ...interface{}) { Get(CategoryDispatch).Info(format, args...) }
func DispatchDebug(format string, args ...interface{}) {
	Get(CategoryDispatch).Debug(format, args...)
}

func Server(format string, args ...interface{}) { Get(CategoryServer).Info(format, args...) }
func ServerDebug(format string, args ...interface{}) {
	Get(CategoryServer).Debug(format, args...)
}
