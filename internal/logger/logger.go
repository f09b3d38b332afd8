// Package logger provides leveled printf-style logging for the service.
// Messages below the configured level are dropped before formatting.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel is used for per-calculation traces such as rate floors and rule matches.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel reports recoverable problems, e.g. a statistics fetch that will be retried.
	WarnLevel
	// ErrorLevel reports failed requests and notifications.
	ErrorLevel
)

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps a level name to a Level. Unknown names fall back to InfoLevel.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type leveled struct {
	level  Level
	logger *log.Logger
}

var (
	mu            sync.RWMutex
	defaultLogger *leveled
)

// Init initializes the default logger with the specified level and format.
// The "text" format adds the caller's file and line to each entry.
func Init(level string, format string) {
	InitWithWriter(os.Stderr, level, format)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(w io.Writer, level string, format string) {
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}

	mu.Lock()
	defaultLogger = &leveled{
		level:  ParseLevel(level),
		logger: log.New(w, "", flags),
	}
	mu.Unlock()
}

// Enabled reports whether messages at level l would be written.
func Enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger != nil && defaultLogger.level <= l
}

func output(l Level, tag, format string, args ...interface{}) {
	mu.RLock()
	lg := defaultLogger
	mu.RUnlock()
	if lg == nil || lg.level > l {
		return
	}
	_ = lg.logger.Output(3, fmt.Sprintf("["+tag+"] "+format, args...))
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	output(DebugLevel, "DEBUG", format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	output(InfoLevel, "INFO", format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	output(WarnLevel, "WARN", format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	output(ErrorLevel, "ERROR", format, args...)
}

// Fatal logs a message and exits with status 1.
func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	mu.RLock()
	lg := defaultLogger
	mu.RUnlock()
	if lg != nil {
		_ = lg.logger.Output(2, msg)
	} else {
		log.Print(msg)
	}
	os.Exit(1)
}
