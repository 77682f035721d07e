// Package logger is the process-wide diagnostic log. Messages go to a log
// file as slog text records; nothing is logged until Init or InitWriter.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	globalLogger *slog.Logger
	logFile      *os.File
	output       io.Writer
	level        = new(slog.LevelVar) // Info by default
	mu           sync.Mutex
)

// Init initializes the global logger with the specified log file path.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	// Create log file
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	setOutputLocked(f)
	return nil
}

// InitWriter directs the log to w instead of a file.
func InitWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	setOutputLocked(w)
}

func setOutputLocked(w io.Writer) {
	output = w
	globalLogger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})).
		With(slog.String("component", "verify-runner"))
}

// SetVerbose enables debug records.
func SetVerbose(v bool) {
	if v {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	globalLogger = nil
	output = nil
}

func logf(lvl slog.Level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger == nil {
		return
	}
	ctx := context.Background()
	if !globalLogger.Enabled(ctx, lvl) {
		return
	}
	globalLogger.Log(ctx, lvl, fmt.Sprintf(format, v...))
}

// Info logs an info message.
func Info(format string, v ...interface{}) { logf(slog.LevelInfo, format, v...) }

// Debug logs a debug message.
func Debug(format string, v ...interface{}) { logf(slog.LevelDebug, format, v...) }

// Error logs an error message.
func Error(format string, v ...interface{}) { logf(slog.LevelError, format, v...) }

// Warn logs a warning message.
func Warn(format string, v ...interface{}) { logf(slog.LevelWarn, format, v...) }

// GetWriter returns the underlying writer for use by drivers.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if output != nil {
		return output
	}
	return io.Discard
}
