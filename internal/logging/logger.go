// Package logging provides the leveled logger used across livechart.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileName is the name of the active log file inside the log directory.
const FileName = "livechart.log"

// Logger tees the standard logger to stdout and a log file.
type Logger struct {
	*log.Logger
	file *os.File
	dir  string
	mu   sync.Mutex
}

var (
	defaultLogger *Logger
	initMu        sync.Mutex
)

// Initialize sets up file logging in logDir. Calling it again is a no-op.
func Initialize(logDir string) error {
	initMu.Lock()
	defer initMu.Unlock()

	if defaultLogger != nil {
		return nil
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := openLogFile(logDir)
	if err != nil {
		return err
	}

	out := io.MultiWriter(os.Stdout, file)
	defaultLogger = &Logger{
		Logger: log.New(out, "", log.LstdFlags|log.Lshortfile),
		file:   file,
		dir:    logDir,
	}
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	log.Printf("Logging initialized: %s", filepath.Join(logDir, FileName))
	return nil
}

// Close closes the log file and falls back to stdout-only logging.
func Close() error {
	initMu.Lock()
	defer initMu.Unlock()

	if defaultLogger == nil {
		return nil
	}
	err := defaultLogger.file.Close()
	defaultLogger = nil
	log.SetOutput(os.Stderr)
	return err
}

// Printf logs a formatted message
func Printf(format string, v ...interface{}) {
	output(fmt.Sprintf(format, v...))
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	output("[ERROR] " + fmt.Sprintf(format, v...))
}

// Warning logs a warning message
func Warning(format string, v ...interface{}) {
	output("[WARN] " + fmt.Sprintf(format, v...))
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	output("[INFO] " + fmt.Sprintf(format, v...))
}

// Debug logs only when DEBUG=true
func Debug(format string, v ...interface{}) {
	if os.Getenv("DEBUG") != "true" {
		return
	}
	output("[DEBUG] " + fmt.Sprintf(format, v...))
}

// Fatal logs an error message and exits
func Fatal(format string, v ...interface{}) {
	output("[FATAL] " + fmt.Sprintf(format, v...))
	os.Exit(1)
}

func output(msg string) {
	// calldepth 3: output -> level helper -> caller
	initMu.Lock()
	l := defaultLogger
	initMu.Unlock()

	if l != nil {
		l.mu.Lock()
		defer l.mu.Unlock()
		_ = l.Output(3, msg)
		return
	}
	_ = log.Output(3, msg)
}

// RotateLogs moves the active log file aside with a timestamp suffix and
// reopens a fresh one.
func RotateLogs() error {
	initMu.Lock()
	l := defaultLogger
	initMu.Unlock()

	if l == nil {
		return fmt.Errorf("logger not initialized")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close current log file: %w", err)
	}

	current := filepath.Join(l.dir, FileName)
	rotated := filepath.Join(l.dir, fmt.Sprintf("livechart-%s.log", time.Now().Format("20060102-150405")))
	renameErr := os.Rename(current, rotated)

	file, err := openLogFile(l.dir)
	if err != nil {
		return err
	}
	l.file = file
	out := io.MultiWriter(os.Stdout, file)
	l.SetOutput(out)
	log.SetOutput(out)

	if renameErr != nil {
		return fmt.Errorf("failed to rotate log file: %w", renameErr)
	}
	l.Printf("Log rotation completed: %s", rotated)
	return nil
}

func openLogFile(dir string) (*os.File, error) {
	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}
