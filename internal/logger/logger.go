// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders log severities
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// ParseLevel converts a config value (debug, info, warn, error) to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger wraps the standard log package with file output, level filtering and
// broadcasting to stream subscribers
type Logger struct {
	file        *os.File
	logger      *log.Logger
	level       Level
	broadcast   chan string
	subscribers map[chan string]bool
	subMu       sync.RWMutex
	mu          sync.RWMutex
	closed      bool
}

var (
	defaultLogger *Logger
	defaultMu     sync.Mutex
)

// Init creates the default logger. logFile may be empty for stdout only.
func Init(logFile string, level Level) (*Logger, error) {
	l, err := NewLogger(logFile, level)
	if err != nil {
		return nil, err
	}

	defaultMu.Lock()
	old := defaultLogger
	defaultLogger = l
	defaultMu.Unlock()

	if old != nil {
		old.Close()
	}
	return l, nil
}

// NewLogger creates a new logger instance writing to stdout and, if logFile is set, to that file
func NewLogger(logFile string, level Level) (*Logger, error) {
	var out io.Writer = os.Stdout
	var file *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
	}
	return newLogger(out, file, level), nil
}

// NewWithWriter creates a logger writing to w only
func NewWithWriter(w io.Writer, level Level) *Logger {
	return newLogger(w, nil, level)
}

func newLogger(w io.Writer, file *os.File, level Level) *Logger {
	l := &Logger{
		file:        file,
		logger:      log.New(w, "", log.Lshortfile),
		level:       level,
		broadcast:   make(chan string, 100), // Buffered channel to prevent blocking
		subscribers: make(map[chan string]bool),
	}
	go l.broadcastLoop()
	return l
}

// GetDefault returns the default logger, creating a stdout logger if Init was never called
func GetDefault() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLogger == nil || defaultLogger.isClosed() {
		defaultLogger = newLogger(os.Stdout, nil, LevelInfo)
	}
	return defaultLogger
}

func (l *Logger) isClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// SetLevel changes the minimum level written
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Level returns the minimum level written
func (l *Logger) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// Subscribe registers a per-client channel that receives every log line.
// Returns nil if the logger is closed.
func (l *Logger) Subscribe() chan string {
	if l == nil || l.isClosed() {
		return nil
	}

	clientChan := make(chan string, 10)

	l.subMu.Lock()
	l.subscribers[clientChan] = true
	l.subMu.Unlock()

	return clientChan
}

// Unsubscribe removes a client channel from subscribers and closes it
func (l *Logger) Unsubscribe(ch chan string) {
	if ch == nil {
		return
	}

	l.subMu.Lock()
	defer l.subMu.Unlock()

	if l.subscribers[ch] {
		delete(l.subscribers, ch)
		close(ch)
	}
}

// broadcastLoop forwards lines from the broadcast channel to all subscribers
func (l *Logger) broadcastLoop() {
	defer func() {
		l.subMu.Lock()
		for ch := range l.subscribers {
			close(ch)
		}
		l.subscribers = make(map[chan string]bool)
		l.subMu.Unlock()
	}()

	for logLine := range l.broadcast {
		l.subMu.RLock()
		for ch := range l.subscribers {
			select {
			case ch <- logLine:
			default:
				// Subscriber is slow, drop the line for it
			}
		}
		l.subMu.RUnlock()
	}
}

// logMessage writes a log message and broadcasts it
func (l *Logger) logMessage(level Level, format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed || level < l.level {
		return
	}

	message := fmt.Sprintf(format, v...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	logLine := fmt.Sprintf("[%s] [%s] %s", timestamp, levelNames[level], message)

	l.logger.Output(3, logLine)

	select {
	case l.broadcast <- logLine:
	default:
	}
}

// Printf logs a message at INFO level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.logMessage(LevelInfo, format, v...)
}

// Infof logs a message at INFO level
func (l *Logger) Infof(format string, v ...interface{}) {
	l.logMessage(LevelInfo, format, v...)
}

// Errorf logs a message at ERROR level
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logMessage(LevelError, format, v...)
}

// Warnf logs a message at WARN level
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logMessage(LevelWarn, format, v...)
}

// Debugf logs a message at DEBUG level
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logMessage(LevelDebug, format, v...)
}

// Fatalf logs a message at ERROR level and exits
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.logMessage(LevelError, format, v...)
	os.Exit(1)
}

// Close closes the log file and stops broadcasting
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.broadcast)

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Package-level convenience functions
func Printf(format string, v ...interface{}) {
	GetDefault().logMessage(LevelInfo, format, v...)
}

func Infof(format string, v ...interface{}) {
	GetDefault().logMessage(LevelInfo, format, v...)
}

func Errorf(format string, v ...interface{}) {
	GetDefault().logMessage(LevelError, format, v...)
}

func Warnf(format string, v ...interface{}) {
	GetDefault().logMessage(LevelWarn, format, v...)
}

func Debugf(format string, v ...interface{}) {
	GetDefault().logMessage(LevelDebug, format, v...)
}

func Fatalf(format string, v ...interface{}) {
	GetDefault().logMessage(LevelError, format, v...)
	os.Exit(1)
}
