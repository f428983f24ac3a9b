// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package logger writes log lines to stdout and a log file, and fans
// them out to subscribers for the live log stream.
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

// Logger writes to stdout plus an optional file and broadcasts every
// line to subscribed channels.
type Logger struct {
	file   *os.File
	logger *log.Logger

	subMu       sync.Mutex
	subscribers map[chan string]struct{}

	mu     sync.RWMutex
	closed bool
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the default logger, writing to the given file in
// addition to stdout. Subsequent calls return the first logger.
func Init(logFile string) (*Logger, error) {
	var err error
	once.Do(func() {
		defaultLogger, err = New(logFile)
	})
	return defaultLogger, err
}

// New creates a logger appending to logFile. An empty logFile logs to
// stdout only.
func New(logFile string) (*Logger, error) {
	var w io.Writer = os.Stdout
	var file *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		w = io.MultiWriter(os.Stdout, f)
	}

	return &Logger{
		file:        file,
		logger:      log.New(w, "", log.LstdFlags),
		subscribers: make(map[chan string]struct{}),
	}, nil
}

// Default returns the default logger, creating a stdout-only fallback
// if Init was never called.
func Default() *Logger {
	if defaultLogger == nil {
		defaultLogger = &Logger{
			logger:      log.New(os.Stdout, "", log.LstdFlags),
			subscribers: make(map[chan string]struct{}),
		}
	}
	return defaultLogger
}

// Subscribe registers a channel that receives every log line until
// Unsubscribe is called. Slow subscribers drop lines rather than block
// logging.
func (l *Logger) Subscribe() chan string {
	ch := make(chan string, 32)
	l.subMu.Lock()
	l.subscribers[ch] = struct{}{}
	l.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (l *Logger) Unsubscribe(ch chan string) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	if _, ok := l.subscribers[ch]; ok {
		delete(l.subscribers, ch)
		close(ch)
	}
}

func (l *Logger) logMessage(level, format string, v ...interface{}) {
	l.mu.RLock()
	closed := l.closed
	l.mu.RUnlock()
	if closed {
		return
	}

	message := fmt.Sprintf(format, v...)
	line := fmt.Sprintf("[%s] [%s] %s", time.Now().Format("2006-01-02 15:04:05"), level, message)

	l.logger.Output(3, line)

	l.subMu.Lock()
	for ch := range l.subscribers {
		select {
		case ch <- line:
		default:
		}
	}
	l.subMu.Unlock()
}

// Printf logs at INFO level.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.logMessage("INFO", format, v...)
}

// Errorf logs at ERROR level.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logMessage("ERROR", format, v...)
}

// Warnf logs at WARN level.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logMessage("WARN", format, v...)
}

// Fatalf logs at FATAL level and exits.
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.logMessage("FATAL", format, v...)
	os.Exit(1)
}

// Writer adapts the logger into an io.Writer so the stdlib log package
// can be pointed at it with log.SetOutput. Callers should also clear
// the stdlib flags to avoid double timestamps.
func (l *Logger) Writer() io.Writer {
	return broadcastWriter{l: l}
}

type broadcastWriter struct {
	l *Logger
}

func (w broadcastWriter) Write(p []byte) (int, error) {
	w.l.logMessage("INFO", "%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Close closes the log file and all subscriber channels.
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.subMu.Lock()
	for ch := range l.subscribers {
		close(ch)
	}
	l.subscribers = make(map[chan string]struct{})
	l.subMu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Package-level convenience functions using the default logger.

func Printf(format string, v ...interface{}) { Default().Printf(format, v...) }

func Errorf(format string, v ...interface{}) { Default().Errorf(format, v...) }

func Warnf(format string, v ...interface{}) { Default().Warnf(format, v...) }

func Fatalf(format string, v ...interface{}) { Default().Fatalf(format, v...) }
