// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     logging
// Description: Structured logger with named components and key-value fields
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"sync"
	"time"
)

// Logger is a leveled, named logger that writes formatted entries
// to a single output writer. All methods are safe for concurrent use.
type Logger struct {
	mu        sync.Mutex
	level     Level
	formatter Formatter
	output    io.Writer
	name      string
}

// Config represents logger configuration
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
	Name   string
}

var (
	defaultsMu    sync.Mutex
	defaultLevel  = LevelInfo
	defaultFormat = FormatText
)

// SetDefaults changes the level and format used by New. Loggers created
// earlier keep their settings.
func SetDefaults(level Level, format Format) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultLevel = level
	defaultFormat = format
}

// New creates a new logger for the named component with the package
// defaults (info level, text format, stdout unless changed via SetDefaults)
func New(name string) *Logger {
	defaultsMu.Lock()
	level, format := defaultLevel, defaultFormat
	defaultsMu.Unlock()

	return NewWithConfig(Config{
		Level:  level,
		Format: format,
		Name:   name,
	})
}

// NewWithConfig creates a new logger with the specified configuration
func NewWithConfig(config Config) *Logger {
	output := config.Output
	if output == nil {
		output = os.Stdout
	}

	return &Logger{
		level:     config.Level,
		formatter: GetFormatter(config.Format),
		output:    output,
		name:      config.Name,
	}
}

// Named returns a new logger sharing this logger's settings under a
// different component name
func (l *Logger) Named(name string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	return &Logger{
		level:     l.level,
		formatter: l.formatter,
		output:    l.output,
		name:      name,
	}
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current minimum log level
func (l *Logger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Debug logs a debug message with optional key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LevelDebug, msg, keysAndValues...)
}

// Info logs an info message with optional key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LevelInfo, msg, keysAndValues...)
}

// Warn logs a warning message with optional key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LevelWarn, msg, keysAndValues...)
}

// Error logs an error message with optional key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LevelError, msg, keysAndValues...)
}

func (l *Logger) log(level Level, msg string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	entry := &Entry{
		Timestamp: time.Now(),
		Level:     level,
		Logger:    l.name,
		Message:   msg,
		Fields:    toFields(keysAndValues...),
	}

	line, err := l.formatter.Format(entry)
	if err != nil {
		return
	}
	l.output.Write(line)
}

// toFields converts key-value pairs to a field map. Keys that are not
// strings and trailing values without a key are skipped.
func toFields(keysAndValues ...interface{}) map[string]interface{} {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
