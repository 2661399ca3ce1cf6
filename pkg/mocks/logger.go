package mocks

import (
	"fmt"
	"sync"

	"github.com/user/lottie2apng/pkg/ports"
)

// LogEntry is one recorded log call.
type LogEntry struct {
	Level     ports.LogLevel
	Component string
	Message   string // formatted, untranslated
}

// Logger records every log call. Loggers derived with WithComponent share
// the same record.
type Logger struct {
	component string
	mu        *sync.Mutex
	entries   *[]LogEntry
}

// NewLogger creates a recording logger.
func NewLogger() *Logger {
	return &Logger{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
}

func (m *Logger) record(level ports.LogLevel, msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.entries = append(*m.entries, LogEntry{Level: level, Component: m.component, Message: fmt.Sprintf(msg, args...)})
}

func (m *Logger) Debug(msg string, args ...interface{}) { m.record(ports.LevelDebug, msg, args...) }
func (m *Logger) Info(msg string, args ...interface{})  { m.record(ports.LevelInfo, msg, args...) }
func (m *Logger) Warn(msg string, args ...interface{})  { m.record(ports.LevelWarn, msg, args...) }
func (m *Logger) Error(msg string, args ...interface{}) { m.record(ports.LevelError, msg, args...) }

// WithComponent returns a logger tagged with component.
func (m *Logger) WithComponent(component string) ports.Logger {
	return &Logger{component: component, mu: m.mu, entries: m.entries}
}

// Entries returns a copy of all recorded entries.
func (m *Logger) Entries() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LogEntry(nil), *m.entries...)
}

// Count returns the number of entries at level.
func (m *Logger) Count(level ports.LogLevel) int {
	n := 0
	for _, e := range m.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

var _ ports.Logger = (*Logger)(nil)
