package logger

import "github.com/user/lottie2apng/pkg/ports"

// NoopLogger discards everything. The CLI uses it for --quiet and the
// info command; tests use it wherever log output is irrelevant.
type NoopLogger struct{}

// NewNoop returns a NoopLogger.
func NewNoop() *NoopLogger {
	return &NoopLogger{}
}

func (l *NoopLogger) Debug(string, ...interface{}) {}
func (l *NoopLogger) Info(string, ...interface{})  {}
func (l *NoopLogger) Warn(string, ...interface{})  {}
func (l *NoopLogger) Error(string, ...interface{}) {}

// WithComponent returns l.
func (l *NoopLogger) WithComponent(string) ports.Logger {
	return l
}

var _ ports.Logger = (*NoopLogger)(nil)
