package ports

import "fmt"

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is for component internals (per-frame capture, palette
	// construction, chunk layout).
	LevelDebug LogLevel = iota
	// LevelInfo is for orchestration-level progress.
	LevelInfo
	// LevelWarn is for recoverable problems such as unsupported document
	// features that are skipped while rendering.
	LevelWarn
	// LevelError is for failures that end a run.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

var levelNames = map[LogLevel]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelQuiet: "quiet",
}

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLogLevel parses a level name. Unknown names yield LevelInfo and an error.
func ParseLogLevel(s string) (LogLevel, error) {
	for level, name := range levelNames {
		if name == s {
			return level, nil
		}
	}
	if s == "" {
		return LevelInfo, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger abstracts logging operations with multi-language support.
// The msg parameter is a message key translated before output.
type Logger interface {
	// Debug logs component-level processing details.
	Debug(msg string, args ...interface{})

	// Info logs orchestration-level progress.
	Info(msg string, args ...interface{})

	// Warn logs recoverable problems.
	Warn(msg string, args ...interface{})

	// Error logs failures.
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that prefixes messages with the component name.
	WithComponent(component string) Logger
}
