// Package summarizer renders conversion summaries.
package summarizer

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/user/lottie2apng/pkg/ports"
)

// Formatter turns a Summary into a document.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc adapts a function to Formatter.
type FormatFunc func(summary *Summary) string

// Format calls f.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// StdoutPath selects the writer's stream output instead of a file.
const StdoutPath = "-"

// Writer saves formatted summaries.
type Writer struct {
	formatter Formatter
	fs        ports.FileSystem
	stdout    io.Writer
}

// NewWriter creates a Writer that stores files through fs and streams
// StdoutPath summaries to stdout.
func NewWriter(formatter Formatter, fs ports.FileSystem, stdout io.Writer) *Writer {
	return &Writer{
		formatter: formatter,
		fs:        fs,
		stdout:    stdout,
	}
}

// Write formats the summary into path, creating its parent directory.
// A path of StdoutPath streams the document instead.
func (w *Writer) Write(path string, summary *Summary) error {
	content := w.formatter.Format(summary)

	if path == StdoutPath {
		if _, err := io.WriteString(w.stdout, content); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := w.fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := w.fs.WriteFile(path, []byte(content)); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
