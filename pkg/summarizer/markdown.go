package summarizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		if fn != nil {
			f.translate = fn
		}
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a formatter. Labels are English unless a
// translator is given.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{translate: func(s string) string { return s }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Conversion Summary"))

	// Source
	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	b.WriteString(tableHeader(t))
	name := s.Source.Name
	if name == "" {
		name = "-"
	}
	row(&b, t("Name"), name)
	if s.Source.Path != "" {
		row(&b, t("Path"), "`"+s.Source.Path+"`")
	}
	if s.Source.Kind != "" {
		row(&b, t("Format"), s.Source.Kind)
	}
	if s.Source.Renderer != "" {
		row(&b, t("Renderer"), s.Source.Renderer)
	}
	row(&b, t("Size"), fmt.Sprintf("%dx%d", s.Source.Width, s.Source.Height))
	row(&b, t("Frame Rate"), formatFPS(s.Source.FrameRate)+" fps")
	row(&b, t("Frames"), strconv.Itoa(s.Source.TotalFrames))
	row(&b, t("Duration"), fmt.Sprintf("%d ms", s.Source.DurationMs))
	b.WriteString("\n")

	// Settings
	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	b.WriteString(tableHeader(t))
	row(&b, t("Scale"), fmt.Sprintf("%dx", s.Settings.Scale))
	quality := s.Settings.Quality
	if s.Settings.Colors > 0 {
		quality = fmt.Sprintf("%s (%d %s)", quality, s.Settings.Colors, t("colors"))
	}
	row(&b, t("Quality"), quality)
	if s.Settings.TargetFPS == 0 {
		row(&b, t("Target Frame Rate"), t("Native"))
	} else {
		row(&b, t("Target Frame Rate"), formatFPS(s.Settings.TargetFPS)+" fps")
	}
	if s.Settings.LoopCount == 0 {
		row(&b, t("Loop"), t("Infinite"))
	} else {
		row(&b, t("Loop"), strconv.Itoa(s.Settings.LoopCount))
	}
	b.WriteString("\n")

	// Output
	fmt.Fprintf(&b, "## %s\n\n", t("Output"))
	b.WriteString(tableHeader(t))
	if s.Output.Path != "" {
		row(&b, t("Path"), "`"+s.Output.Path+"`")
	}
	if s.Output.Filename != "" {
		row(&b, t("Suggested Filename"), s.Output.Filename)
	}
	row(&b, t("Size"), fmt.Sprintf("%dx%d", s.Output.Width, s.Output.Height))
	row(&b, t("Frame Rate"), formatFPS(s.Output.EffectiveFPS)+" fps")
	row(&b, t("Frames"), fmt.Sprintf("%d / %d", s.Output.SurvivingFrames, s.Output.SampledFrames))
	row(&b, t("Duplicates Folded"), strconv.Itoa(s.Output.DuplicateFrames))
	row(&b, t("Duration"), fmt.Sprintf("%d ms", s.Output.DurationMs))
	row(&b, t("File Size"), formatBytes(s.Output.FileSize))
	if s.Output.Elapsed > 0 {
		row(&b, t("Elapsed"), s.Output.Elapsed.Round(time.Millisecond).String())
	}
	b.WriteString("\n")

	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		footer += fmt.Sprintf(" (lottie2apng %s)", f.version)
	}
	fmt.Fprintf(&b, "---\n\n_%s_\n", footer)

	return b.String()
}

func tableHeader(t func(string) string) string {
	return fmt.Sprintf("| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
}

func row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", label, strings.ReplaceAll(value, "|", `\|`))
}

func formatFPS(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}

// formatBytes renders sizes in binary units.
func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
