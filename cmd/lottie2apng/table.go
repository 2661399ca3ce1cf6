package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/ideamans/go-l10n"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/user/lottie2apng/pkg/adapters/apngdecoder"
	"github.com/user/lottie2apng/pkg/adapters/logger"
	"github.com/user/lottie2apng/pkg/adapters/osfilesystem"
	"github.com/user/lottie2apng/pkg/converter"
	"github.com/user/lottie2apng/pkg/pipeline"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = l10n.T(headers[i])
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// Run executes the info command.
func (cmd *InfoCmd) Run() error {
	conv := converter.New(osfilesystem.New(), logger.NewNoop())
	cfg := converter.NewConfigBuilder().Build()

	input, err := conv.Open(cmd.Input, cfg)
	if err != nil {
		return err
	}
	meta := input.Meta

	name := meta.Name
	if name == "" {
		name = l10n.T("Untitled")
	}
	rows := [][]string{
		{l10n.T("Name"), name},
		{l10n.T("Format"), string(input.Kind)},
	}
	if input.Document != nil {
		info := input.Document.Info()
		rows = append(rows,
			[]string{l10n.T("Lottie Version"), info.Version},
			[]string{l10n.T("Layers"), strconv.Itoa(info.Layers)},
			[]string{l10n.T("Renderer"), string(input.Renderer)},
		)
		for _, feature := range input.Document.Unsupported {
			rows = append(rows, []string{l10n.T("Unsupported"), feature})
		}
	}
	rows = append(rows,
		[]string{l10n.T("Size"), fmt.Sprintf("%dx%d", meta.Width, meta.Height)},
		[]string{l10n.T("Frame Rate"), strconv.FormatFloat(meta.FrameRate, 'f', -1, 64) + " fps"},
		[]string{l10n.T("Frames"), strconv.FormatFloat(meta.LastFrame-meta.FirstFrame, 'f', -1, 64)},
		[]string{l10n.T("Duration"), fmt.Sprintf("%.2fs", meta.DurationSeconds())},
	)
	for _, q := range pipeline.Qualities {
		rows = append(rows, []string{
			l10n.F("Quality %s", q),
			l10n.T(converter.GetQualitySettings(q).Description),
		})
	}
	for _, scale := range pipeline.ScaleOptions {
		size := meta.OutputSize(scale)
		rows = append(rows, []string{
			l10n.F("Output at %dx", scale),
			fmt.Sprintf("%dx%d", size.Width, size.Height),
		})
	}

	fmt.Println(renderTable([]string{"Item", "Value"}, rows, nil))
	return nil
}

// Run executes the inspect command.
func (cmd *InspectCmd) Run() error {
	data, err := os.ReadFile(cmd.File)
	if err != nil {
		return pipeline.Wrap(pipeline.ErrValidation, "inspect", "read file", err)
	}
	info, err := apngdecoder.Inspect(bytes.NewReader(data))
	if err != nil {
		return pipeline.Wrap(pipeline.ErrValidation, "inspect", "parse", err)
	}

	plays := l10n.T("Infinite")
	if info.NumPlays > 0 {
		plays = strconv.Itoa(info.NumPlays)
	}
	palette := "-"
	if info.PaletteSize > 0 {
		palette = strconv.Itoa(info.PaletteSize)
	}
	fmt.Println(renderTable([]string{"Item", "Value"}, [][]string{
		{l10n.T("Size"), fmt.Sprintf("%dx%d", info.Width, info.Height)},
		{l10n.T("File Size"), humanize.IBytes(uint64(len(data)))},
		{l10n.T("Animated"), strconv.FormatBool(info.Animated)},
		{l10n.T("Frames"), strconv.Itoa(info.NumFrames)},
		{l10n.T("Loop"), plays},
		{l10n.T("Bit Depth"), strconv.Itoa(info.BitDepth)},
		{l10n.T("Color Type"), strconv.Itoa(info.ColorType)},
		{l10n.T("Palette"), palette},
	}, nil))

	if len(info.Frames) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(info.Frames))
	var total float64
	for i, f := range info.Frames {
		total += f.DelayMs()
		rows = append(rows, []string{
			strconv.Itoa(i),
			fmt.Sprintf("%dx%d", f.Width, f.Height),
			fmt.Sprintf("%d,%d", f.X, f.Y),
			fmt.Sprintf("%d/%d", f.DelayNum, f.DelayDen),
			strconv.FormatFloat(f.DelayMs(), 'f', 1, 64),
			humanize.IBytes(uint64(f.DataBytes)),
		})
	}
	fmt.Println(renderTable(
		[]string{"Frame", "Size", "Offset", "Delay", "Delay (ms)", "Data"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	fmt.Println(l10n.F("Total duration: %.0f ms", total))
	return nil
}
