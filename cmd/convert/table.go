package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// column is one column of the result or probe table.
type column struct {
	title string
	align text.Align
}

var (
	resultColumns = []column{
		{title: "File"},
		{title: "Category"},
		{title: "Target"},
		{title: "Status"},
		{title: "Detail"},
	}
	probeColumns = []column{
		{title: "File"},
		{title: "Category"},
		{title: "Size", align: text.AlignRight},
		{title: "Details"},
		{title: "Targets"},
	}
)

// renderTable prints one row per queued file. Rounded borders are used when w
// is a terminal so piped output stays plain ASCII. Short rows are padded.
func renderTable(w io.Writer, columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleDefault)
	if isTerminal(w) {
		tw.SetStyle(table.StyleRounded)
	}

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		align := c.align
		if align == text.AlignDefault {
			align = text.AlignLeft
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

// isTerminal reports whether w is an interactive terminal, including Cygwin
// and MSYS ptys on Windows.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
