package report

import (
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"audiocheck/internal/integrity"
)

// Alignment selects the column alignment used by RenderTable.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// RenderTable draws rows in the rounded box style used across the CLI.
func RenderTable(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// SummaryTable renders run counts as a two-column table.
func SummaryTable(s integrity.Summary) string {
	rows := [][]string{
		{"Total files", humanize.Comma(int64(s.Total))},
		{"Passed", humanize.Comma(int64(s.Passed))},
		{"Failed", humanize.Comma(int64(s.Failed))},
	}
	if s.NotFound > 0 {
		rows = append(rows, []string{"Not found", humanize.Comma(int64(s.NotFound))})
	}
	if s.Errors > 0 {
		rows = append(rows, []string{"Errors", humanize.Comma(int64(s.Errors))})
	}
	return RenderTable([]string{"Summary", "Files"}, rows, []Alignment{AlignLeft, AlignRight})
}
