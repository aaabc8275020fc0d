package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
)

// column describes one table column. Numeric columns are right-aligned so
// decimal points line up.
type column struct {
	title   string
	numeric bool
}

func renderTable(columns []column, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	var configs []table.ColumnConfig
	for i, c := range columns {
		header[i] = c.title
		if c.numeric {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

// hz renders a frequency with three decimals, or "-" for the NaN sentinel.
func hz(v float64) string {
	if !domain.HasResult(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// cents renders a signed cent value, or "-" for the NaN sentinel.
func cents(v float64) string {
	if !domain.HasResult(v) {
		return "-"
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if v >= 0 {
		s = "+" + s
	}
	return s
}
