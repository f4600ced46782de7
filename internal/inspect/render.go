package inspect

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Render writes the report as human readable tables
func (rep *Report) Render(w io.Writer) error {
	var out []string
	out = append(out, renderTable(
		[]string{"File", "Byte order", "IFDs", "UUID", "Creator"},
		[][]string{{rep.Path, rep.ByteOrder, strconv.Itoa(rep.IFDs), rep.UUID, rep.Creator}},
		nil,
	))

	if p := rep.Plate; p != nil {
		out = append(out, renderTable(
			[]string{"Plate", "Rows", "Columns", "Wells", "Samples"},
			[][]string{{p.Name, strconv.Itoa(p.Rows), strconv.Itoa(p.Columns), strconv.Itoa(p.Wells), strconv.Itoa(p.Samples)}},
			[]text.Align{text.AlignLeft, text.AlignRight, text.AlignRight, text.AlignRight, text.AlignRight},
		))
	}

	rows := make([][]string, 0, len(rep.Series))
	for _, s := range rep.Series {
		rows = append(rows, []string{
			strconv.Itoa(s.Index),
			s.Name,
			dash(s.Well),
			strconv.Itoa(s.Fields),
			fmt.Sprintf("%dx%dx%d", s.SizeX, s.SizeY, s.SizeT),
			s.Type,
			s.Order,
			strconv.Itoa(s.Planes),
			dash(s.Modulo),
		})
	}
	out = append(out, renderTable(
		[]string{"Series", "Name", "Well", "Fields", "XxYxT", "Type", "Order", "Planes", "Modulo T"},
		rows,
		[]text.Align{text.AlignRight, text.AlignLeft, text.AlignLeft, text.AlignRight},
	))

	if len(rep.Planes) > 0 {
		rows = rows[:0]
		for _, p := range rep.Planes {
			rows = append(rows, []string{
				strconv.Itoa(p.IFD),
				strconv.Itoa(p.Series),
				strconv.Itoa(p.T),
				formatFloat(p.Min),
				formatFloat(p.Max),
				formatFloat(p.Mean),
				formatFloat(p.StdDev),
			})
		}
		right := text.AlignRight
		out = append(out, renderTable(
			[]string{"IFD", "Series", "T", "Min", "Max", "Mean", "StdDev"},
			rows,
			[]text.Align{right, right, right, right, right, right, right},
		))
	}

	for _, t := range out {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return err
		}
	}
	return nil
}

func renderTable(headers []string, rows [][]string, aligns []text.Align) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(aligns) {
			align = aligns[i]
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
