// Package report renders verification query results as bordered text tables.
package report

import (
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Trailer is printed after every rendered result.
const Trailer = "******************"

// maxDisplaySize bounds the declared length taken from the driver. Unbounded
// text columns report math.MaxInt64 through pgx.
const maxDisplaySize = 256

// Column describes one result column.
type Column struct {
	Name string
	// DisplaySize is the declared display length reported by the driver, or 0.
	DisplaySize int64
}

// Width is the rendered width of the column: the larger of the declared
// display length and the header length.
func (c Column) Width() int {
	if c.DisplaySize > int64(len(c.Name)) {
		return int(c.DisplaySize)
	}
	return len(c.Name)
}

// Result is a fully read query result.
type Result struct {
	Columns []Column
	Rows    [][]any
}

// Collect reads all of rows into a Result. It does not close rows.
func Collect(rows *sql.Rows) (*Result, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	res := &Result{Columns: make([]Column, len(types))}
	for i, ct := range types {
		res.Columns[i].Name = ct.Name()
		if n, ok := ct.Length(); ok && n > 0 && n <= maxDisplaySize {
			res.Columns[i].DisplaySize = n
		}
	}

	for rows.Next() {
		values := make([]any, len(types))
		valuePtrs := make([]any, len(types))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		for i, v := range values {
			// Convert []byte to string for readability
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read result rows: %w", err)
	}
	return res, nil
}

// RenderRows collects rows and renders them to w.
func RenderRows(w io.Writer, rows *sql.Rows) error {
	res, err := Collect(rows)
	if err != nil {
		return err
	}
	return Render(w, res)
}

// Render writes res as a bordered table followed by the trailer line.
// A result with no rows renders the header only.
func Render(w io.Writer, res *Result) error {
	if len(res.Columns) == 0 {
		return fmt.Errorf("result has no columns")
	}

	t := table.NewWriter()
	t.SetStyle(Style())

	header := make(table.Row, len(res.Columns))
	configs := make([]table.ColumnConfig, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = col.Name
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			WidthMin:    col.Width(),
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, values := range res.Rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = FormatValue(v)
		}
		t.AppendRow(row)
	}

	var sb strings.Builder
	sb.WriteString(t.Render())
	sb.WriteString("\n")
	sb.WriteString(Trailer)
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// Style is the ASCII box style used for every starload table.
// Headers keep their case.
func Style() table.Style {
	s := table.StyleDefault
	s.Name = "StarloadASCII"
	s.Format.Header = text.FormatDefault
	s.Format.Footer = text.FormatDefault
	return s
}

// FormatValue renders a scanned value for display.
func FormatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
