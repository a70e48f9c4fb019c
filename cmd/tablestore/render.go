package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// simpleTable provides basic table formatting
type simpleTable struct {
	writer  io.Writer
	headers []string
	rows    [][]string
}

func newTable(w io.Writer) *simpleTable {
	return &simpleTable{writer: w}
}

func (t *simpleTable) Header(headers []string) {
	t.headers = headers
}

func (t *simpleTable) Row(row []string) {
	t.rows = append(t.rows, row)
}

// Render outputs the formatted table
func (t *simpleTable) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}

	colWidths := t.calculateWidths()
	separator := t.buildSeparator(colWidths)

	fmt.Fprintln(t.writer, separator)

	if len(t.headers) > 0 {
		fmt.Fprintln(t.writer, t.formatRow(t.headers, colWidths))
		fmt.Fprintln(t.writer, separator)
	}

	for _, row := range t.rows {
		fmt.Fprintln(t.writer, t.formatRow(row, colWidths))
	}

	fmt.Fprintln(t.writer, separator)
}

// calculateWidths determines the width needed for each column
func (t *simpleTable) calculateWidths() []int {
	numCols := len(t.headers)
	for _, row := range t.rows {
		numCols = max(numCols, len(row))
	}

	widths := make([]int, numCols)
	for i, h := range t.headers {
		widths[i] = max(widths[i], len(h))
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	// Minimum width of 1
	for i := range widths {
		widths[i] = max(widths[i], 1)
	}
	return widths
}

func (t *simpleTable) buildSeparator(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w+2)
	}
	return "+" + strings.Join(parts, "+") + "+"
}

// formatRow formats a single row left-aligned with padding
func (t *simpleTable) formatRow(row []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		parts[i] = " " + cell + strings.Repeat(" ", w-len(cell)+1)
	}
	return "|" + strings.Join(parts, "|") + "|"
}

// renderRecord writes rec as an ASCII table followed by the row count.
func renderRecord(w io.Writer, rec arrow.RecordBatch) {
	t := newTable(w)

	headers := make([]string, rec.NumCols())
	for i, f := range rec.Schema().Fields() {
		headers[i] = f.Name
	}
	t.Header(headers)

	for r := 0; r < int(rec.NumRows()); r++ {
		row := make([]string, rec.NumCols())
		for c, col := range rec.Columns() {
			row[c] = cellString(col, r)
		}
		t.Row(row)
	}
	t.Render()

	fmt.Fprintf(w, "(%d rows)\n", rec.NumRows())
}

func cellString(arr arrow.Array, i int) string {
	if s, ok := cellText(arr, i); ok {
		return s
	}
	return "NULL"
}

// cellText returns the string form of the value at row i. Union cells are
// resolved to the child holding the value. ok is false for NULL.
func cellText(arr arrow.Array, i int) (s string, ok bool) {
	switch a := arr.(type) {
	case *array.Null:
		return "", false
	case *array.DenseUnion:
		return cellText(a.Field(a.ChildID(i)), int(a.ValueOffset(i)))
	case *array.SparseUnion:
		return cellText(a.Field(a.ChildID(i)), i)
	}
	if arr.IsNull(i) {
		return "", false
	}
	return arr.ValueStr(i), true
}

// writeCSV writes rec as CSV with a header line. Null cells are empty.
func writeCSV(w io.Writer, mem memory.Allocator, rec arrow.RecordBatch) error {
	rec = textColumns(mem, rec)
	defer rec.Release()

	cw := csv.NewWriter(w, rec.Schema(), csv.WithHeader(true), csv.WithNullWriter(""))
	if err := cw.Write(rec); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// textColumns returns a record in which every column the CSV writer cannot
// encode directly is replaced by its string form.
func textColumns(mem memory.Allocator, rec arrow.RecordBatch) arrow.RecordBatch {
	fields := rec.Schema().Fields()
	cols := make([]arrow.Array, rec.NumCols())
	for i, col := range rec.Columns() {
		switch col.DataType().ID() {
		case arrow.BOOL, arrow.INT64, arrow.FLOAT64, arrow.STRING:
			col.Retain()
			cols[i] = col
		default:
			b := array.NewStringBuilder(mem)
			for j := 0; j < col.Len(); j++ {
				if v, ok := cellText(col, j); ok {
					b.Append(v)
				} else {
					b.AppendNull()
				}
			}
			cols[i] = b.NewArray()
			b.Release()
			fields[i].Type = arrow.BinaryTypes.String
		}
	}

	out := array.NewRecordBatch(arrow.NewSchema(fields, nil), cols, rec.NumRows())
	for _, c := range cols {
		c.Release()
	}
	return out
}
