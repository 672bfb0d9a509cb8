package report

import (
	"encoding/csv"
	"io"
)

// CSVRenderer renders a table as CSV, skipping separator and
// all-empty rows.
type CSVRenderer struct {
	Round int32
}

// Render renders the table.
func (r *CSVRenderer) Render(t *Table, w io.Writer) error {
	writer := csv.NewWriter(w)
	for _, row := range t.rows {
		rec := make([]string, 0, len(row.cells))
		var hasText bool
		for _, c := range row.cells {
			s := r.renderCell(c)
			if s != "" {
				hasText = true
			}
			rec = append(rec, s)
		}
		if !hasText {
			continue
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func (r *CSVRenderer) renderCell(c cell) string {
	switch t := c.(type) {
	case textCell:
		return t.Content
	case numberCell:
		return t.n.StringFixed(r.Round)
	}
	return ""
}
