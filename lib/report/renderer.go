// Copyright 2024 The bookq authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

var red = color.New(color.FgRed)

// TextRenderer renders a table to text.
type TextRenderer struct {
	Color bool
	Round int32
}

// Render renders the table.
func (r *TextRenderer) Render(t *Table, w io.Writer) error {
	color.NoColor = !r.Color

	widths := make([]int, t.width)
	for _, row := range t.rows {
		for i, c := range row.cells {
			if l := r.minLength(c); widths[i] < l {
				widths[i] = l
			}
		}
	}
	for _, row := range t.rows {
		sep := len(row.cells) > 0 && row.cells[0].isSep()
		if sep {
			if _, err := io.WriteString(w, "+-"); err != nil {
				return err
			}
		} else {
			if _, err := io.WriteString(w, "| "); err != nil {
				return err
			}
		}
		for i, c := range row.cells {
			if err := r.renderCell(c, widths[i], w); err != nil {
				return err
			}
			if i < len(row.cells)-1 {
				if _, err := io.WriteString(w, cellSep(c, row.cells[i+1])); err != nil {
					return err
				}
			}
		}
		end := " |\n"
		if sep {
			end = "-+\n"
		}
		if _, err := io.WriteString(w, end); err != nil {
			return err
		}
	}
	return nil
}

func (r *TextRenderer) renderCell(c cell, width int, w io.Writer) error {
	switch t := c.(type) {
	case emptyCell:
		return pad(w, width)
	case separatorCell:
		_, err := io.WriteString(w, strings.Repeat("-", width))
		return err
	case textCell:
		var before int
		switch t.Align {
		case Left:
			before = t.Indent
		case Right:
			before = width - utf8.RuneCountInString(t.Content)
		case Center:
			before = (width - utf8.RuneCountInString(t.Content)) / 2
		}
		if err := pad(w, before); err != nil {
			return err
		}
		if _, err := io.WriteString(w, t.Content); err != nil {
			return err
		}
		return pad(w, width-before-utf8.RuneCountInString(t.Content))
	case numberCell:
		s := r.format(t.n)
		if err := pad(w, width-utf8.RuneCountInString(s)); err != nil {
			return err
		}
		if t.n.IsNegative() {
			_, err := red.Fprint(w, s)
			return err
		}
		_, err := io.WriteString(w, s)
		return err
	}
	return fmt.Errorf("%v is not a valid cell type", c)
}

func (r *TextRenderer) minLength(c cell) int {
	switch t := c.(type) {
	case textCell:
		if t.Align == Left {
			return t.Indent + utf8.RuneCountInString(t.Content)
		}
		return utf8.RuneCountInString(t.Content)
	case numberCell:
		return utf8.RuneCountInString(r.format(t.n))
	}
	return 0
}

func (r *TextRenderer) format(d decimal.Decimal) string {
	return d.StringFixed(r.Round)
}

func pad(w io.Writer, l int) error {
	if l <= 0 {
		return nil
	}
	_, err := io.WriteString(w, strings.Repeat(" ", l))
	return err
}

func cellSep(c1, c2 cell) string {
	switch {
	case c1.isSep() && c2.isSep():
		return "-+-"
	case c1.isSep():
		return "-+ "
	case c2.isSep():
		return " +-"
	default:
		return " | "
	}
}
