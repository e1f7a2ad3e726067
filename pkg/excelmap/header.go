package excelmap

import (
	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"
)

// column is the projected layout of one header column.
type column struct {
	title  string
	hint   string
	width  float64
	hidden bool
}

// projectColumns pairs titles with widths. When widths does not have one entry
// per title every column gets its natural width.
func projectColumns(titles, hints []string, widths []int) []column {
	useWidths := widths != nil && len(widths) == len(titles)

	cols := make([]column, len(titles))
	for i, title := range titles {
		c := column{title: title}
		if i < len(hints) {
			c.hint = hints[i]
		}
		w := WidthAuto
		if useWidths {
			w = widths[i]
		}
		switch {
		case w == WidthHidden:
			c.hidden = true
		case w > 0:
			c.width = float64(w)
		default:
			c.width = naturalWidth(title)
		}
		if c.width > excelize.MaxColumnWidth {
			c.width = excelize.MaxColumnWidth
		}
		cols[i] = c
	}
	return cols
}

// naturalWidth sizes a column to its header text, counting wide runes twice.
func naturalWidth(title string) float64 {
	w := float64(runewidth.StringWidth(title) + 2)
	if w < MinAutoWidth {
		return MinAutoWidth
	}
	return w
}
