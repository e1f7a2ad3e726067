package excelmap

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Engine selects how rows reach the workbook.
type Engine int

const (
	// EngineStream writes rows through excelize.StreamWriter. Memory use does
	// not grow with the row count. Hidden columns are written with zero width.
	EngineStream Engine = iota
	// EngineCell writes through the random access cell API.
	EngineCell
)

// ParseEngine parses "stream" or "cell".
func ParseEngine(s string) (Engine, error) {
	switch s {
	case "", "stream":
		return EngineStream, nil
	case "cell":
		return EngineCell, nil
	}
	return EngineStream, fmt.Errorf("unknown engine %q", s)
}

type rowCell struct {
	value interface{}
	style int
}

// sheetWriter is the part of a worksheet the row writers need. Rows arrive in
// strictly increasing order; column layout is set before the first row.
type sheetWriter interface {
	setColWidth(col int, width float64) error
	hideCol(col int) error
	writeRow(row int, cells []rowCell, height float64) error
	merge(topLeft, bottomRight string) error
	comment(cell, author, text string) error
	flush() error
}

func newSheetWriter(engine Engine, f *excelize.File, sheet string) (sheetWriter, error) {
	if engine == EngineCell {
		return &cellWriter{file: f, sheet: sheet}, nil
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, fmt.Errorf("creating stream writer for %s: %w", sheet, err)
	}
	return &streamWriter{file: f, sheet: sheet, sw: sw}, nil
}

// ============================================================================
// Stream engine
// ============================================================================

type streamWriter struct {
	file  *excelize.File
	sheet string
	sw    *excelize.StreamWriter
}

func (w *streamWriter) setColWidth(col int, width float64) error {
	return w.sw.SetColWidth(col, col, width)
}

// hideCol falls back to a zero width; the stream writer has no hidden attribute.
func (w *streamWriter) hideCol(col int) error {
	return w.sw.SetColWidth(col, col, 0)
}

func (w *streamWriter) writeRow(row int, cells []rowCell, height float64) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = excelize.Cell{StyleID: c.style, Value: c.value}
	}
	if height > 0 {
		return w.sw.SetRow(axis, values, excelize.RowOpts{Height: height})
	}
	return w.sw.SetRow(axis, values)
}

func (w *streamWriter) merge(topLeft, bottomRight string) error {
	return w.sw.MergeCell(topLeft, bottomRight)
}

// comment attaches the note to the worksheet before it is flushed.
func (w *streamWriter) comment(cell, author, text string) error {
	return w.file.AddComment(w.sheet, excelize.Comment{Author: author, Cell: cell, Text: text})
}

func (w *streamWriter) flush() error {
	return w.sw.Flush()
}

// ============================================================================
// Cell engine
// ============================================================================

type cellWriter struct {
	file  *excelize.File
	sheet string
}

func (w *cellWriter) setColWidth(col int, width float64) error {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}
	return w.file.SetColWidth(w.sheet, name, name, width)
}

func (w *cellWriter) hideCol(col int) error {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}
	return w.file.SetColVisible(w.sheet, name, false)
}

func (w *cellWriter) writeRow(row int, cells []rowCell, height float64) error {
	for i, c := range cells {
		axis, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if c.value != nil {
			if err := w.file.SetCellValue(w.sheet, axis, c.value); err != nil {
				return err
			}
		}
		if err := w.file.SetCellStyle(w.sheet, axis, axis, c.style); err != nil {
			return err
		}
	}
	if height > 0 {
		return w.file.SetRowHeight(w.sheet, row, height)
	}
	return nil
}

func (w *cellWriter) merge(topLeft, bottomRight string) error {
	return w.file.MergeCell(w.sheet, topLeft, bottomRight)
}

func (w *cellWriter) comment(cell, author, text string) error {
	return w.file.AddComment(w.sheet, excelize.Comment{Author: author, Cell: cell, Text: text})
}

func (w *cellWriter) flush() error {
	return nil
}
