package excelmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// SheetConfig describes a sheet. Header titles come from Headers when set,
// otherwise from Schema. Schema is still used to write rows when Headers is
// set, which suits SetDataListByHeader. Widths, when given, replaces the
// schema widths and is ignored unless it has one entry per column.
type SheetConfig struct {
	Name    string
	Title   string
	Schema  *Schema
	Headers []string
	Widths  []int
}

// Sheet is one worksheet of a Session. Rows are appended below the title and
// header rows in order.
type Sheet struct {
	session *Session
	name    string
	schema  *Schema
	columns []column
	writer  sheetWriter
	styles  *styleCache
	log     zerolog.Logger
	row     int
	flushed bool
}

// NewSheet adds a worksheet and writes its title and header rows. The previous
// sheet is flushed and can no longer receive rows.
func (s *Session) NewSheet(ctx context.Context, cfg SheetConfig) (*Sheet, error) {
	if s.disposed {
		return nil, ErrDisposed
	}

	var titles, hints []string
	widths := cfg.Widths
	switch {
	case cfg.Headers != nil:
		titles = make([]string, len(cfg.Headers))
		hints = make([]string, len(cfg.Headers))
		for i, h := range cfg.Headers {
			titles[i], hints[i] = SplitTitle(h)
		}
	case cfg.Schema != nil:
		var schemaWidths []int
		titles, hints, schemaWidths = cfg.Schema.Headers()
		if widths == nil {
			widths = schemaWidths
		}
	default:
		return nil, ErrHeaderRequired
	}

	name := cfg.Name
	if name == "" {
		name = DefaultSheetName
	}
	if err := s.addWorksheet(name); err != nil {
		return nil, err
	}
	sh, err := s.openSheet(name, cfg, titles, hints, widths)
	if err != nil {
		s.removeWorksheet(name)
		return nil, err
	}

	s.sheets = append(s.sheets, sh)
	s.current = sh
	sh.log.Debug().Int("columns", len(sh.columns)).Msg("sheet created")
	return sh, nil
}

// openSheet flushes the previous sheet and writes the layout, title and
// header rows of a worksheet added by addWorksheet.
func (s *Session) openSheet(name string, cfg SheetConfig, titles, hints []string, widths []int) (*Sheet, error) {
	if s.current != nil {
		if err := s.current.Flush(); err != nil {
			return nil, err
		}
	}

	w, err := newSheetWriter(s.opts.engine, s.file, name)
	if err != nil {
		return nil, err
	}

	sh := &Sheet{
		session: s,
		name:    name,
		schema:  cfg.Schema,
		columns: projectColumns(titles, hints, widths),
		writer:  w,
		styles:  newStyleCache(s.file, s.opts.perCell),
		log:     s.log.With().Str("sheet", name).Logger(),
	}
	if err := sh.writeLayout(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Title) != "" {
		if err := sh.writeTitle(cfg.Title); err != nil {
			return nil, err
		}
	}
	if err := sh.writeHeader(); err != nil {
		return nil, err
	}
	return sh, nil
}

// removeWorksheet undoes addWorksheet after a failed NewSheet.
func (s *Session) removeWorksheet(name string) {
	var err error
	if len(s.sheets) == 0 {
		err = s.file.SetSheetName(name, DefaultSheetName)
	} else {
		err = s.file.DeleteSheet(name)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("sheet", name).Msg("removing worksheet of failed sheet")
	}
}

// addWorksheet renames the default worksheet for the first sheet and appends
// a new one afterwards.
func (s *Session) addWorksheet(name string) error {
	if len(s.sheets) == 0 {
		if err := s.file.SetSheetName(DefaultSheetName, name); err != nil {
			return fmt.Errorf("naming sheet %q: %w", name, err)
		}
		return nil
	}
	idx, err := s.file.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("naming sheet %q: %w", name, err)
	}
	if idx != -1 {
		return fmt.Errorf("sheet %q already exists", name)
	}
	if _, err := s.file.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %q: %w", name, err)
	}
	return nil
}

// Name returns the worksheet name.
func (sh *Sheet) Name() string {
	return sh.name
}

// Schema returns the schema the sheet was created with, if any.
func (sh *Sheet) Schema() *Schema {
	return sh.schema
}

// ColumnCount returns the number of header columns.
func (sh *Sheet) ColumnCount() int {
	return len(sh.columns)
}

// LastRow returns the 1-based index of the last written row.
func (sh *Sheet) LastRow() int {
	return sh.row
}

func (sh *Sheet) writeLayout() error {
	for i, c := range sh.columns {
		col := i + 1
		if c.hidden {
			if err := sh.writer.hideCol(col); err != nil {
				return fmt.Errorf("hiding column %d: %w", col, err)
			}
			continue
		}
		if err := sh.writer.setColWidth(col, c.width); err != nil {
			return fmt.Errorf("setting width of column %d: %w", col, err)
		}
	}
	return nil
}

func (sh *Sheet) writeTitle(title string) error {
	style, err := sh.styles.named(StyleTitle)
	if err != nil {
		return err
	}
	row, err := sh.next([]rowCell{{value: title, style: style}}, titleRowHeight)
	if err != nil {
		return err
	}
	if len(sh.columns) > 1 {
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(sh.columns), row)
		if err := sh.writer.merge(first, last); err != nil {
			return fmt.Errorf("merging title: %w", err)
		}
	}
	return nil
}

func (sh *Sheet) writeHeader() error {
	style, err := sh.styles.named(StyleHeader)
	if err != nil {
		return err
	}
	cells := make([]rowCell, len(sh.columns))
	for i, c := range sh.columns {
		cells[i] = rowCell{value: c.title, style: style}
	}
	row, err := sh.next(cells, headerRowHeight)
	if err != nil {
		return err
	}
	for i, c := range sh.columns {
		if c.hint == "" {
			continue
		}
		axis, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := sh.writer.comment(axis, sh.session.opts.author, c.hint); err != nil {
			return fmt.Errorf("adding comment to %s: %w", axis, err)
		}
	}
	return nil
}

// next writes cells to the row below the last one and returns its index.
func (sh *Sheet) next(cells []rowCell, height float64) (int, error) {
	if sh.flushed {
		return 0, fmt.Errorf("sheet %q is already flushed", sh.name)
	}
	row := sh.row + 1
	if err := sh.writer.writeRow(row, cells, height); err != nil {
		return 0, fmt.Errorf("writing %s row %d: %w", sh.name, row, err)
	}
	sh.row = row
	return row, nil
}

// Flush ends the sheet. Further rows are rejected.
func (sh *Sheet) Flush() error {
	if sh.flushed {
		return nil
	}
	sh.flushed = true
	if err := sh.writer.flush(); err != nil {
		return fmt.Errorf("flushing sheet %s: %w", sh.name, err)
	}
	sh.log.Debug().Int("rows", sh.row).Msg("sheet flushed")
	return nil
}
