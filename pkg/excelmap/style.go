package excelmap

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// builtInNumFmt maps format codes to excelize built-in number format ids.
var builtInNumFmt = map[string]int{
	"General": 0,
	"0":       1,
	"0.00":    2,
	"@":       49,
}

// styleCache holds the style ids of one sheet. Entries are created on first
// use and never replaced.
type styleCache struct {
	file    *excelize.File
	ids     map[string]int
	perCell bool
}

func newStyleCache(f *excelize.File, perCell bool) *styleCache {
	return &styleCache{
		file:    f,
		ids:     make(map[string]int),
		perCell: perCell,
	}
}

// named returns the id of one of the base styles.
func (c *styleCache) named(key string) (int, error) {
	if id, ok := c.ids[key]; ok {
		return id, nil
	}
	id, err := c.file.NewStyle(baseStyle(key))
	if err != nil {
		return 0, fmt.Errorf("creating %s style: %w", key, err)
	}
	c.ids[key] = id
	return id, nil
}

// data returns the data style of column col. The first call for a column
// decides its alignment and number format; later calls reuse that style. With
// perCell set the style is keyed by alignment and format instead.
func (c *styleCache) data(col int, align Align, format string) (int, error) {
	key := columnStylePrefix + strconv.Itoa(col)
	if c.perCell {
		key = align.styleKey() + "|" + format
	}
	if id, ok := c.ids[key]; ok {
		return id, nil
	}

	style := baseStyle(align.styleKey())
	setNumFmt(style, format)
	id, err := c.file.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("creating style %s: %w", key, err)
	}
	c.ids[key] = id
	return id, nil
}

func setNumFmt(style *excelize.Style, format string) {
	if format == "" {
		return
	}
	if id, ok := builtInNumFmt[format]; ok {
		style.NumFmt = id
		return
	}
	code := format
	style.CustomNumFmt = &code
}

func thinBorders(sides ...string) []excelize.Border {
	borders := make([]excelize.Border, 0, len(sides))
	for _, side := range sides {
		borders = append(borders, excelize.Border{Type: side, Color: "000000", Style: 1})
	}
	return borders
}

// baseStyle returns a fresh copy of the style registered under key.
func baseStyle(key string) *excelize.Style {
	switch key {
	case StyleNone:
		return &excelize.Style{}
	case StyleTitle:
		return &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 16, Family: "Arial"},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}
	case StyleHeader:
		return &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 12, Family: "Arial"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"C0C0C0"}, Pattern: 1},
			Border:    thinBorders("left", "right", "top", "bottom"),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		}
	}

	horizontal := "center"
	switch key {
	case StyleDataLeft:
		horizontal = "left"
	case StyleDataRight:
		horizontal = "right"
	}
	return &excelize.Style{
		Font:      &excelize.Font{Size: 10, Family: "Arial"},
		Border:    thinBorders("left", "right", "bottom"),
		Alignment: &excelize.Alignment{Horizontal: horizontal, Vertical: "center", WrapText: true},
	}
}
