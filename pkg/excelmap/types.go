package excelmap

import (
	"fmt"
	"strings"
)

// types.go - Field specifications, enums and style keys

// ============================================================================
// Constants & Types
// ============================================================================

const (
	// DefaultSheetName is used when a sheet is created without a name.
	DefaultSheetName = "Sheet1"

	// TagName is the struct tag read by Scan.
	TagName = "excel"

	// HintSeparator splits a title into header text and a header comment.
	HintSeparator = "**"

	// WidthAuto requests the natural column width.
	WidthAuto = -1
	// WidthHidden hides the column.
	WidthHidden = 0
	// MinAutoWidth is the floor applied to natural column widths.
	MinAutoWidth = 12.0

	titleRowHeight  = 30
	headerRowHeight = 16
	totalRowHeight  = 25
	headerMapHeight = 30

	// FormatText is the Excel text format applied to empty values.
	FormatText = "@"
	// FormatInteger is the default format of integer values.
	FormatInteger = "0"
	// FormatDecimal is the default format of floating point values.
	FormatDecimal = "0.00"
	// FormatDateTime is the default format of time values.
	FormatDateTime = "yyyy-MM-dd HH:mm"
)

// ExportKind selects whether a field is used for data exports, import templates
// or both.
type ExportKind int

const (
	KindBoth ExportKind = iota
	KindExport
	KindTemplate
)

func (k ExportKind) String() string {
	switch k {
	case KindExport:
		return "export"
	case KindTemplate:
		return "template"
	default:
		return "both"
	}
}

// ParseExportKind parses "both", "all", "export" or "template".
func ParseExportKind(s string) (ExportKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "all":
		return KindBoth, nil
	case "export", "data":
		return KindExport, nil
	case "template", "import":
		return KindTemplate, nil
	}
	return KindBoth, fmt.Errorf("unknown export type %q", s)
}

// Align is the horizontal alignment of a data column.
type Align int

const (
	AlignAuto Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "auto"
	}
}

// ParseAlign parses "auto", "left", "center" or "right".
func ParseAlign(s string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return AlignAuto, nil
	case "left":
		return AlignLeft, nil
	case "center", "centre":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	}
	return AlignAuto, fmt.Errorf("unknown alignment %q", s)
}

// styleKey maps an alignment to its base data style.
func (a Align) styleKey() string {
	switch a {
	case AlignLeft:
		return StyleDataLeft
	case AlignCenter:
		return StyleDataCenter
	case AlignRight:
		return StyleDataRight
	default:
		return StyleData
	}
}

// Style keys of the per-sheet style cache.
const (
	StyleTitle      = "title"
	StyleHeader     = "header"
	StyleData       = "data"
	StyleDataLeft   = "data-left"
	StyleDataCenter = "data-center"
	StyleDataRight  = "data-right"
	StyleNone       = "none"

	columnStylePrefix = "data_column_"
)

// FieldSpec is one resolved export column.
type FieldSpec struct {
	Title     string
	Attr      string
	Width     int
	Align     Align
	Sort      int
	Kind      ExportKind
	Groups    []string
	DictType  string
	Formatter string
	Format    string

	member string
	method bool
	index  []int
}

// Member returns the name of the struct field or method the spec was declared on.
func (f FieldSpec) Member() string {
	return f.member
}

// HeaderTitle returns the header text for kind. Under KindTemplate the hint after
// "**" is returned as well.
func (f FieldSpec) HeaderTitle(kind ExportKind) (title, hint string) {
	title, hint = SplitTitle(f.Title)
	if kind != KindTemplate {
		hint = ""
	}
	return title, hint
}

// key is the lookup key of the spec: its attribute name, or the member name.
func (f FieldSpec) key() string {
	if f.Attr != "" {
		return f.Attr
	}
	return f.member
}

// inGroups reports whether the spec passes the group filter.
func (f FieldSpec) inGroups(groups []string) bool {
	if len(groups) == 0 {
		return true
	}
	for _, g := range groups {
		for _, own := range f.Groups {
			if g == own {
				return true
			}
		}
	}
	return false
}

// SplitTitle splits s on the first "**".
func SplitTitle(s string) (title, hint string) {
	if i := strings.Index(s, HintSeparator); i >= 0 {
		return s[:i], s[i+len(HintSeparator):]
	}
	return s, ""
}

// HeaderColumn is one entry of an ordered header map.
type HeaderColumn struct {
	Key   string `yaml:"key" json:"key"`
	Title string `yaml:"title" json:"title"`
}

// Cell is an ad-hoc cell written through Sheet.AddRow.
type Cell struct {
	Value     interface{}
	Align     Align
	Format    string
	Formatter string
}
