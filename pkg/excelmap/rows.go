package excelmap

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// AppendRow writes obj as one data row, one cell per schema field.
func (sh *Sheet) AppendRow(ctx context.Context, obj interface{}) error {
	if sh.schema == nil {
		return ErrSchemaRequired
	}
	return sh.appendValue(ctx, reflect.ValueOf(obj))
}

// SetDataList writes every element of list, which must be a slice or array, as
// a data row.
func (sh *Sheet) SetDataList(ctx context.Context, list interface{}) error {
	if sh.schema == nil {
		return ErrSchemaRequired
	}
	lv, err := listValue(list)
	if err != nil {
		return err
	}
	for i := 0; i < lv.Len(); i++ {
		if err := sh.appendValue(ctx, lv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// SetDataListByHeader writes list in the column order of headers. Each header
// key takes the first schema field whose Attr equals it; keys without a field
// get an empty text cell. When sums is not nil a total row follows the data.
func (sh *Sheet) SetDataListByHeader(ctx context.Context, list interface{}, headers []HeaderColumn, sums map[string]float64) error {
	if sh.schema == nil {
		return ErrSchemaRequired
	}
	lv, err := listValue(list)
	if err != nil {
		return err
	}

	fields := make([]int, len(headers))
	for i, h := range headers {
		idx, ok := sh.schema.FieldByAttr(h.Key)
		if !ok {
			idx = -1
		}
		fields[i] = idx
	}

	for i := 0; i < lv.Len(); i++ {
		rv := unwrap(lv.Index(i))
		acc := sh.schema.accessors(typeOf(rv))
		fo := formatOverrider(rv)
		row := sh.row + 1

		cells := make([]rowCell, len(headers))
		for col, idx := range fields {
			if idx < 0 {
				c, err := sh.cell(row, col+1, headers[col].Key, nil, "", AlignAuto, FormatText)
				if err != nil {
					return err
				}
				cells[col] = c
				continue
			}
			c, err := sh.fieldCell(ctx, row, col+1, &sh.schema.Fields[idx], acc[idx], rv, fo)
			if err != nil {
				return err
			}
			cells[col] = c
		}
		if _, err := sh.next(cells, 0); err != nil {
			return err
		}
	}

	if sums != nil {
		return sh.AddTotalRow(headers, sums)
	}
	return nil
}

// AddHeaderRow writes an extra header row with the titles of headers.
func (sh *Sheet) AddHeaderRow(headers []HeaderColumn) error {
	style, err := sh.styles.named(StyleHeader)
	if err != nil {
		return err
	}
	cells := make([]rowCell, len(headers))
	for i, h := range headers {
		cells[i] = rowCell{value: h.Title, style: style}
	}
	_, err = sh.next(cells, headerMapHeight)
	return err
}

// AddTotalRow writes a total row. Columns whose key is in sums show the sum in
// the header style; the rest are empty. With nil headers the schema field keys
// are used.
func (sh *Sheet) AddTotalRow(headers []HeaderColumn, sums map[string]float64) error {
	if headers == nil && sh.schema != nil {
		headers = make([]HeaderColumn, len(sh.schema.Fields))
		for i, f := range sh.schema.Fields {
			headers[i] = HeaderColumn{Key: f.key(), Title: f.Title}
		}
	}
	total, err := sh.styles.named(StyleHeader)
	if err != nil {
		return err
	}
	none, err := sh.styles.named(StyleNone)
	if err != nil {
		return err
	}

	cells := make([]rowCell, len(headers))
	for i, h := range headers {
		if sum, ok := sums[h.Key]; ok {
			cells[i] = rowCell{value: sum, style: total}
			continue
		}
		cells[i] = rowCell{value: "", style: none}
	}
	_, err = sh.next(cells, totalRowHeight)
	return err
}

// AddRow writes ad-hoc cells through the same coercion and styling as data rows.
func (sh *Sheet) AddRow(ctx context.Context, cells ...Cell) error {
	row := sh.row + 1
	out := make([]rowCell, len(cells))
	for i, c := range cells {
		rc, err := sh.cell(row, i+1, "", c.Value, c.Formatter, c.Align, c.Format)
		if err != nil {
			return err
		}
		out[i] = rc
	}
	_, err := sh.next(out, 0)
	return err
}

func (sh *Sheet) appendValue(ctx context.Context, rv reflect.Value) error {
	rv = unwrap(rv)
	acc := sh.schema.accessors(typeOf(rv))
	fo := formatOverrider(rv)
	row := sh.row + 1

	cells := make([]rowCell, len(sh.schema.Fields))
	for i := range sh.schema.Fields {
		c, err := sh.fieldCell(ctx, row, i+1, &sh.schema.Fields[i], acc[i], rv, fo)
		if err != nil {
			return err
		}
		cells[i] = c
	}
	_, err := sh.next(cells, 0)
	return err
}

// fieldCell resolves, translates and coerces one field of one row. Lookup and
// conversion failures are recorded and never returned; only style errors are.
func (sh *Sheet) fieldCell(ctx context.Context, row, col int, f *FieldSpec, acc accessor, rv reflect.Value, fo FormatOverrider) (rowCell, error) {
	attr := f.key()

	v, err := acc(rv)
	if err != nil {
		sh.issue(row, col, attr, ResolutionFailure, err)
		v = nil
	}

	if f.DictType != "" && sh.session.opts.dict != nil {
		code := ""
		if rv := indirect(reflect.ValueOf(v)); rv.IsValid() {
			code = fmt.Sprint(rv.Interface())
		}
		label, err := sh.session.opts.dict.Label(ctx, f.DictType, code)
		switch {
		case err == nil:
			v = label
		case errors.Is(err, ErrDictNotFound):
		default:
			sh.issue(row, col, attr, ResolutionFailure, fmt.Errorf("%w: dict %s: %v", ErrResolution, f.DictType, err))
		}
	}

	format := f.Format
	if fo != nil {
		if pattern, ok := fo.ExcelFormat(attr); ok && pattern != "" {
			format = pattern
		}
	}
	return sh.cell(row, col, attr, v, f.Formatter, f.Align, format)
}

// cell coerces v and picks its style. An empty format falls back to the
// default format of the coerced value.
func (sh *Sheet) cell(row, col int, attr string, v interface{}, formatter string, align Align, format string) (rowCell, error) {
	value, def, err := sh.session.coerce.coerce(v, formatter)
	if err != nil {
		sh.issue(row, col, attr, CoercionFailure, err)
	}
	if format == "" {
		format = def
	}
	style, err := sh.styles.data(col, align, format)
	if err != nil {
		return rowCell{}, err
	}
	return rowCell{value: value, style: style}, nil
}

func (sh *Sheet) issue(row, col int, attr string, kind IssueKind, err error) {
	sh.session.record(&CellError{
		Sheet:  sh.name,
		Row:    row,
		Column: col,
		Attr:   attr,
		Kind:   kind,
		Err:    err,
	})
}

func listValue(list interface{}) (reflect.Value, error) {
	lv := indirect(reflect.ValueOf(list))
	if !lv.IsValid() {
		return reflect.ValueOf([]interface{}{}), nil
	}
	if lv.Kind() != reflect.Slice && lv.Kind() != reflect.Array {
		return lv, fmt.Errorf("excelmap: expected a slice, got %T", list)
	}
	return lv, nil
}

// unwrap strips interface wrappers so accessors bind to the concrete row type.
func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func typeOf(v reflect.Value) reflect.Type {
	if !v.IsValid() {
		return nil
	}
	return v.Type()
}

func formatOverrider(rv reflect.Value) FormatOverrider {
	if !rv.IsValid() || !rv.CanInterface() {
		return nil
	}
	if rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
	}
	if fo, ok := rv.Interface().(FormatOverrider); ok {
		return fo
	}
	if rv.Kind() != reflect.Ptr && rv.CanAddr() {
		if fo, ok := rv.Addr().Interface().(FormatOverrider); ok {
			return fo
		}
	}
	return nil
}
