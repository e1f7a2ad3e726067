package excelmap

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

// Formatter converts values of one type, or of one named column, to cell text.
type Formatter interface {
	Coerce(v interface{}) (string, error)
	DefaultFormat() string
}

type formatterFunc struct {
	format string
	fn     func(v interface{}) (string, error)
}

func (f formatterFunc) Coerce(v interface{}) (string, error) { return f.fn(v) }
func (f formatterFunc) DefaultFormat() string                { return f.format }

// NewFormatter builds a Formatter from a function and its default number format.
func NewFormatter(defaultFormat string, fn func(v interface{}) (string, error)) Formatter {
	return formatterFunc{format: defaultFormat, fn: fn}
}

// Formatters is a registry of custom formatters keyed either by an explicit
// formatter name (the "formatter" tag key) or by a runtime type name as
// printed by reflect, e.g. "decimal.Decimal".
type Formatters struct {
	mu     sync.RWMutex
	byName map[string]Formatter
}

// NewFormatters returns a registry holding the built-in formatters for bool,
// time.Duration and []string.
func NewFormatters() *Formatters {
	r := &Formatters{byName: make(map[string]Formatter)}
	r.Register("bool", NewFormatter(FormatText, func(v interface{}) (string, error) {
		if b, ok := v.(bool); ok {
			if b {
				return "Yes", nil
			}
			return "No", nil
		}
		return "", fmt.Errorf("expected bool, got %T", v)
	}))
	r.Register("time.Duration", NewFormatter(FormatText, func(v interface{}) (string, error) {
		if d, ok := v.(time.Duration); ok {
			return d.String(), nil
		}
		return "", fmt.Errorf("expected time.Duration, got %T", v)
	}))
	r.Register("[]string", NewFormatter(FormatText, func(v interface{}) (string, error) {
		if ss, ok := v.([]string); ok {
			return strings.Join(ss, ", "), nil
		}
		return "", fmt.Errorf("expected []string, got %T", v)
	}))
	return r
}

// Register adds or replaces the formatter stored under name.
func (r *Formatters) Register(name string, f Formatter) *Formatters {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = f
	return r
}

// Lookup returns the formatter stored under name.
func (r *Formatters) Lookup(name string) (Formatter, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byName[name]
	return f, ok
}

// coerceFunc converts a non-nil value into a cell value and its default format.
type coerceFunc func(v reflect.Value) (interface{}, string, error)

var (
	timeType   = reflect.TypeOf(time.Time{})
	valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// coercer dispatches values to coercion functions. The function for a runtime
// type is chosen once and cached.
type coercer struct {
	formatters *Formatters
	byType     map[reflect.Type]coerceFunc
}

func newCoercer(formatters *Formatters) *coercer {
	if formatters == nil {
		formatters = NewFormatters()
	}
	return &coercer{
		formatters: formatters,
		byType:     make(map[reflect.Type]coerceFunc),
	}
}

// coerce returns the cell value and default format for v. Nil values become an
// empty text cell. When named is set the registry entry of that name is used
// regardless of the value type. On error the returned value is the generic
// string form of v.
func (c *coercer) coerce(v interface{}, named string) (out interface{}, format string, err error) {
	rv := indirect(reflect.ValueOf(v))
	if !rv.IsValid() {
		return "", FormatText, nil
	}

	defer func() {
		if r := recover(); r != nil {
			out, format, err = fmt.Sprint(v), FormatText, fmt.Errorf("%w: panic: %v", ErrCoercion, r)
		}
	}()

	if named != "" {
		f, ok := c.formatters.Lookup(named)
		if !ok {
			return fmt.Sprint(rv.Interface()), FormatText, fmt.Errorf("%w: no formatter named %q", ErrCoercion, named)
		}
		return applyFormatter(f, rv)
	}

	fn, ok := c.byType[rv.Type()]
	if !ok {
		fn = c.resolve(rv.Type())
		c.byType[rv.Type()] = fn
	}
	return fn(rv)
}

// resolve picks the coercion function for t: built-in types first, then the
// registry by type name, then driver.Valuer, then the underlying kind.
func (c *coercer) resolve(t reflect.Type) coerceFunc {
	switch t {
	case reflect.TypeOf(""):
		return func(v reflect.Value) (interface{}, string, error) {
			return v.String(), FormatText, nil
		}
	case timeType:
		return coerceTime
	}
	if t.PkgPath() == "" {
		if fn := coerceKind(t.Kind()); fn != nil {
			return fn
		}
	}

	if f, ok := c.formatters.Lookup(t.String()); ok {
		return func(v reflect.Value) (interface{}, string, error) {
			return applyFormatter(f, v)
		}
	}

	if t.Implements(valuerType) {
		return func(v reflect.Value) (interface{}, string, error) {
			dv, err := v.Interface().(driver.Valuer).Value()
			if err != nil {
				return fmt.Sprint(v.Interface()), FormatText, fmt.Errorf("%w: %v", ErrCoercion, err)
			}
			if dv == nil {
				return "", FormatText, nil
			}
			return c.coerce(dv, "")
		}
	}

	if fn := coerceKind(t.Kind()); fn != nil {
		return fn
	}
	if t.ConvertibleTo(timeType) {
		return func(v reflect.Value) (interface{}, string, error) {
			return coerceTime(v.Convert(timeType))
		}
	}

	return func(v reflect.Value) (interface{}, string, error) {
		return fmt.Sprint(v.Interface()), FormatText, fmt.Errorf("%w: no formatter for %s", ErrCoercion, v.Type())
	}
}

func coerceKind(k reflect.Kind) coerceFunc {
	switch k {
	case reflect.String:
		return func(v reflect.Value) (interface{}, string, error) {
			return v.String(), FormatText, nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(v reflect.Value) (interface{}, string, error) {
			return v.Int(), FormatInteger, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(v reflect.Value) (interface{}, string, error) {
			return v.Uint(), FormatInteger, nil
		}
	case reflect.Float32:
		return func(v reflect.Value) (interface{}, string, error) {
			return float32(v.Float()), FormatDecimal, nil
		}
	case reflect.Float64:
		return func(v reflect.Value) (interface{}, string, error) {
			return v.Float(), FormatDecimal, nil
		}
	}
	return nil
}

// coerceTime writes the zero time as an empty cell.
func coerceTime(v reflect.Value) (interface{}, string, error) {
	t := v.Interface().(time.Time)
	if t.IsZero() {
		return "", FormatText, nil
	}
	return t, FormatDateTime, nil
}

func applyFormatter(f Formatter, v reflect.Value) (interface{}, string, error) {
	s, err := f.Coerce(v.Interface())
	if err != nil {
		return fmt.Sprint(v.Interface()), FormatText, fmt.Errorf("%w: %v", ErrCoercion, err)
	}
	format := f.DefaultFormat()
	if format == "" {
		format = FormatText
	}
	return s, format, nil
}
