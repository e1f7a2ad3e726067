package excelmap

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// MethodField declares a zero-argument method of a row type as an export column.
// Tag uses the same syntax as the excel struct tag.
type MethodField struct {
	Method string
	Tag    string
}

// MethodFields is implemented by row types that export method results. It is
// called on a zero value during Scan and must not depend on row state.
type MethodFields interface {
	ExcelMethods() []MethodField
}

// FormatOverrider lets a row replace the number format of one column. It is
// consulted for every row.
type FormatOverrider interface {
	ExcelFormat(attr string) (string, bool)
}

// Schema is the ordered list of FieldSpecs selected for one export kind and
// group filter, together with the accessors bound to the scanned row type.
// A Schema may be shared by sessions on different goroutines; Fields must not
// be modified once rows have been written through it.
type Schema struct {
	Kind   ExportKind
	Groups []string
	Fields []FieldSpec

	rowType  reflect.Type
	mu       sync.RWMutex
	bindings map[reflect.Type][]accessor
}

// Scan reads the excel tags of row, which may be a struct value, a pointer to a
// struct or a reflect.Type. Own fields are scanned first, then the fields of
// structs embedded one level deep, then the methods listed by MethodFields.
// Specs are kept when their kind is KindBoth or equals kind and, if groups are
// given, when one of their groups equals one of the requested groups. The
// result is stably sorted by Sort.
func Scan(row interface{}, kind ExportKind, groups ...string) (*Schema, error) {
	t, ok := row.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(row)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: nil row type", ErrInvalidSchema)
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: expected struct, got %v", ErrInvalidSchema, t.Kind())
	}

	var specs []FieldSpec
	var embedded []reflect.StructField

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get(TagName)
		if tag == "-" {
			continue
		}
		if f.Anonymous && isStructType(f.Type) {
			embedded = append(embedded, f)
			continue
		}
		if !f.IsExported() {
			continue
		}
		fs, err := parseTag(f.Name, tag)
		if err != nil {
			return nil, err
		}
		for _, spec := range fs {
			spec.index = f.Index
			specs = append(specs, spec)
		}
	}

	// One level only: structs embedded inside an embedded struct are ignored.
	for _, parent := range embedded {
		pt := derefType(parent.Type)
		for j := 0; j < pt.NumField(); j++ {
			f := pt.Field(j)
			if f.Anonymous || !f.IsExported() {
				continue
			}
			fs, err := parseTag(f.Name, f.Tag.Get(TagName))
			if err != nil {
				return nil, err
			}
			for _, spec := range fs {
				spec.index = []int{parent.Index[0], j}
				specs = append(specs, spec)
			}
		}
	}

	methodSpecs, err := scanMethods(t)
	if err != nil {
		return nil, err
	}
	specs = append(specs, methodSpecs...)

	s := newSchema(specs, kind, groups)
	s.rowType = t
	s.accessors(t)
	return s, nil
}

func scanMethods(t reflect.Type) ([]FieldSpec, error) {
	mf, ok := reflect.New(t).Interface().(MethodFields)
	if !ok {
		return nil, nil
	}
	pt := reflect.PointerTo(t)

	var specs []FieldSpec
	for _, m := range mf.ExcelMethods() {
		method, ok := pt.MethodByName(m.Method)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no method %s", ErrInvalidSchema, t, m.Method)
		}
		if !isGetter(method.Type) {
			return nil, fmt.Errorf("%w: %s.%s must take no arguments and return a value", ErrInvalidSchema, t, m.Method)
		}
		fs, err := parseTag(m.Method, m.Tag)
		if err != nil {
			return nil, err
		}
		if len(fs) == 0 {
			fs = []FieldSpec{{Title: m.Method, Width: WidthAuto, member: m.Method}}
		}
		for _, spec := range fs {
			spec.method = true
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

// newSchema filters specs by kind and groups and sorts them.
func newSchema(specs []FieldSpec, kind ExportKind, groups []string) *Schema {
	kept := make([]FieldSpec, 0, len(specs))
	for _, spec := range specs {
		if spec.Kind != KindBoth && spec.Kind != kind {
			continue
		}
		if !spec.inGroups(groups) {
			continue
		}
		kept = append(kept, spec)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Sort < kept[j].Sort
	})

	return &Schema{
		Kind:     kind,
		Groups:   groups,
		Fields:   kept,
		bindings: make(map[reflect.Type][]accessor),
	}
}

// Headers projects the schema onto header titles, comment hints and widths.
func (s *Schema) Headers() (titles, hints []string, widths []int) {
	titles = make([]string, len(s.Fields))
	hints = make([]string, len(s.Fields))
	widths = make([]int, len(s.Fields))
	for i, f := range s.Fields {
		titles[i], hints[i] = f.HeaderTitle(s.Kind)
		widths[i] = f.Width
	}
	return titles, hints, widths
}

// FieldByAttr returns the first field whose Attr equals key.
func (s *Schema) FieldByAttr(key string) (int, bool) {
	for i, f := range s.Fields {
		if f.Attr == key {
			return i, true
		}
	}
	return -1, false
}

// accessors returns the accessor table for rows of type t, building it on
// first use. Scan binds the scanned type up front.
func (s *Schema) accessors(t reflect.Type) []accessor {
	s.mu.RLock()
	acc, ok := s.bindings[t]
	s.mu.RUnlock()
	if ok {
		return acc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.bindings[t]; ok {
		return acc
	}
	acc = make([]accessor, len(s.Fields))
	for i := range s.Fields {
		acc[i] = bindAccessor(&s.Fields[i], s.rowType, t)
	}
	s.bindings[t] = acc
	return acc
}

func isStructType(t reflect.Type) bool {
	return derefType(t).Kind() == reflect.Struct
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
