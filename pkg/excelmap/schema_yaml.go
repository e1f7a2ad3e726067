package excelmap

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// schema_yaml.go - Column definitions loaded from YAML

// SchemaFile is the YAML form of a schema:
//
//	columns:
//	  - attr: dept.name
//	    title: Department**Name of the owning department
//	    width: 24
//	    align: left
//	    sort: 30
//	    type: export
//	    groups: [hr]
//	    dict: sys_dept_type
//	    format: "0.00"
type SchemaFile struct {
	Columns []ColumnDef `yaml:"columns"`
}

// ColumnDef is one column of a SchemaFile. Width defaults to the natural width
// when omitted.
type ColumnDef struct {
	Attr      string   `yaml:"attr"`
	Title     string   `yaml:"title"`
	Width     *int     `yaml:"width"`
	Align     string   `yaml:"align"`
	Sort      int      `yaml:"sort"`
	Type      string   `yaml:"type"`
	Groups    []string `yaml:"groups"`
	Dict      string   `yaml:"dict"`
	Formatter string   `yaml:"formatter"`
	Format    string   `yaml:"format"`
}

// LoadSchema loads column definitions from a YAML file and selects the columns
// for kind and groups. Columns are bound to rows by their attr path, so the
// schema works with any row type.
func LoadSchema(path string, kind ExportKind, groups ...string) (*Schema, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening schema file: %w", err)
	}
	defer file.Close()

	return LoadSchemaFromReader(file, kind, groups...)
}

// LoadSchemaFromReader loads a schema from an io.Reader.
func LoadSchemaFromReader(r io.Reader, kind ExportKind, groups ...string) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}

	var sf SchemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("%w: parsing YAML: %v", ErrInvalidSchema, err)
	}

	specs, err := sf.specs()
	if err != nil {
		return nil, err
	}
	return newSchema(specs, kind, groups), nil
}

// LoadSchemaFromString loads a schema from a YAML string.
func LoadSchemaFromString(content string, kind ExportKind, groups ...string) (*Schema, error) {
	return LoadSchemaFromReader(strings.NewReader(content), kind, groups...)
}

func (sf *SchemaFile) specs() ([]FieldSpec, error) {
	if len(sf.Columns) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrInvalidSchema)
	}

	specs := make([]FieldSpec, 0, len(sf.Columns))
	for i, c := range sf.Columns {
		spec, err := c.spec()
		if err != nil {
			return nil, fmt.Errorf("%w: columns[%d]: %v", ErrInvalidSchema, i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (c ColumnDef) spec() (FieldSpec, error) {
	attr := strings.TrimSpace(c.Attr)
	if attr == "" {
		return FieldSpec{}, fmt.Errorf("attr is required")
	}
	align, err := ParseAlign(c.Align)
	if err != nil {
		return FieldSpec{}, err
	}
	kind, err := ParseExportKind(c.Type)
	if err != nil {
		return FieldSpec{}, err
	}

	width := WidthAuto
	if c.Width != nil {
		if *c.Width < WidthAuto {
			return FieldSpec{}, fmt.Errorf("invalid width %d", *c.Width)
		}
		width = *c.Width
	}

	title := c.Title
	if title == "" {
		title = attr
	}

	return FieldSpec{
		Title:     title,
		Attr:      attr,
		Width:     width,
		Align:     align,
		Sort:      c.Sort,
		Kind:      kind,
		Groups:    c.Groups,
		DictType:  c.Dict,
		Formatter: c.Formatter,
		Format:    c.Format,
		member:    attr,
	}, nil
}

// SchemaFromHeaders builds a schema with one column per header, each bound
// to the header key as its attr path. It suits map rows written through
// SetDataListByHeader.
func SchemaFromHeaders(headers []HeaderColumn) *Schema {
	specs := make([]FieldSpec, len(headers))
	for i, h := range headers {
		specs[i] = FieldSpec{Title: h.Title, Attr: h.Key, Width: WidthAuto, member: h.Key}
	}
	return newSchema(specs, KindBoth, nil)
}
