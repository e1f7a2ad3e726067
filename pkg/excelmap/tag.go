package excelmap

import (
	"strconv"
	"strings"
)

// parseTag parses an excel struct tag into one FieldSpec per "|" separated part:
//
//	`excel:"title:Name**hint;attr:Name;width:20;align:center;sort:10;type:export;groups:a,b;dict:sys_sex;formatter:money;format:0.00"`
//
// Values cannot contain ";" or "|"; use a YAML schema for such formats.
func parseTag(member, tag string) ([]FieldSpec, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" || tag == "-" {
		return nil, nil
	}

	var specs []FieldSpec
	for _, part := range strings.Split(tag, "|") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		spec, err := parseTagPart(member, part)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseTagPart(member, part string) (FieldSpec, error) {
	spec := FieldSpec{
		Width:  WidthAuto,
		member: member,
	}

	for _, pair := range strings.Split(part, ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) != 2 {
			return spec, tagError(member, "expected key:value, got %q", pair)
		}
		key, value := strings.ToLower(strings.TrimSpace(kv[0])), strings.TrimSpace(kv[1])

		switch key {
		case "title", "header":
			spec.Title = value
		case "attr", "attrname":
			spec.Attr = value
		case "width":
			w, err := strconv.Atoi(value)
			if err != nil || w < WidthAuto {
				return spec, tagError(member, "invalid width %q", value)
			}
			spec.Width = w
		case "align":
			a, err := ParseAlign(value)
			if err != nil {
				return spec, tagError(member, "%v", err)
			}
			spec.Align = a
		case "sort":
			s, err := strconv.Atoi(value)
			if err != nil {
				return spec, tagError(member, "invalid sort %q", value)
			}
			spec.Sort = s
		case "type":
			k, err := ParseExportKind(value)
			if err != nil {
				return spec, tagError(member, "%v", err)
			}
			spec.Kind = k
		case "groups", "group":
			spec.Groups = splitList(value)
		case "dict", "dicttype":
			spec.DictType = value
		case "formatter", "fieldtype":
			spec.Formatter = value
		case "format", "dataformat":
			spec.Format = value
		default:
			return spec, tagError(member, "unknown key %q", key)
		}
	}

	if spec.Title == "" {
		spec.Title = member
	}
	return spec, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
