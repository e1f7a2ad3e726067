package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
	"github.com/locvowork/employee_management_sample/reportgateway/pkg/excelmap"
)

func newSchemaCmd() *cobra.Command {
	var kind, groups string
	cmd := &cobra.Command{
		Use:   "schema [file.yaml]",
		Short: "Validate a column schema and print the resolved columns",
		Long: `Validate a YAML column schema and print the columns selected for the
given kind and groups. Without a file the employee struct tags are used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := excelmap.ParseExportKind(kind)
			if err != nil {
				return err
			}
			var schema *excelmap.Schema
			if len(args) == 1 {
				schema, err = excelmap.LoadSchema(args[0], k, splitGroups(groups)...)
			} else {
				schema, err = excelmap.Scan(domain.EmployeeRow{}, k, splitGroups(groups)...)
			}
			if err != nil {
				return err
			}
			printSchema(cmd.OutOrStdout(), schema)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "export", "Export kind: export, template or both")
	cmd.Flags().StringVarP(&groups, "groups", "g", "", "Comma separated column groups")
	return cmd
}

func printSchema(w io.Writer, schema *excelmap.Schema) {
	table := [][]string{{"#", "TITLE", "ATTR", "WIDTH", "ALIGN", "SORT", "GROUPS", "DICT", "FORMAT"}}
	for i, f := range schema.Fields {
		title, _ := excelmap.SplitTitle(f.Title)
		attr := f.Attr
		if attr == "" {
			attr = f.Member()
		}
		format := f.Format
		if f.Formatter != "" {
			format = f.Formatter + "()"
		}
		table = append(table, []string{
			strconv.Itoa(i + 1), title, attr, widthLabel(f.Width), f.Align.String(),
			strconv.Itoa(f.Sort), strings.Join(f.Groups, ","), f.DictType, format,
		})
	}

	widths := make([]int, len(table[0]))
	for _, row := range table {
		for i, cell := range row {
			if n := runewidth.StringWidth(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for _, row := range table {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
	fmt.Fprintf(w, "%d columns (%s)\n", len(schema.Fields), schema.Kind)
}

func widthLabel(w int) string {
	switch w {
	case excelmap.WidthAuto:
		return "auto"
	case excelmap.WidthHidden:
		return "hidden"
	}
	return strconv.Itoa(w)
}
