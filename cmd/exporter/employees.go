package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/service"
)

type employeesFlags struct {
	out      string
	groups   string
	source   string
	title    string
	deptNo   string
	limit    int
	template bool
	upload   bool
}

func newEmployeesCmd() *cobra.Command {
	var f employeesFlags
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Export employees to an xlsx file",
		Long: `Export employees to an xlsx file, or upload it to the export bucket.

Examples:
  # Payroll columns read from Elasticsearch
  exporter employees --groups payroll --source elastic --out payroll.xlsx

  # Empty import template
  exporter employees --template --out template.xlsx

  # Archive to MinIO and print the download link
  exporter employees --groups basic --upload`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmployees(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Output file (default employees_<timestamp>.xlsx)")
	cmd.Flags().StringVarP(&f.groups, "groups", "g", "", "Comma separated column groups")
	cmd.Flags().StringVar(&f.source, "source", service.SourcePostgres, "Employee source: postgres or elastic")
	cmd.Flags().StringVar(&f.title, "title", "", "Title row text")
	cmd.Flags().StringVar(&f.deptNo, "dept", "", "Only employees of this department")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum number of employees")
	cmd.Flags().BoolVar(&f.template, "template", false, "Write the import template instead of data")
	cmd.Flags().BoolVar(&f.upload, "upload", false, "Upload to object storage instead of writing a file")
	return cmd
}

func (f employeesFlags) export() service.EmployeeExport {
	return service.EmployeeExport{
		Filter:   domain.EmployeeFilter{DeptNo: f.deptNo, Limit: f.limit},
		Groups:   splitGroups(f.groups),
		Source:   f.source,
		Title:    f.title,
		Template: f.template,
	}
}

func runEmployees(cmd *cobra.Command, f employeesFlags) error {
	ctx := cmd.Context()
	app, err := services(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if f.upload {
		obj, err := app.Export.Archive(ctx, f.export())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n%s\n", obj.Key, humanize.Bytes(uint64(obj.Size)), obj.URL)
		return nil
	}

	sess, err := app.Export.EmployeeWorkbook(ctx, f.export())
	if err != nil {
		return err
	}
	defer sess.Dispose()

	out := f.out
	if out == "" {
		out = service.FileName("employees")
	}
	if err := sess.WriteFile(ctx, out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s, %d cells degraded\n", out, len(sess.Issues()))
	return nil
}

func newDepartmentsCmd() *cobra.Command {
	var out, title string
	cmd := &cobra.Command{
		Use:   "departments",
		Short: "Export the department headcount and payroll summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := services(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			sess, err := app.Export.DepartmentSummaryWorkbook(ctx, title)
			if err != nil {
				return err
			}
			defer sess.Dispose()
			if out == "" {
				out = service.FileName("departments")
			}
			if err := sess.WriteFile(ctx, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default departments_<timestamp>.xlsx)")
	cmd.Flags().StringVar(&title, "title", "Department Summary", "Title row text")
	return cmd
}
