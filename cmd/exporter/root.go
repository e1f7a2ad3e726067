package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/bootstrap"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "exporter",
		Short: "Employee workbook exporter",
		Long: `Exporter builds the employee reports served by the report gateway
from the command line, validates YAML column schemas and keeps the
secondary stores (Elasticsearch, Datastore) in sync with Postgres.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newEmployeesCmd(), newDepartmentsCmd(), newSchemaCmd(), newSyncCmd())
	return root
}

// services connects the export stack the same way the HTTP gateway does.
func services(ctx context.Context) (*bootstrap.App, error) {
	app := bootstrap.NewApp()
	if err := app.InitializeServices(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func splitGroups(s string) []string {
	var out []string
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}
