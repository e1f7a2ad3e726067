package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/config"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/database"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/logger"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/repository"
	"github.com/locvowork/employee_management_sample/reportgateway/pkg/dataflow"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy Postgres data into the secondary export sources",
	}

	var projectID string
	dicts := &cobra.Command{
		Use:   "dicts",
		Short: "Copy sys_dict_data into Datastore",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := services(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			ds := app.Datastore
			if ds == nil {
				if projectID == "" {
					projectID = config.DefaultEnvConfig.DATASTORE_PROJECT_ID
				}
				if ds, err = database.NewDatastoreClient(ctx, projectID); err != nil {
					return err
				}
				defer ds.Close()
			}
			n, err := syncDicts(ctx, repository.NewDictRepository(app.DB), ds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d dictionary entries\n", n)
			return nil
		},
	}
	dicts.Flags().StringVar(&projectID, "project", "", "Datastore project id (default DATASTORE_PROJECT_ID)")

	var batch, workers int
	employees := &cobra.Command{
		Use:   "employees",
		Short: "Index current employees into Elasticsearch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := services(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Elastic == nil {
				return fmt.Errorf("ES_URL is not configured")
			}
			n, err := syncEmployees(ctx, repository.NewEmployeeRepository(app.DB), app.Elastic, batch, workers)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d employees\n", n)
			return nil
		},
	}
	employees.Flags().IntVar(&batch, "batch", 1000, "Documents per bulk request")
	employees.Flags().IntVar(&workers, "workers", 4, "Concurrent bulk requests")

	cmd.AddCommand(dicts, employees)
	return cmd
}

type dictSink interface {
	SaveDictEntries(ctx context.Context, entries []domain.DictEntry) error
}

func syncDicts(ctx context.Context, src domain.DictRepository, dst dictSink) (int, error) {
	types, err := src.ListDictTypes(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, t := range types {
		entries, err := src.GetDictEntries(ctx, t)
		if err != nil {
			return total, err
		}
		if err := dst.SaveDictEntries(ctx, entries); err != nil {
			return total, err
		}
		total += len(entries)
	}
	return total, nil
}

type employeeIndex interface {
	BulkIndexEmployees(ctx context.Context, employees []database.EmployeeDoc) error
}

const indexRetries = 3

var indexBackOff = dataflow.ExponentialBackOff(500*time.Millisecond, 5*time.Second)

// syncEmployees streams rows out of src and bulk indexes them in batches,
// with up to workers bulk requests in flight.
func syncEmployees(ctx context.Context, src domain.EmployeeSource, dst employeeIndex, batch, workers int) (int, error) {
	if batch <= 0 {
		batch = 1000
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	docs, wait := dataflow.Generate(ctx, func(emit func(database.EmployeeDoc) error) error {
		return src.Each(ctx, domain.EmployeeFilter{}, func(e *domain.EmployeeRow) error {
			return emit(database.NewEmployeeDoc(e))
		})
	}, dataflow.WithBufferSize(batch))

	var total atomic.Int64
	err := dataflow.ForEach(ctx, dataflow.Batch(ctx, docs, batch), func(ctx context.Context, b []database.EmployeeDoc) error {
		if err := dst.BulkIndexEmployees(ctx, b); err != nil {
			logger.FromContext(ctx).Warn().Err(err).Int("docs", len(b)).Msg("bulk index failed")
			return err
		}
		total.Add(int64(len(b)))
		return nil
	}, dataflow.WithWorkers(workers), dataflow.WithRetry(indexRetries, indexBackOff))
	if err != nil {
		cancel()
	}
	if werr := wait(); err == nil && werr != nil {
		err = werr
	}
	return int(total.Load()), err
}
