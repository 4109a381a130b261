package iocache

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/cohort/internal/parquet"
	"github.com/huangsam/cohort/schema"
)

// recordLister is implemented by stores that can flatten their executions.
type recordLister interface {
	ListRecords(ctx context.Context) ([]schema.ExecutionRecord, error)
}

// ExecuteExecutionsExport writes every stored execution counter to a Parquet file.
func ExecuteExecutionsExport(ctx context.Context, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := Manager.GetExecutionStore()
	if store == nil {
		return errors.New("execution store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalExecutions == 0 {
		return errors.New("no executions found to export")
	}

	lister, ok := store.(recordLister)
	if !ok {
		return fmt.Errorf("%s store cannot export executions", status.Backend)
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total queries: %d\n", status.TotalQueries)
	fmt.Printf("Total executions: %d\n", status.TotalExecutions)

	records, err := lister.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve executions: %w", err)
	}

	rows := parquet.ConvertExecutionRecords(records)
	if err := parquet.WriteExecutionsParquet(rows, outputFile); err != nil {
		return fmt.Errorf("failed to write executions: %w", err)
	}
	fmt.Printf("Exported %d counters to: %s\n", len(rows), outputFile)

	fmt.Println("\nExport complete! The Parquet file can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	return nil
}
