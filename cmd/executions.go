package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/internal/iocache"
	"github.com/huangsam/cohort/schema"
)

// storeBackendConfig reads and validates the execution store settings.
func storeBackendConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}
	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	if _, ok := schema.ValidBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("store-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// executionsSetup loads minimal configuration needed for execution store operations.
// This is used by commands that need store access without full shared setup.
func executionsSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeBackendConfig()
	if err != nil {
		return err
	}

	// Initialize the store only (no classification cache for store commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize execution store: %w", err)
	}
	SetStoreManager(iocache.Manager)

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// executionsMigrateSetup loads the store settings without opening the store,
// so migrations can run on a fresh database.
func executionsMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeBackendConfig()
	if err != nil {
		return err
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// executionsCmd focused on execution store management.
//
// Note: Executions subcommands use minimal initialization (executionsSetup) instead of
// the full sharedSetup used by report commands. This avoids group and classifier
// validation for simple store operations.
var executionsCmd = &cobra.Command{
	Use:   "executions",
	Short: "Manage stored query executions",
	Long: `Manage the query executions reports are built from.

Each execution is a timestamped set of counters keyed by cohort member, e.g.
numerator_cpsid or female_40-49_cpsid.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  import  - Load executions from a JSON document
  list    - List stored queries
  status  - Show store statistics
  export  - Export counters to Parquet for analytics
  clear   - Remove all stored executions
  migrate - Run database schema migrations

Examples:
  # Import a query export
  cohort executions import PDC-1738 pdc-1738.json

  # Export for analysis in pandas/DuckDB
  cohort executions export --output-file executions.parquet`,
}

// executionsImportCmd imports an execution document.
var executionsImportCmd = &cobra.Command{
	Use:   "import [title] <file.json>",
	Short: "Load query executions from a JSON document",
	Long: `Load the executions of one query from a JSON document.

The document is either an object with a title and an executions array, or a
bare array of executions. Executions carry a time and either an
aggregate_result map or a counters map. An execution with the same title and
time as a stored one replaces it.

Examples:
  # Title taken from the document
  cohort executions import pdc-1738.json

  # Title given explicitly
  cohort executions import PDC-1738 executions.json`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: executionsSetup,
	Run: func(_ *cobra.Command, args []string) {
		title, path := "", args[0]
		if len(args) == 2 {
			title, path = args[0], args[1]
		}
		doc, err := iocache.LoadExecutionDocument(path)
		if err != nil {
			contract.LogFatal("Failed to read executions", err)
		}
		n, err := iocache.ImportExecutions(rootCtx, storeManager.GetExecutionStore(), title, doc)
		if err != nil {
			contract.LogFatal(fmt.Sprintf("Failed to import executions (%d saved)", n), err)
		}
		fmt.Printf("Imported %d executions.\n", n)
	},
}

// executionsListCmd lists stored queries.
var executionsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stored queries with their execution counts",
	PreRunE: executionsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		queries, err := storeManager.GetExecutionStore().ListQueries(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to list queries", err)
		}
		iocache.PrintQueries(queries)
	},
}

// executionsStatusCmd shows store status.
var executionsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display execution store statistics and connection details",
	Long: `Show detailed information about the execution store.

Displays:
- Backend type and connection status
- Total number of queries and executions
- Last and oldest execution timestamps
- Database table sizes

Examples:
  # Check store status
  cohort executions status`,
	PreRunE: executionsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := storeManager.GetExecutionStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iocache.PrintStoreStatus(status)
	},
}

// executionsClearCmd clears the execution store.
var executionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored query executions",
	Long: `Delete every stored execution.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the executions table

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  cohort executions export --output-file backup.parquet
  cohort executions clear`,
	PreRunE: executionsMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearExecutions(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear executions", err)
		}
		fmt.Println("Executions cleared successfully.")
	},
}

// executionsExportCmd exports stored counters to a Parquet file.
var executionsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored executions to Parquet for BI tools and analytics",
	Long: `Export every stored counter to Parquet, one row per query, time and counter key.

Requires: --output-file parameter

Examples:
  cohort executions export --output-file executions.parquet
  duckdb -c "SELECT title, count(*) FROM read_parquet('executions.parquet') GROUP BY 1"`,
	PreRunE: executionsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteExecutionsExport(rootCtx, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export executions", err)
		}
	},
}

// executionsMigrateCmd runs database migrations for the execution store.
var executionsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the execution store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  cohort executions migrate

  # Rollback to initial state
  cohort executions migrate --target-version 0`,
	PreRunE: executionsMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateExecutions(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
