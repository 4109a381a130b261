package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/internal/iocache"
	"github.com/huangsam/cohort/schema"
)

// classesSetup loads minimal configuration needed for classification cache operations.
func classesSetup(openCache bool) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("class-cache-backend"))
	if _, ok := schema.ValidBackends[backend]; !ok {
		return fmt.Errorf("invalid class cache backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("class-cache-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	if openCache {
		if err := iocache.InitStores("", "", backend, connStr); err != nil {
			return fmt.Errorf("failed to initialize classification cache: %w", err)
		}
		SetStoreManager(iocache.Manager)
	}

	cfg.ClassCacheBackend = backend
	cfg.ClassCacheDBConnect = connStr
	return nil
}

// classesCmd focused on classification cache management.
var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "Manage the drug classification cache",
	Long: `Manage the cache of drug classification answers used by medclass reports.

Every code resolved by the classification service is cached, so repeated
reports do not query the service again.

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached classifications

Examples:
  cohort classes status
  cohort classes clear`,
}

// classesStatusCmd shows cache status.
var classesStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display classification cache statistics and connection details",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return classesSetup(true)
	},
	Run: func(_ *cobra.Command, _ []string) {
		cache := storeManager.GetClassCache()
		if cache == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("classification cache is not initialized"))
		}
		status, err := cache.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(status)
	},
}

// classesClearCmd clears the cache.
var classesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached drug classifications",
	Long: `Delete every cached classification answer.

Use this when the classification service changed its drug class mapping.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return classesSetup(false)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearClassCache(cfg.ClassCacheBackend, cfg.ClassCacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear classification cache", err)
		}
		fmt.Println("Classification cache cleared successfully.")
	},
}
