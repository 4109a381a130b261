// Package cmd defines the command-line interface for cohort.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(executionsCmd)
	rootCmd.AddCommand(classesCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the executions subcommands to the parent executions command
	executionsCmd.AddCommand(executionsImportCmd)
	executionsCmd.AddCommand(executionsListCmd)
	executionsCmd.AddCommand(executionsStatusCmd)
	executionsCmd.AddCommand(executionsClearCmd)
	executionsCmd.AddCommand(executionsMigrateCmd)
	executionsCmd.AddCommand(executionsExportCmd)

	// Add the classes subcommands to the parent classes command
	classesCmd.AddCommand(classesStatusCmd)
	classesCmd.AddCommand(classesClearCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("requester", "r", "", "Clinician id of the requester")
	rootCmd.PersistentFlags().String("family", string(schema.RatioFamily), "Query family: ratio or demographic or medclass")
	rootCmd.PersistentFlags().String("groups-file", contract.DefaultGroupsFile, "YAML file listing the clinician groups")
	rootCmd.PersistentFlags().String("initiative", "", "Initiative whose groups are used (empty = all)")
	rootCmd.PersistentFlags().Int("report-day", 1, "Day of month aligned executions start on")
	rootCmd.PersistentFlags().String("interval", "30 days", "Ideal spacing of aligned executions")
	rootCmd.PersistentFlags().String("tolerance", "2 days", "Allowed deviation from the ideal spacing")
	rootCmd.PersistentFlags().String("separation", "7 days", "Largest spread of latest executions a summary accepts")
	rootCmd.PersistentFlags().String("timezone", "UTC", "Time zone for report days and dates")
	rootCmd.PersistentFlags().Int("top-classes", schema.DefaultTopClasses, "Number of drug classes a medclass report ranks")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for percentages")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Execution store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("class-cache-backend", string(schema.SQLiteBackend), "Classification cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("class-cache-db-connect", "", "Database connection string for the classification cache (must differ from store-db-connect)")
	rootCmd.PersistentFlags().String("classifier-url", "", "Base URL of the drug classification service")
	rootCmd.PersistentFlags().String("classifier-timeout", "10s", "Timeout of one classification lookup")
	rootCmd.PersistentFlags().String("classes-file", "", "YAML table of drug classes consulted before the service")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g., :9090)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of reportCmd to Viper
	reportCmd.Flags().StringP("query", "q", "", "Query title to report on (e.g., PDC-1738)")
	reportCmd.Flags().Bool("snapshot", false, "Compare the latest medclass execution only")
	if err := viper.BindPFlags(reportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding report flags", err)
	}

	// Bind all flags of summaryCmd to Viper
	summaryCmd.Flags().String("queries", "", "Comma-separated query titles to summarize")
	summaryCmd.Flags().String("queries-file", "", "YAML query catalog with titles, targets and references")
	summaryCmd.Flags().String("summary-name", "", "Name printed above the summary")
	if err := viper.BindPFlags(summaryCmd.Flags()); err != nil {
		contract.LogFatal("Error binding summary flags", err)
	}

	// Bind all flags of executionsMigrateCmd to Viper
	executionsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(executionsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding executions migrate flags", err)
	}
}
