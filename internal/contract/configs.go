package contract

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huangsam/cohort/schema"
)

// Default values for configuration.
const (
	DefaultPrecision         = 1
	DefaultGroupsFile        = "groups.yaml"
	DefaultClassifierTimeout = 10 * time.Second
	DefaultSummaryName       = "Population Health Summary"
	MaxTopClasses            = 50
)

// Config holds the runtime configuration for report generation.
// This struct is the "final, validated" config.
type Config struct {
	RequesterID string
	Family      schema.Family
	QueryTitle  string

	// Summary reports
	SummaryName string
	Queries     []string
	QueriesFile string

	GroupsFile string
	Initiative string

	// Temporal alignment
	ReportDay  int
	Interval   time.Duration
	Tolerance  time.Duration
	Separation time.Duration
	Location   *time.Location

	TopClasses int

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	ClassCacheBackend   schema.DatabaseBackend
	ClassCacheDBConnect string // Please use env var as this is plaintext

	ClassifierURL     string
	ClassifierTimeout time.Duration
	ClassesFile       string

	LogLevel    slog.Level
	MetricsAddr string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Requester           string `mapstructure:"requester"`
	Family              string `mapstructure:"family"`
	GroupsFile          string `mapstructure:"groups-file"`
	Initiative          string `mapstructure:"initiative"`
	ReportDay           int    `mapstructure:"report-day"`
	Interval            string `mapstructure:"interval"`
	Tolerance           string `mapstructure:"tolerance"`
	Separation          string `mapstructure:"separation"`
	Timezone            string `mapstructure:"timezone"`
	TopClasses          int    `mapstructure:"top-classes"`
	Precision           int    `mapstructure:"precision"`
	Output              string `mapstructure:"output"`
	OutputFile          string `mapstructure:"output-file"`
	Width               int    `mapstructure:"width"`
	Color               string `mapstructure:"color"`
	StoreBackend        string `mapstructure:"store-backend"`
	StoreDBConnect      string `mapstructure:"store-db-connect"`
	ClassCacheBackend   string `mapstructure:"class-cache-backend"`
	ClassCacheDBConnect string `mapstructure:"class-cache-db-connect"`
	ClassifierURL       string `mapstructure:"classifier-url"`
	ClassifierTimeout   string `mapstructure:"classifier-timeout"`
	ClassesFile         string `mapstructure:"classes-file"`
	LogLevel            string `mapstructure:"log-level"`
	MetricsAddr         string `mapstructure:"metrics-addr"`

	// --- Fields from reportCmd.Flags() ---
	Query string `mapstructure:"query"`

	// --- Fields from summaryCmd.Flags() ---
	Queries     string `mapstructure:"queries"`
	QueriesFile string `mapstructure:"queries-file"`
	SummaryName string `mapstructure:"summary-name"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Queries != nil {
		clone.Queries = make([]string, len(c.Queries))
		copy(clone.Queries, c.Queries)
	}
	return &clone
}

// IntervalSeconds returns the ideal spacing of aligned executions in seconds.
func (c *Config) IntervalSeconds() int64 {
	if c.Interval <= 0 {
		return schema.DefaultIntervalSeconds
	}
	return int64(c.Interval / time.Second)
}

// ToleranceSeconds returns the allowed deviation from the ideal spacing in seconds.
func (c *Config) ToleranceSeconds() int64 {
	if c.Tolerance <= 0 {
		return schema.DefaultToleranceSeconds
	}
	return int64(c.Tolerance / time.Second)
}

// SeparationSeconds returns the largest spread of latest executions a summary accepts.
func (c *Config) SeparationSeconds() int64 {
	if c.Separation <= 0 {
		return schema.DefaultSeparationSeconds
	}
	return int64(c.Separation / time.Second)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processAlignment(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processClassifier(cfg, input); err != nil {
		return err
	}
	return nil
}

// RevalidateReport checks the inputs a single-query report needs.
// It is called after the CLI or an MCP tool filled in request-specific fields.
func RevalidateReport(cfg *Config) error {
	cfg.RequesterID = strings.TrimSpace(cfg.RequesterID)
	if cfg.RequesterID == "" {
		return fmt.Errorf("--requester is required")
	}
	cfg.QueryTitle = strings.TrimSpace(cfg.QueryTitle)
	if cfg.QueryTitle == "" {
		return fmt.Errorf("--query is required")
	}
	cfg.Family = schema.Family(strings.ToLower(string(cfg.Family)))
	if _, ok := schema.ValidFamilies[cfg.Family]; !ok {
		return fmt.Errorf("invalid family '%s'. must be ratio, demographic, medclass", cfg.Family)
	}
	return nil
}

// RevalidateSummary checks the inputs a multi-query summary needs.
func RevalidateSummary(cfg *Config) error {
	cfg.RequesterID = strings.TrimSpace(cfg.RequesterID)
	if cfg.RequesterID == "" {
		return fmt.Errorf("--requester is required")
	}
	if len(cfg.Queries) == 0 && cfg.QueriesFile == "" {
		return fmt.Errorf("--queries or --queries-file is required")
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the fields without cross-dependencies.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.RequesterID = strings.TrimSpace(input.Requester)
	cfg.QueryTitle = strings.TrimSpace(input.Query)
	cfg.GroupsFile = input.GroupsFile
	if cfg.GroupsFile == "" {
		cfg.GroupsFile = DefaultGroupsFile
	}
	cfg.Initiative = strings.TrimSpace(input.Initiative)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.MetricsAddr = strings.TrimSpace(input.MetricsAddr)
	cfg.Queries = SplitList(input.Queries)
	cfg.QueriesFile = input.QueriesFile
	cfg.SummaryName = strings.TrimSpace(input.SummaryName)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	family := input.Family
	if family == "" {
		family = string(schema.RatioFamily)
	}
	cfg.Family = schema.Family(strings.ToLower(family))
	if _, ok := schema.ValidFamilies[cfg.Family]; !ok {
		return fmt.Errorf("invalid family '%s'. must be ratio, demographic, medclass", input.Family)
	}

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	if input.TopClasses < 1 || input.TopClasses > MaxTopClasses {
		return fmt.Errorf("top-classes must be between 1 and %d (received %d)", MaxTopClasses, input.TopClasses)
	}
	cfg.TopClasses = input.TopClasses

	return nil
}

// processAlignment handles the temporal alignment window and report calendar.
func processAlignment(cfg *Config, input *ConfigRawInput) error {
	if input.ReportDay < 1 || input.ReportDay > 31 {
		return fmt.Errorf("report-day must be between 1 and 31 (received %d)", input.ReportDay)
	}
	cfg.ReportDay = input.ReportDay

	parse := func(name, value string, fallback int64) (time.Duration, error) {
		if strings.TrimSpace(value) == "" {
			return time.Duration(fallback) * time.Second, nil
		}
		d, err := ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", name, err)
		}
		return d, nil
	}

	var err error
	if cfg.Interval, err = parse("interval", input.Interval, schema.DefaultIntervalSeconds); err != nil {
		return err
	}
	if cfg.Tolerance, err = parse("tolerance", input.Tolerance, schema.DefaultToleranceSeconds); err != nil {
		return err
	}
	if cfg.Separation, err = parse("separation", input.Separation, schema.DefaultSeparationSeconds); err != nil {
		return err
	}
	if cfg.Tolerance >= cfg.Interval {
		return fmt.Errorf("tolerance (%s) must be smaller than interval (%s)", cfg.Tolerance, cfg.Interval)
	}

	tz := input.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", tz, err)
	}
	cfg.Location = loc

	return nil
}

// validateBackendConfigs validates execution store and classification cache backends.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Execution Store Validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	// --- Classification Cache Validation ---
	cfg.ClassCacheBackend = schema.DatabaseBackend(strings.ToLower(input.ClassCacheBackend))
	if cfg.ClassCacheBackend == "" {
		return nil
	}
	if _, ok := schema.ValidBackends[cfg.ClassCacheBackend]; !ok {
		return fmt.Errorf("invalid class cache backend '%s'. must be sqlite, mysql, postgresql, none", input.ClassCacheBackend)
	}
	cfg.ClassCacheDBConnect = input.ClassCacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.ClassCacheBackend, cfg.ClassCacheDBConnect); err != nil {
		return err
	}

	// Both stores create tables on open, so two SQLite stores must not share one file
	if cfg.StoreBackend == schema.SQLiteBackend && cfg.ClassCacheBackend == schema.SQLiteBackend {
		storePath := cfg.StoreDBConnect
		if storePath == "" {
			storePath = GetStoreDBFilePath()
		}
		cachePath := cfg.ClassCacheDBConnect
		if cachePath == "" {
			cachePath = GetClassCacheDBFilePath()
		}
		if storePath == cachePath && storePath != ":memory:" {
			return fmt.Errorf("execution store and class cache must use different SQLite database files. Both resolve to %q", storePath)
		}
	}

	return nil
}

// processClassifier handles the drug classification service settings.
func processClassifier(cfg *Config, input *ConfigRawInput) error {
	cfg.ClassifierURL = strings.TrimRight(strings.TrimSpace(input.ClassifierURL), "/")
	cfg.ClassesFile = input.ClassesFile
	cfg.ClassifierTimeout = DefaultClassifierTimeout
	if input.ClassifierTimeout != "" {
		d, err := ParseDuration(input.ClassifierTimeout)
		if err != nil {
			return fmt.Errorf("invalid classifier-timeout: %w", err)
		}
		cfg.ClassifierTimeout = d
	}
	if cfg.ClassifierURL != "" && !strings.HasPrefix(cfg.ClassifierURL, "http://") && !strings.HasPrefix(cfg.ClassifierURL, "https://") {
		return fmt.Errorf("classifier-url must start with http:// or https:// (received %q)", input.ClassifierURL)
	}
	return nil
}
