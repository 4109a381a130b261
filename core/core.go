// Package core builds aligned cohort reports and population summaries from
// stored query executions.
package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/huangsam/cohort/internal/classify"
	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/internal/groups"
	"github.com/huangsam/cohort/internal/outwriter"
	"github.com/huangsam/cohort/schema"
)

// ExecutorFunc defines the function signature for executing the report commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteReport builds the aligned report of cfg.QueryTitle for cfg.Family and
// writes it in the configured output format.
func ExecuteReport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	ow := outwriter.NewOutWriter()

	result, err := GetReportResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	logReportHeader(ctx, cfg, start)

	switch report := result.(type) {
	case *schema.Report[schema.RatioResult]:
		return ow.WriteRatioReport(report, cfg)
	case *schema.Report[schema.DemographicResult]:
		return ow.WriteDemographicReport(report, cfg)
	case *schema.Report[schema.MedClassResult]:
		return ow.WriteMedClassReport(report, cfg)
	default:
		return fmt.Errorf("unsupported report type %T", result)
	}
}

// ExecuteSnapshot builds the med-class comparison of the latest execution and writes it.
func ExecuteSnapshot(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	view, err := GetSnapshotResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	logReportHeader(ctx, cfg, start)
	return outwriter.NewOutWriter().WriteSnapshotView(view, cfg)
}

// ExecuteSummary builds the population summary of the configured queries and writes it.
func ExecuteSummary(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	summary, err := GetSummaryResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if !shouldSuppressHeader(ctx) {
		fmt.Fprintf(os.Stderr, "📋 Summary: %s (%d queries, %v)\n", summary.Name, len(summary.Rows), time.Since(start).Round(time.Millisecond))
	}
	return outwriter.NewOutWriter().WriteSummary(summary, cfg)
}

// GetReportResults builds the report of cfg.QueryTitle without writing it.
// The result is a *schema.Report of the aggregate type of cfg.Family.
func GetReportResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (any, error) {
	req, err := prepareRequest(ctx, cfg, mgr, cfg.Family == schema.MedClassFamily)
	if err != nil {
		return nil, err
	}

	switch cfg.Family {
	case schema.RatioFamily, "":
		return BuildRatioReport(ctx, req)
	case schema.DemographicFamily:
		return BuildDemographicReport(ctx, req)
	case schema.MedClassFamily:
		return BuildMedClassReport(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported family '%s'", cfg.Family)
	}
}

// GetSnapshotResults builds the med-class snapshot of cfg.QueryTitle without writing it.
func GetSnapshotResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*schema.MedClassView, error) {
	req, err := prepareRequest(ctx, cfg, mgr, true)
	if err != nil {
		return nil, err
	}
	return BuildSnapshotView(ctx, req)
}

// GetSummaryResults builds the population summary without writing it.
// Queries come from cfg.Queries, or from the catalog when none are given.
func GetSummaryResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*schema.Summary, error) {
	store, err := executionStore(mgr)
	if err != nil {
		return nil, err
	}
	directory, err := loadDirectory(cfg)
	if err != nil {
		return nil, err
	}

	catalog := &Catalog{}
	if cfg.QueriesFile != "" {
		if catalog, err = LoadCatalog(cfg.QueriesFile); err != nil {
			return nil, err
		}
	}
	queries := cfg.Queries
	if len(queries) == 0 {
		queries = catalog.Titles()
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: no queries to summarize", contract.ErrNoData)
	}

	name := cfg.SummaryName
	if name == "" {
		name = catalog.Name
	}
	if name == "" {
		name = contract.DefaultSummaryName
	}

	executions := make(map[string][]schema.ExecutionSnapshot, len(queries))
	for _, q := range queries {
		snaps, err := store.ListExecutions(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("cannot load executions of %s: %w", q, err)
		}
		if len(snaps) == 0 {
			slog.Warn("query has no executions", slog.String("query", q))
		}
		executions[q] = snaps
	}

	return BuildSummary(ctx, SummaryRequest{
		RunID:       runIDFrom(ctx),
		Name:        name,
		RequesterID: cfg.RequesterID,
		Queries:     queries,
		Catalog:     catalog.Metadata(),
		Executions:  executions,
		Directory:   directory,
		Separation:  cfg.SeparationSeconds(),
	})
}

// prepareRequest loads everything a report of cfg.QueryTitle needs.
func prepareRequest(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, withClassifier bool) (ReportRequest, error) {
	store, err := executionStore(mgr)
	if err != nil {
		return ReportRequest{}, err
	}
	executions, err := store.ListExecutions(ctx, cfg.QueryTitle)
	if err != nil {
		return ReportRequest{}, fmt.Errorf("cannot load executions of %s: %w", cfg.QueryTitle, err)
	}
	if len(executions) == 0 {
		return ReportRequest{}, fmt.Errorf("%w: %s", contract.ErrUnknownQuery, cfg.QueryTitle)
	}

	directory, err := loadDirectory(cfg)
	if err != nil {
		return ReportRequest{}, err
	}

	var classifier contract.ClassificationService
	if withClassifier {
		if classifier, err = classify.NewFromConfig(cfg, mgr.GetClassCache()); err != nil {
			return ReportRequest{}, err
		}
	}

	req := NewReportRequest(cfg, executions, directory, classifier)
	if runID := runIDFrom(ctx); runID != "" {
		req.RunID = runID
	}
	return req, nil
}

func executionStore(mgr contract.StoreManager) (contract.ExecutionStore, error) {
	if mgr == nil {
		return nil, errors.New("no store manager configured")
	}
	store := mgr.GetExecutionStore()
	if store == nil {
		return nil, errors.New("execution store is not initialized")
	}
	return store, nil
}

// loadDirectory reads the group directory of cfg. A missing default file means
// nobody has a group.
func loadDirectory(cfg *contract.Config) (contract.GroupDirectory, error) {
	if cfg.GroupsFile == "" {
		return groups.New(nil, cfg.Initiative), nil
	}
	directory, err := groups.Load(cfg.GroupsFile, cfg.Initiative)
	if errors.Is(err, fs.ErrNotExist) && cfg.GroupsFile == contract.DefaultGroupsFile {
		slog.Warn("group directory not found, reporting without groups", slog.String("path", cfg.GroupsFile))
		return groups.New(nil, cfg.Initiative), nil
	}
	if err != nil {
		return nil, err
	}
	return directory, nil
}

// logReportHeader prints a concise header for a report to stderr.
func logReportHeader(ctx context.Context, cfg *contract.Config, start time.Time) {
	if shouldSuppressHeader(ctx) {
		return
	}
	fmt.Fprintf(os.Stderr, "🔎 Query: %s (Family: %s, Requester: %s)\n", cfg.QueryTitle, cfg.Family, cfg.RequesterID)
	fmt.Fprintf(os.Stderr, "📅 Alignment: day %d every %v ± %v (%v)\n", cfg.ReportDay, cfg.Interval, cfg.Tolerance, time.Since(start).Round(time.Millisecond))
}
