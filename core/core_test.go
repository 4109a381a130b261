package core

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

const groupsYAML = `groups:
  - name: test1
    initiative: pdc
    members: [cpsid, cpsid2, cpsid3, cpsid4]
  - name: test2
    initiative: pdc
    members: [other]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestConfig(t *testing.T) *contract.Config {
	return &contract.Config{
		RequesterID: "cpsid",
		Family:      schema.RatioFamily,
		QueryTitle:  "PDC-1738",
		GroupsFile:  writeFile(t, "groups.yaml", groupsYAML),
		Initiative:  "pdc",
		ReportDay:   1,
		Interval:    30 * 24 * time.Hour,
		Tolerance:   48 * time.Hour,
		Location:    time.UTC,
		TopClasses:  10,
		Precision:   1,
		Output:      schema.JSONOut,
		OutputFile:  filepath.Join(t.TempDir(), "out.json"),
	}
}

func newMockManager(executions map[string][]schema.ExecutionSnapshot) (*contract.MockStoreManager, *contract.MockExecutionStore) {
	store := &contract.MockExecutionStore{}
	for title, snaps := range executions {
		store.On("ListExecutions", mock.Anything, title).Return(snaps, nil)
	}
	store.On("ListExecutions", mock.Anything, mock.Anything).Return([]schema.ExecutionSnapshot{}, nil)

	mgr := &contract.MockStoreManager{}
	mgr.On("GetExecutionStore").Return(store)
	mgr.On("GetClassCache").Return(nil)
	return mgr, store
}

// TestExecuteReport tests the report entry point end to end with JSON output.
func TestExecuteReport(t *testing.T) {
	ctx := WithRunID(WithSuppressHeader(context.Background()), "run-fixture")
	cfg := newTestConfig(t)
	mgr, store := newMockManager(map[string][]schema.ExecutionSnapshot{"PDC-1738": ratioFixture()})

	require.NoError(t, ExecuteReport(ctx, cfg, mgr))
	store.AssertCalled(t, "ListExecutions", mock.Anything, "PDC-1738")

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var report schema.Report[schema.RatioResult]
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "run-fixture", report.RunID)
	assert.Equal(t, "test1", report.GroupName)
	assert.Len(t, report.Clinician, fixtureRuns)
	assert.Len(t, report.PeerOrder, 2)
}

// TestGetReportResults tests family dispatch and the error paths of report loading.
func TestGetReportResults(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())

	t.Run("demographic", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Family = schema.DemographicFamily
		cfg.QueryTitle = "DEMO-1"
		mgr, _ := newMockManager(map[string][]schema.ExecutionSnapshot{"DEMO-1": demographicFixture()})

		result, err := GetReportResults(ctx, cfg, mgr)
		require.NoError(t, err)
		report, ok := result.(*schema.Report[schema.DemographicResult])
		require.True(t, ok)
		assert.Equal(t, 3, report.Len())
	})

	t.Run("medclass with class table", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Family = schema.MedClassFamily
		cfg.QueryTitle = "MED-1"
		cfg.ClassesFile = writeFile(t, "classes.yaml", "hc-din:\n  \"02242963\": statins\nwhoatc:\n  C10AA05: lipid modifying agents\n  N02AA01: opioids\n")
		mgr, _ := newMockManager(map[string][]schema.ExecutionSnapshot{"MED-1": medClassFixture()})

		result, err := GetReportResults(ctx, cfg, mgr)
		require.NoError(t, err)
		report, ok := result.(*schema.Report[schema.MedClassResult])
		require.True(t, ok)
		assert.Equal(t, "statins", report.Clinician[0].Aggregate[0].ClassName)

		view, err := GetSnapshotResults(ctx, cfg, mgr)
		require.NoError(t, err)
		assert.Len(t, view.Drugs, 2)
	})

	t.Run("medclass without classifier", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Family = schema.MedClassFamily
		cfg.QueryTitle = "MED-1"
		mgr, _ := newMockManager(map[string][]schema.ExecutionSnapshot{"MED-1": medClassFixture()})

		_, err := GetReportResults(ctx, cfg, mgr)
		assert.Error(t, err)
	})

	t.Run("unknown query", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.QueryTitle = "NOPE"
		mgr, _ := newMockManager(nil)

		_, err := GetReportResults(ctx, cfg, mgr)
		assert.ErrorIs(t, err, contract.ErrUnknownQuery)
		assert.Equal(t, http.StatusNotFound, contract.StatusCode(err))
	})

	t.Run("missing default groups file", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.GroupsFile = contract.DefaultGroupsFile
		mgr, _ := newMockManager(map[string][]schema.ExecutionSnapshot{"PDC-1738": ratioFixture()})

		result, err := GetReportResults(ctx, cfg, mgr)
		require.NoError(t, err)
		assert.Empty(t, result.(*schema.Report[schema.RatioResult]).Group)
	})

	t.Run("missing explicit groups file", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.GroupsFile = filepath.Join(t.TempDir(), "missing.yaml")
		mgr, _ := newMockManager(map[string][]schema.ExecutionSnapshot{"PDC-1738": ratioFixture()})

		_, err := GetReportResults(ctx, cfg, mgr)
		assert.Error(t, err)
	})

	t.Run("no execution store", func(t *testing.T) {
		mgr := &contract.MockStoreManager{}
		mgr.On("GetExecutionStore").Return(nil)
		_, err := GetReportResults(ctx, newTestConfig(t), mgr)
		assert.Error(t, err)

		_, err = GetReportResults(ctx, newTestConfig(t), nil)
		assert.Error(t, err)
	})
}

// TestExecuteSummary tests the summary entry point with a query catalog.
func TestExecuteSummary(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newTestConfig(t)
	cfg.Output = schema.CSVOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "summary.csv")
	cfg.QueriesFile = writeFile(t, "queries.yaml", `name: Q1 summary
queries:
  - query: PDC-1738
    title: Statin use
    target: 80%
  - query: PDC-053
  - query: PDC-999
`)
	mgr, _ := newMockManager(summaryExecutions())

	require.NoError(t, ExecuteSummary(ctx, cfg, mgr))
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "Q1 summary\n")
	assert.Contains(t, out, "PDC-1738,Statin use,N/A,2015-6-30,87.50,14.00,16.00,80%,N/A")
	assert.Contains(t, out, "PDC-999,N/A,N/A,NO DATA")

	t.Run("explicit queries override the catalog", func(t *testing.T) {
		cfg.Queries = []string{"PDC-053"}
		cfg.SummaryName = "Only one"
		summary, err := GetSummaryResults(ctx, cfg, mgr)
		require.NoError(t, err)
		assert.Equal(t, "Only one", summary.Name)
		require.Len(t, summary.Rows, 1)
		require.NotNil(t, summary.Rows[0].Metadata)
		assert.Empty(t, summary.Rows[0].Metadata.Title)
	})

	t.Run("nothing to summarize", func(t *testing.T) {
		empty := newTestConfig(t)
		_, err := GetSummaryResults(ctx, empty, mgr)
		assert.ErrorIs(t, err, contract.ErrNoData)
	})
}
