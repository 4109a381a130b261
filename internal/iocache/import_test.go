package iocache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

const aggregateDocument = `{
  "title": "PDC-1738",
  "executions": [
    {"time": 1420143132, "aggregate_result": {"numerator_cpsid": 8, "denominator_cpsid": 10}},
    {"time": 1421352732, "aggregate_result": {"numerator_cpsid": 8.0, "denominator_cpsid": 10, "simulated": true}}
  ]
}`

func TestParseExecutionDocument(t *testing.T) {
	doc, err := ParseExecutionDocument(strings.NewReader(aggregateDocument))
	require.NoError(t, err)
	assert.Equal(t, "PDC-1738", doc.Title)
	require.Len(t, doc.Executions, 2)
	assert.Equal(t, schema.ExecutionSnapshot{
		Time:     1420143132,
		Counters: map[string]int{"numerator_cpsid": 8, "denominator_cpsid": 10},
	}, doc.Executions[0])
	assert.True(t, doc.Executions[1].Simulated)
	assert.NotContains(t, doc.Executions[1].Counters, "simulated")
	assert.Equal(t, 8, doc.Executions[1].Counters["numerator_cpsid"])
}

func TestParseExecutionDocumentSnapshots(t *testing.T) {
	doc, err := ParseExecutionDocument(strings.NewReader(`[
		{"time": 5, "counters": {"a": 1}, "simulated": true},
		{"time": 6}
	]`))
	require.NoError(t, err)
	assert.Empty(t, doc.Title)
	require.Len(t, doc.Executions, 2)
	assert.True(t, doc.Executions[0].Simulated)
	assert.Equal(t, 1, doc.Executions[0].Counters["a"])
	assert.NotNil(t, doc.Executions[1].Counters)
}

func TestParseExecutionDocumentErrors(t *testing.T) {
	cases := map[string]string{
		"not json":      `{`,
		"missing time":  `{"executions": [{"counters": {}}]}`,
		"string count":  `{"executions": [{"time": 1, "aggregate_result": {"a": "x"}}]}`,
		"fraction":      `{"executions": [{"time": 1, "aggregate_result": {"a": 1.5}}]}`,
		"negative":      `{"executions": [{"time": 1, "aggregate_result": {"a": -1}}]}`,
		"bad simulated": `{"executions": [{"time": 1, "aggregate_result": {"simulated": "yes"}}]}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseExecutionDocument(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestParseExecutionDocumentInvalidCounts(t *testing.T) {
	cases := map[string]string{
		"string count": `{"executions": [{"time": 1, "aggregate_result": {"a": "x"}}]}`,
		"fraction":     `{"executions": [{"time": 1, "aggregate_result": {"a": 1.5}}]}`,
		"null":         `{"executions": [{"time": 1, "aggregate_result": {"a": null}}]}`,
		"huge":         `{"executions": [{"time": 1, "aggregate_result": {"a": 1e40}}]}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseExecutionDocument(strings.NewReader(input))
			assert.ErrorIs(t, err, contract.ErrInvalidPrivacyInput)
		})
	}

	// Small counts are stored as is; suppression happens on cohort sums
	doc, err := ParseExecutionDocument(strings.NewReader(`{"executions": [{"time": 1, "aggregate_result": {"a": 2}}]}`))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Executions[0].Counters["a"])
}

func TestLoadAndImportExecutions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PDC-1738.json")
	require.NoError(t, os.WriteFile(path, []byte(aggregateDocument), 0o644))

	doc, err := LoadExecutionDocument(path)
	require.NoError(t, err)

	store := newTestExecutionStore(t)
	ctx := context.Background()

	n, err := ImportExecutions(ctx, store, "", doc)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = ImportExecutions(ctx, store, "renamed", doc)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	queries, err := store.ListQueries(ctx)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "PDC-1738", queries[0].Title)
	assert.Equal(t, "renamed", queries[1].Title)

	_, err = ImportExecutions(ctx, store, "", &ExecutionDocument{})
	assert.Error(t, err)

	_, err = LoadExecutionDocument(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestImportExecutionsStopsOnError(t *testing.T) {
	store := &contract.MockExecutionStore{}
	store.On("SaveExecution", mock.Anything, "q", mock.Anything).Return(assert.AnError).Once()

	doc := &ExecutionDocument{Executions: []schema.ExecutionSnapshot{{Time: 1}, {Time: 2}}}
	n, err := ImportExecutions(context.Background(), store, "q", doc)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, n)
	store.AssertNumberOfCalls(t, "SaveExecution", 1)
}
