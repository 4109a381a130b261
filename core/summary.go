package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/huangsam/cohort/core/agg"
	"github.com/huangsam/cohort/core/algo"
	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// SummaryRequest lists the queries of a population summary and their executions.
type SummaryRequest struct {
	RunID       string
	Name        string
	RequesterID string
	Queries     []string
	Catalog     map[string]schema.QueryMetadata
	Executions  map[string][]schema.ExecutionSnapshot
	Directory   contract.GroupDirectory
	Separation  int64
}

// BuildSummary reports the requester's latest ratio for every query.
// Queries without executions, and queries whose latest execution trails the most
// recent one by more than the separation, are kept as rows without a result.
func BuildSummary(ctx context.Context, req SummaryRequest) (summary *schema.Summary, err error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if req.Separation <= 0 {
		req.Separation = schema.DefaultSeparationSeconds
	}
	_, done := startBuild(ctx, schema.RatioFamily, ReportRequest{RunID: req.RunID, Title: req.Name})
	defer func() { done(err) }()

	summary = &schema.Summary{Name: req.Name, Rows: make([]schema.SummaryRow, 0, len(req.Queries))}
	var newest int64
	for _, q := range req.Queries {
		row := schema.SummaryRow{Query: q}
		if meta, ok := req.Catalog[q]; ok {
			row.Metadata = &meta
		}

		if snaps := req.Executions[q]; len(snaps) > 0 {
			latest := snaps[0]
			for _, s := range snaps[1:] {
				if s.Time > latest.Time {
					latest = s
				}
			}
			split, err := agg.NewAggregator(req.RequesterID, latest.Counters, agg.DecodeRatio, req.Directory).Split()
			if err != nil {
				return nil, err
			}
			res := algo.ReduceRatio(algo.CombinePairs(split.Self))
			row.Time = latest.Time
			row.Result = &res
			newest = max(newest, latest.Time)
		}
		summary.Rows = append(summary.Rows, row)
	}

	withData := 0
	for i := range summary.Rows {
		row := &summary.Rows[i]
		if row.Result == nil {
			continue
		}
		if newest-row.Time > req.Separation {
			slog.Warn("dropping stale query from summary",
				slog.String("run_id", req.RunID),
				slog.String("query", row.Query),
				slog.Int64("behind_seconds", newest-row.Time),
			)
			row.Result = nil
			continue
		}
		withData++
	}
	if withData == 0 {
		return nil, fmt.Errorf("%w: no query of %q has executions", contract.ErrNoData, req.Name)
	}
	return summary, nil
}
