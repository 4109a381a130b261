// Package core builds aligned cohort reports from stored query executions.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/cohort/core/agg"
	"github.com/huangsam/cohort/core/algo"
	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// ReportRequest carries one requester's view on the executions of one query.
type ReportRequest struct {
	RunID       string
	RequesterID string
	Title       string
	Executions  []schema.ExecutionSnapshot
	Directory   contract.GroupDirectory
	Classifier  contract.ClassificationService // medclass family only

	ReportDay  int
	Interval   int64
	Tolerance  int64
	Location   *time.Location
	TopClasses int
}

// NewReportRequest fills a request from the validated config.
func NewReportRequest(cfg *contract.Config, executions []schema.ExecutionSnapshot, directory contract.GroupDirectory, classifier contract.ClassificationService) ReportRequest {
	return ReportRequest{
		RunID:       uuid.NewString(),
		RequesterID: cfg.RequesterID,
		Title:       cfg.QueryTitle,
		Executions:  executions,
		Directory:   directory,
		Classifier:  classifier,
		ReportDay:   cfg.ReportDay,
		Interval:    cfg.IntervalSeconds(),
		Tolerance:   cfg.ToleranceSeconds(),
		Location:    cfg.Location,
		TopClasses:  cfg.TopClasses,
	}
}

// withDefaults fills zero fields with the engine defaults.
func (r ReportRequest) withDefaults() ReportRequest {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.ReportDay == 0 {
		r.ReportDay = schema.DefaultReportDay
	}
	if r.Interval <= 0 {
		r.Interval = schema.DefaultIntervalSeconds
	}
	if r.Tolerance <= 0 {
		r.Tolerance = schema.DefaultToleranceSeconds
	}
	if r.Location == nil {
		r.Location = time.UTC
	}
	if r.TopClasses <= 0 {
		r.TopClasses = schema.DefaultTopClasses
	}
	return r
}

// cohortValues is one execution reduced for every cohort that has data.
type cohortValues[A schema.Aggregate] struct {
	values    map[schema.Cohort]A
	peers     map[string]A
	peerOrder []string
}

// reducer turns one execution's cohort split into aggregates.
type reducer[R schema.Record, A schema.Aggregate] func(split schema.CohortSplit[R]) cohortValues[A]

// BuildRatioReport builds the aligned numerator/denominator report of a ratio query,
// including one anonymous series per aligned group peer.
func BuildRatioReport(ctx context.Context, req ReportRequest) (report *schema.Report[schema.RatioResult], err error) {
	req = req.withDefaults()
	_, done := startBuild(ctx, schema.RatioFamily, req)
	defer func() { done(err) }()

	return buildReport[schema.RatioRecord, schema.RatioResult](req, schema.RatioFamily, agg.DecodeRatio, ratioReducer(req.RequesterID))
}

// BuildDemographicReport builds the aligned gender and age report of a demographic query.
func BuildDemographicReport(ctx context.Context, req ReportRequest) (report *schema.Report[schema.DemographicResult], err error) {
	req = req.withDefaults()
	_, done := startBuild(ctx, schema.DemographicFamily, req)
	defer func() { done(err) }()

	return buildReport[schema.DemographicRecord, schema.DemographicResult](req, schema.DemographicFamily, agg.DecodeDemographic, demographicReducer)
}

// BuildMedClassReport builds the aligned top drug class report of a med-class query.
// Drug codes are resolved through the request's classifier first.
func BuildMedClassReport(ctx context.Context, req ReportRequest) (report *schema.Report[schema.MedClassResult], err error) {
	req = req.withDefaults()
	ctx, done := startBuild(ctx, schema.MedClassFamily, req)
	defer func() { done(err) }()

	index, err := resolveClasses(ctx, req.Classifier, req.Executions)
	if err != nil {
		return nil, err
	}
	return buildReport[schema.MedClassRecord, schema.MedClassResult](req, schema.MedClassFamily, classifiedDecoder(index), medClassReducer(req.TopClasses))
}

func buildReport[R schema.Record, A schema.Aggregate](req ReportRequest, family schema.Family, decode agg.Decoder[R], reduce reducer[R, A]) (*schema.Report[A], error) {
	if len(req.Executions) == 0 {
		return nil, fmt.Errorf("%w: no executions of %s", contract.ErrNoData, req.Title)
	}

	series := make(map[schema.Cohort][]schema.AlignedPoint[A])
	peers := make(map[string][]schema.AlignedPoint[A])
	var peerOrder []string
	groupName := ""

	for _, snap := range req.Executions {
		a := agg.NewAggregator(req.RequesterID, snap.Counters, decode, req.Directory)
		split, err := a.Split()
		if err != nil {
			return nil, err
		}
		groupName, _ = a.GroupName()

		vals := reduce(split)
		if groupName == "" {
			delete(vals.values, schema.GroupCohort)
		}
		for cohort, v := range vals.values {
			series[cohort] = append(series[cohort], schema.AlignedPoint[A]{Time: snap.Time, Aggregate: v, Simulated: snap.Simulated})
		}
		for _, id := range vals.peerOrder {
			if _, seen := peers[id]; !seen {
				peerOrder = append(peerOrder, id)
			}
			peers[id] = append(peers[id], schema.AlignedPoint[A]{Time: snap.Time, Aggregate: vals.peers[id], Simulated: snap.Simulated})
		}
	}

	report := &schema.Report[A]{
		Title:     req.Title,
		Family:    family,
		RunID:     req.RunID,
		GroupName: groupName,
		DisplayNames: map[schema.Cohort]string{
			schema.SelfCohort:    schema.ClinicianDisplayName,
			schema.GroupCohort:   groupDisplayName(groupName),
			schema.NetworkCohort: schema.NetworkDisplayName,
		},
		Clinician: alignSeries(series[schema.SelfCohort], req),
		Group:     alignSeries(series[schema.GroupCohort], req),
		Network:   alignSeries(series[schema.NetworkCohort], req),
		Anonymous: make(map[string][]schema.AlignedPoint[A]),
	}

	if len(report.Clinician) == 0 {
		return nil, fmt.Errorf("%w: no clinician execution of %s on day %d", contract.ErrInsufficientTemporalAlignment, req.Title, req.ReportDay)
	}
	if !sameAlignment(report.Clinician, report.Network) {
		return nil, fmt.Errorf("%w: network series of %s", contract.ErrInsufficientTemporalAlignment, req.Title)
	}
	if groupName != "" && !sameAlignment(report.Clinician, report.Group) {
		return nil, fmt.Errorf("%w: group series of %s", contract.ErrInsufficientTemporalAlignment, req.Title)
	}

	for _, id := range peerOrder {
		chain := alignSeries(peers[id], req)
		if !sameAlignment(report.Clinician, chain) {
			skippedPeers.Inc()
			slog.Warn("skipping misaligned peer",
				slog.String("run_id", req.RunID),
				slog.String("peer", id),
				slog.Int("points", len(chain)),
				slog.Int("expected", len(report.Clinician)),
			)
			continue
		}
		report.Anonymous[id] = chain
		report.PeerOrder = append(report.PeerOrder, id)
	}

	slog.Debug("report built",
		slog.String("run_id", req.RunID),
		slog.String("query", req.Title),
		slog.String("family", string(family)),
		slog.Int("points", report.Len()),
		slog.Int("peers", len(report.PeerOrder)),
	)
	return report, nil
}

// alignSeries chains a cohort's points monthly from the oldest one on the report day.
func alignSeries[A schema.Aggregate](points []schema.AlignedPoint[A], req ReportRequest) []schema.AlignedPoint[A] {
	start, ok := algo.OldestOnDay(points, req.ReportDay, req.Location)
	if !ok {
		return []schema.AlignedPoint[A]{}
	}
	return algo.FillDeltas(algo.ChainMonthly(start, points, req.Interval, req.Tolerance))
}

// sameAlignment reports whether two chains start together and have the same length.
func sameAlignment[A schema.Aggregate](a, b []schema.AlignedPoint[A]) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || a[0].Time == b[0].Time
}

func groupDisplayName(groupName string) string {
	if groupName == "" {
		return "Group"
	}
	return schema.GroupDisplayName(groupName)
}

func ratioReducer(requesterID string) reducer[schema.RatioRecord, schema.RatioResult] {
	return func(split schema.CohortSplit[schema.RatioRecord]) cohortValues[schema.RatioResult] {
		groupPairs := algo.CombinePairs(split.Group)
		vals := cohortValues[schema.RatioResult]{values: make(map[schema.Cohort]schema.RatioResult)}
		for cohort, pairs := range map[schema.Cohort][]schema.RatioPair{
			schema.SelfCohort:    algo.CombinePairs(split.Self),
			schema.GroupCohort:   groupPairs,
			schema.NetworkCohort: algo.CombinePairs(split.Network),
		} {
			reduced := algo.ReduceRatio(pairs)
			countSuppressed(cohort, algo.SumPairs(pairs), reduced)
			vals.values[cohort] = reduced
		}
		vals.peers, vals.peerOrder = algo.Anonymize(groupPairs, requesterID)
		return vals
	}
}

func demographicReducer(split schema.CohortSplit[schema.DemographicRecord]) cohortValues[schema.DemographicResult] {
	vals := cohortValues[schema.DemographicResult]{values: make(map[schema.Cohort]schema.DemographicResult)}
	for cohort, records := range map[schema.Cohort][]schema.DemographicRecord{
		schema.SelfCohort:    split.Self,
		schema.GroupCohort:   split.Group,
		schema.NetworkCohort: split.Network,
	} {
		if res, ok := algo.CombineByGender(records); ok {
			vals.values[cohort] = res
		}
	}
	return vals
}

func medClassReducer(limit int) reducer[schema.MedClassRecord, schema.MedClassResult] {
	return func(split schema.CohortSplit[schema.MedClassRecord]) cohortValues[schema.MedClassResult] {
		top := algo.RankClasses(split.Self, limit)
		return cohortValues[schema.MedClassResult]{values: map[schema.Cohort]schema.MedClassResult{
			schema.SelfCohort:    top,
			schema.GroupCohort:   algo.AlignOtherCohorts(top, algo.ClassTotals(split.Group)),
			schema.NetworkCohort: algo.AlignOtherCohorts(top, algo.ClassTotals(split.Network)),
		}}
	}
}
