package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/huangsam/cohort/core/agg"
	"github.com/huangsam/cohort/core/algo"
	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// drugKey identifies a drug code within its code system.
type drugKey struct {
	code   string
	system string
}

// resolveClasses classifies every distinct drug code found in the executions.
// Codes the service does not know are left out of the index and their records are
// dropped later; any other failure aborts the report.
func resolveClasses(ctx context.Context, svc contract.ClassificationService, executions []schema.ExecutionSnapshot) (map[drugKey]string, error) {
	if svc == nil {
		return nil, errors.New("no classification service configured")
	}

	seen := make(map[drugKey]bool)
	var keys []drugKey
	for _, snap := range executions {
		for _, r := range agg.DecodeAll(snap.Counters, agg.DecodeMedClass) {
			k := drugKey{code: r.DrugCode, system: r.CodeSystem}
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].system != keys[j].system {
			return keys[i].system < keys[j].system
		}
		return keys[i].code < keys[j].code
	})

	index := make(map[drugKey]string, len(keys))
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		class, err := svc.Classify(ctx, k.code, k.system)
		switch {
		case err == nil && class != "":
			classLookups.WithLabelValues("found").Inc()
			index[k] = class
		case err == nil, errors.Is(err, contract.ErrClassNotFound):
			classLookups.WithLabelValues("not_found").Inc()
			slog.Warn("dropping unclassified drug code",
				slog.String("code", k.code),
				slog.String("code_system", k.system),
			)
		default:
			classLookups.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("cannot classify %s (%s): %w", k.code, k.system, err)
		}
	}
	return index, nil
}

// classifiedDecoder decodes med-class keys and attaches the resolved class.
// Records without a class do not decode.
func classifiedDecoder(index map[drugKey]string) agg.Decoder[schema.MedClassRecord] {
	return func(key string, count int) (schema.MedClassRecord, bool) {
		r, ok := agg.DecodeMedClass(key, count)
		if !ok {
			return r, false
		}
		class, ok := index[drugKey{code: r.DrugCode, system: r.CodeSystem}]
		if !ok {
			return schema.MedClassRecord{}, false
		}
		r.Class = class
		return r, true
	}
}

// BuildSnapshotView compares the clinician's top drug classes with group and network
// on the latest execution. Each share's denominator is the cohort's total over all
// classified drugs.
func BuildSnapshotView(ctx context.Context, req ReportRequest) (*schema.MedClassView, error) {
	req = req.withDefaults()
	if len(req.Executions) == 0 {
		return nil, fmt.Errorf("%w: no executions of %s", contract.ErrNoData, req.Title)
	}
	latest := req.Executions[0]
	for _, snap := range req.Executions[1:] {
		if snap.Time > latest.Time {
			latest = snap
		}
	}

	index, err := resolveClasses(ctx, req.Classifier, []schema.ExecutionSnapshot{latest})
	if err != nil {
		return nil, err
	}
	a := agg.NewAggregator(req.RequesterID, latest.Counters, classifiedDecoder(index), req.Directory)
	split, err := a.Split()
	if err != nil {
		return nil, err
	}
	groupName, _ := a.GroupName()

	top := algo.RankClasses(split.Self, req.TopClasses)
	groupCounts := algo.ClassTotals(split.Group)
	networkCounts := algo.ClassTotals(split.Network)
	totals := map[schema.Cohort]int{
		schema.SelfCohort:    algo.TotalCount(split.Self),
		schema.GroupCohort:   algo.TotalCount(split.Group),
		schema.NetworkCohort: algo.TotalCount(split.Network),
	}

	view := &schema.MedClassView{
		Title:     req.Title,
		GroupName: groupDisplayName(groupName),
		Time:      latest.Time,
		Drugs:     make([]schema.DrugRow, 0, len(top)),
	}
	for _, c := range top {
		view.Drugs = append(view.Drugs, schema.DrugRow{
			DrugName: c.ClassName,
			AggData: []schema.DrugShare{
				{Set: schema.SelfCohort, Numerator: c.Count, Denominator: totals[schema.SelfCohort]},
				{Set: schema.GroupCohort, Numerator: groupCounts[c.ClassName], Denominator: totals[schema.GroupCohort]},
				{Set: schema.NetworkCohort, Numerator: networkCounts[c.ClassName], Denominator: totals[schema.NetworkCohort]},
			},
		})
	}
	return view, nil
}
