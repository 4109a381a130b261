package algo

import (
	"sort"

	"github.com/huangsam/cohort/schema"
)

// CombinePairs merges numerator and denominator records of the same subject.
// Each record is consumed by at most one pair; records that never find a partner
// are dropped. Pairs come out in the order they complete.
func CombinePairs(records []schema.RatioRecord) []schema.RatioPair {
	type pending struct {
		numerators   []int
		denominators []int
	}
	open := make(map[string]*pending)
	var pairs []schema.RatioPair

	for _, r := range records {
		p, ok := open[r.SubjectID]
		if !ok {
			p = &pending{}
			open[r.SubjectID] = p
		}
		switch r.Field {
		case schema.NumeratorField:
			if len(p.denominators) > 0 {
				pairs = append(pairs, schema.RatioPair{SubjectID: r.SubjectID, Numerator: r.Count, Denominator: p.denominators[0]})
				p.denominators = p.denominators[1:]
				continue
			}
			p.numerators = append(p.numerators, r.Count)
		case schema.DenominatorField:
			if len(p.numerators) > 0 {
				pairs = append(pairs, schema.RatioPair{SubjectID: r.SubjectID, Numerator: p.numerators[0], Denominator: r.Count})
				p.numerators = p.numerators[1:]
				continue
			}
			p.denominators = append(p.denominators, r.Count)
		}
	}
	return pairs
}

// SumPairs adds numerators and denominators independently without suppression.
func SumPairs(pairs []schema.RatioPair) schema.RatioResult {
	var res schema.RatioResult
	for _, p := range pairs {
		res.Numerator += p.Numerator
		res.Denominator += p.Denominator
	}
	return res
}

// ReduceRatio sums a cohort's pairs and suppresses each side independently.
// The numerator may end up larger than the denominator when only the denominator
// fell below the threshold; that is reported as is.
func ReduceRatio(pairs []schema.RatioPair) schema.RatioResult {
	sum := SumPairs(pairs)
	return schema.RatioResult{
		Numerator:   PrivacyFilter(sum.Numerator),
		Denominator: PrivacyFilter(sum.Denominator),
	}
}

// CombineByGender buckets demographic counts by gender and age range label.
// It returns false when there is nothing to report, so "no data" stays distinct
// from "all zero".
func CombineByGender(records []schema.DemographicRecord) (schema.DemographicResult, bool) {
	if len(records) == 0 {
		return nil, false
	}
	out := make(schema.DemographicResult)
	for _, r := range records {
		if !schema.IsSupportedGender(r.Gender) {
			continue
		}
		buckets, ok := out[r.Gender]
		if !ok {
			buckets = make(map[string]int)
			out[r.Gender] = buckets
		}
		buckets[r.AgeLabel()] += r.Count
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// ClassTotals sums counts per resolved drug class. Records without a class are ignored.
func ClassTotals(records []schema.MedClassRecord) map[string]int {
	totals := make(map[string]int)
	for _, r := range records {
		if r.Class == "" {
			continue
		}
		totals[r.Class] += r.Count
	}
	return totals
}

// TotalCount sums every classified record of a cohort.
func TotalCount(records []schema.MedClassRecord) int {
	total := 0
	for _, r := range records {
		if r.Class != "" {
			total += r.Count
		}
	}
	return total
}

// RankClasses sums counts per class and keeps the limit highest, count descending.
// Ties keep the order in which the classes first appeared.
func RankClasses(records []schema.MedClassRecord, limit int) schema.MedClassResult {
	totals := make(map[string]int)
	var order []string
	for _, r := range records {
		if r.Class == "" {
			continue
		}
		if _, seen := totals[r.Class]; !seen {
			order = append(order, r.Class)
		}
		totals[r.Class] += r.Count
	}

	ranked := make(schema.MedClassResult, 0, len(order))
	for _, c := range order {
		ranked = append(ranked, schema.ClassCount{ClassName: c, Count: totals[c]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// AlignOtherCohorts restricts another cohort's class totals to the clinician's top
// classes, in the same order, with an explicit 0 for classes the cohort lacks.
func AlignOtherCohorts(top schema.MedClassResult, totals map[string]int) schema.MedClassResult {
	out := make(schema.MedClassResult, 0, len(top))
	for _, c := range top {
		out = append(out, schema.ClassCount{ClassName: c.ClassName, Count: totals[c.ClassName]})
	}
	return out
}
