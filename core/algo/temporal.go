package algo

import (
	"time"

	"github.com/huangsam/cohort/schema"
)

// OldestOnDay returns the earliest point whose timestamp falls on the given day of
// the month in loc. Days outside 1..31 and points without a timestamp never match.
func OldestOnDay[P schema.Timed](points []P, day int, loc *time.Location) (P, bool) {
	var best P
	if day < 1 || day > 31 || len(points) == 0 {
		return best, false
	}
	if loc == nil {
		loc = time.UTC
	}
	found := false
	for _, p := range points {
		ts := p.Timestamp()
		if ts <= 0 {
			continue
		}
		if time.Unix(ts, 0).In(loc).Day() != day {
			continue
		}
		if !found || ts < best.Timestamp() {
			best = p
			found = true
		}
	}
	return best, found
}

// FindNextTimed returns the point after current whose gap from current is within
// tolerance of interval and closest to it. Ties keep the first point encountered.
func FindNextTimed[P schema.Timed](current P, points []P, interval, tolerance int64) (P, bool) {
	var best P
	from := current.Timestamp()
	lo, hi := interval-tolerance, interval+tolerance
	bestDist := int64(-1)
	for _, p := range points {
		diff := p.Timestamp() - from
		if diff <= 0 || diff < lo || diff > hi {
			continue
		}
		dist := diff - interval
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = p, dist
		}
	}
	return best, bestDist >= 0
}

// ChainMonthly follows FindNextTimed from start until no successor exists.
// The chain always holds start and is strictly increasing in time.
func ChainMonthly[P schema.Timed](start P, points []P, interval, tolerance int64) []P {
	chain := []P{start}
	cur := start
	for {
		next, ok := FindNextTimed(cur, points, interval, tolerance)
		if !ok {
			return chain
		}
		chain = append(chain, next)
		cur = next
	}
}

// DeltaRatio is b minus a, per side.
func DeltaRatio(a, b schema.RatioResult) schema.RatioResult {
	return schema.RatioResult{
		Numerator:   b.Numerator - a.Numerator,
		Denominator: b.Denominator - a.Denominator,
	}
}

// DeltaDemographic is b minus a for every gender and age bucket present in both.
// It returns false when the two share no bucket.
func DeltaDemographic(a, b schema.DemographicResult) (schema.DemographicResult, bool) {
	out := make(schema.DemographicResult)
	for g, later := range b {
		earlier, ok := a[g]
		if !ok {
			continue
		}
		for label, n := range later {
			prev, ok := earlier[label]
			if !ok {
				continue
			}
			if out[g] == nil {
				out[g] = make(map[string]int)
			}
			out[g][label] = n - prev
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// DeltaMedClass is b minus a for every class present in both, in b's order.
func DeltaMedClass(a, b schema.MedClassResult) schema.MedClassResult {
	prev := a.Counts()
	out := make(schema.MedClassResult, 0, len(b))
	for _, c := range b {
		p, ok := prev[c.ClassName]
		if !ok {
			continue
		}
		out = append(out, schema.ClassCount{ClassName: c.ClassName, Count: c.Count - p})
	}
	return out
}

// Delta dispatches to the family specific delta. A nil result means the two
// aggregates have nothing in common.
func Delta[A schema.Aggregate](a, b A) *A {
	var out any
	switch x := any(a).(type) {
	case schema.RatioResult:
		out = DeltaRatio(x, any(b).(schema.RatioResult))
	case schema.DemographicResult:
		d, ok := DeltaDemographic(x, any(b).(schema.DemographicResult))
		if !ok {
			return nil
		}
		out = d
	case schema.MedClassResult:
		out = DeltaMedClass(x, any(b).(schema.MedClassResult))
	}
	res, ok := out.(A)
	if !ok {
		return nil
	}
	return &res
}

// FillDeltas sets each point's Delta against its predecessor. The first point
// of the series keeps a nil Delta.
func FillDeltas[A schema.Aggregate](points []schema.AlignedPoint[A]) []schema.AlignedPoint[A] {
	for i := range points {
		if i == 0 {
			points[i].Delta = nil
			continue
		}
		points[i].Delta = Delta(points[i-1].Aggregate, points[i].Aggregate)
	}
	return points
}

// PercentChange returns 100*delta/prev. It is undefined when prev is zero.
func PercentChange(delta, prev int) (float64, bool) {
	if prev == 0 {
		return 0, false
	}
	return 100 * float64(delta) / float64(prev), true
}
