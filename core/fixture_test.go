package core

import (
	"github.com/huangsam/cohort/internal/groups"
	"github.com/huangsam/cohort/schema"
)

// Seven executions thirty days apart, starting 2015-01-01 UTC.
const (
	fixtureStart    int64 = 1420070400
	fixtureInterval int64 = 2_592_000
	fixtureRuns           = 7
)

func fixtureTime(i int) int64 {
	return fixtureStart + int64(i)*fixtureInterval
}

// fixtureDirectory has the single group test1 of the requester cpsid.
func fixtureDirectory() *groups.Directory {
	return groups.New([]groups.Group{
		{Name: "test1", Initiative: "pdc", Members: []string{"cpsid", "cpsid2", "cpsid3", "cpsid4"}},
		{Name: "test2", Initiative: "pdc", Members: []string{"other"}},
	}, "pdc")
}

// ratioFixture returns the executions of a ratio query. cpsid grows by one on
// both sides per run; cpsid4 only reports from the third run on; one extra
// execution mid-month never aligns.
func ratioFixture() []schema.ExecutionSnapshot {
	var out []schema.ExecutionSnapshot
	for i := range fixtureRuns {
		counters := map[string]int{
			"numerator_cpsid":     8 + i,
			"denominator_cpsid":   10 + i,
			"numerator_cpsid2":    2,
			"denominator_cpsid2":  4,
			"numerator_cpsid3":    6,
			"denominator_cpsid3":  9,
			"numerator_other":     1,
			"denominator_other":   3,
			"unrelated_key_value": 99,
		}
		if i >= 2 {
			counters["numerator_cpsid4"] = 5
			counters["denominator_cpsid4"] = 5
		}
		out = append(out, schema.ExecutionSnapshot{Time: fixtureTime(i), Counters: counters, Simulated: i == 0})
	}
	out = append(out, schema.ExecutionSnapshot{
		Time:     fixtureStart + 15*86400,
		Counters: map[string]int{"numerator_cpsid": 100, "denominator_cpsid": 100},
	})
	return out
}

// demographicFixture returns three aligned demographic executions.
func demographicFixture() []schema.ExecutionSnapshot {
	var out []schema.ExecutionSnapshot
	for i := range 3 {
		out = append(out, schema.ExecutionSnapshot{Time: fixtureTime(i), Counters: map[string]int{
			"male_0-9_cpsid":        5 + i,
			"female_40-49_cpsid":    7,
			"female_90+_cpsid2":     3,
			"undefined_20-29_other": 11,
			"alien_20-29_cpsid":     4,
		}})
	}
	return out
}

// medClassFixture returns two aligned med-class executions over three drug codes.
func medClassFixture() []schema.ExecutionSnapshot {
	var out []schema.ExecutionSnapshot
	for i := range 2 {
		out = append(out, schema.ExecutionSnapshot{Time: fixtureTime(i), Counters: map[string]int{
			"02242963_hc-din_cpsid":  9 + i,
			"C10AA05_whoatc_cpsid":   4,
			"00000000_hc-din_cpsid":  20,
			"02242963_hc-din_cpsid2": 6,
			"N02AA01_whoatc_cpsid3":  8,
			"N02AA01_whoatc_other":   30 + i,
		}})
	}
	return out
}
