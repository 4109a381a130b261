package agg

import (
	"testing"

	"github.com/huangsam/cohort/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRatio(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		count   int
		want    schema.RatioRecord
		matched bool
	}{
		{"numerator", "numerator_cpsid", 8, schema.RatioRecord{SubjectID: "cpsid", Field: schema.NumeratorField, Count: 8}, true},
		{"denominator", "denominator_cpsid2", 20, schema.RatioRecord{SubjectID: "cpsid2", Field: schema.DenominatorField, Count: 20}, true},
		{"subject with underscores", "numerator_dr_smith_1", 3, schema.RatioRecord{SubjectID: "dr_smith_1", Field: schema.NumeratorField, Count: 3}, true},
		{"unknown field", "total_cpsid", 8, schema.RatioRecord{}, false},
		{"missing subject", "numerator_", 8, schema.RatioRecord{}, false},
		{"no separator", "numerator", 8, schema.RatioRecord{}, false},
		{"negative count", "numerator_cpsid", -1, schema.RatioRecord{}, false},
		{"prefix only match", "xnumerator_cpsid", 1, schema.RatioRecord{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeRatio(tt.key, tt.count)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeDemographic(t *testing.T) {
	t.Run("bounded bucket", func(t *testing.T) {
		rec, ok := DecodeDemographic("female_40-49_cpsid", 7)
		require.True(t, ok)
		assert.Equal(t, "cpsid", rec.SubjectID)
		assert.Equal(t, schema.Female, rec.Gender)
		assert.Equal(t, 40, rec.LowerAge)
		require.NotNil(t, rec.UpperAge)
		assert.Equal(t, 49, *rec.UpperAge)
		assert.Equal(t, "40-49", rec.AgeLabel())
		assert.Equal(t, 7, rec.Count)
	})

	t.Run("open ended bucket", func(t *testing.T) {
		rec, ok := DecodeDemographic("male_90+_cpsid", 2)
		require.True(t, ok)
		assert.Equal(t, 90, rec.LowerAge)
		assert.Nil(t, rec.UpperAge)
		assert.Equal(t, "90+", rec.AgeLabel())
	})

	t.Run("single digit bucket", func(t *testing.T) {
		rec, ok := DecodeDemographic("undifferentiated_0-9_abc", 1)
		require.True(t, ok)
		assert.Equal(t, schema.Undifferentiated, rec.Gender)
		assert.Equal(t, "0-9", rec.AgeLabel())
	})

	rejected := []struct {
		name string
		key  string
	}{
		{"unsupported gender", "alien_40-49_cpsid"},
		{"capitalised gender", "Female_40-49_cpsid"},
		{"three digit age", "female_100-109_cpsid"},
		{"missing clinician", "female_40-49"},
		{"ratio key", "numerator_cpsid"},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := DecodeDemographic(tt.key, 1)
			assert.False(t, ok)
		})
	}
}

func TestDecodeMedClass(t *testing.T) {
	rec, ok := DecodeMedClass("02242963_hc-din_cpsid", 12)
	require.True(t, ok)
	assert.Equal(t, schema.MedClassRecord{
		SubjectID:  "cpsid",
		DrugCode:   "02242963",
		CodeSystem: "hc-din",
		Count:      12,
	}, rec)

	rec, ok = DecodeMedClass("C10AA05_whoatc_doc1", 3)
	require.True(t, ok)
	assert.Equal(t, "C10AA05", rec.DrugCode)
	assert.Equal(t, "whoatc", rec.CodeSystem)
	assert.Equal(t, "doc1", rec.SubjectID)
	assert.Empty(t, rec.Class)

	_, ok = DecodeMedClass("C10AA05_whoatc", 3)
	assert.False(t, ok)
	_, ok = DecodeMedClass("bad-code_whoatc_doc1", 3)
	assert.False(t, ok)
}

func TestDecodeAll(t *testing.T) {
	counters := map[string]int{
		"numerator_b":   1,
		"denominator_a": 2,
		"garbage":       3,
		"numerator_a":   4,
	}

	records := DecodeAll(counters, DecodeRatio)
	require.Len(t, records, 3)

	// Sorted key order
	assert.Equal(t, "a", records[0].SubjectID)
	assert.Equal(t, schema.DenominatorField, records[0].Field)
	assert.Equal(t, "a", records[1].SubjectID)
	assert.Equal(t, schema.NumeratorField, records[1].Field)
	assert.Equal(t, "b", records[2].SubjectID)

	assert.Empty(t, DecodeAll(map[string]int{}, DecodeRatio))
	assert.Empty(t, DecodeAll(counters, DecodeDemographic))
}
