package algo

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPrivacyFilter tests the small-cell suppression threshold.
func TestPrivacyFilter(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 0},
		{1, 0},
		{4, 0},
		{5, 5},
		{6, 6},
		{100, 100},
		{-3, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PrivacyFilter(tt.in), "input %d", tt.in)
	}
}

// TestPrivacyFilterValue tests suppression of loosely typed counts.
func TestPrivacyFilterValue(t *testing.T) {
	valid := []struct {
		name string
		in   any
		want int
	}{
		{"int", 7, 7},
		{"int64 below", int64(3), 0},
		{"int32", int32(5), 5},
		{"integral float", 12.0, 12},
		{"small float", 4.0, 0},
		{"json number", json.Number("9"), 9},
	}
	for _, tt := range valid {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrivacyFilterValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	invalid := []struct {
		name string
		in   any
	}{
		{"string", "5"},
		{"nil", nil},
		{"fraction", 5.5},
		{"nan", math.NaN()},
		{"infinity", math.Inf(1)},
		{"json fraction", json.Number("1.5")},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PrivacyFilterValue(tt.in)
			assert.ErrorIs(t, err, contract.ErrInvalidPrivacyInput)
		})
	}
}

// TestCountValue tests conversion of loosely typed counts without suppression.
func TestCountValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"small int", 3, 3},
		{"integral float", 4.0, 4},
		{"json integer", json.Number("2"), 2},
		{"json integral float", json.Number("10.0"), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CountValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, in := range []any{"3", json.Number("2.5"), 1e12, json.Number("1e40"), true} {
		_, err := CountValue(in)
		assert.ErrorIs(t, err, contract.ErrInvalidPrivacyInput, "%v", in)
	}
}

// TestPseudoID tests that pseudo ids are stable, prefixed and opaque.
func TestPseudoID(t *testing.T) {
	id := PseudoID("cpsid2")
	assert.True(t, strings.HasPrefix(id, schema.PseudoIDPrefix))
	assert.Len(t, id, len(schema.PseudoIDPrefix)+56)
	assert.NotContains(t, id, "cpsid2")
	assert.Equal(t, id, PseudoID("cpsid2"))
	assert.NotEqual(t, id, PseudoID("cpsid3"))
}

// TestAnonymize tests that peers are keyed by pseudo id with raw values.
func TestAnonymize(t *testing.T) {
	pairs := []schema.RatioPair{
		{SubjectID: "cpsid", Numerator: 8, Denominator: 10},
		{SubjectID: "cpsid2", Numerator: 16, Denominator: 20},
		{SubjectID: "cpsid3", Numerator: 3, Denominator: 4},
		{SubjectID: "cpsid5", Numerator: 0, Denominator: 12},
		{SubjectID: "cpsid6", Numerator: 2, Denominator: 0},
	}

	peers, order := Anonymize(pairs, "cpsid")
	require.Len(t, peers, 2)
	assert.Equal(t, []string{PseudoID("cpsid2"), PseudoID("cpsid3")}, order)
	assert.Equal(t, schema.RatioResult{Numerator: 16, Denominator: 20}, peers[PseudoID("cpsid2")])
	// Per-peer values are not suppressed.
	assert.Equal(t, schema.RatioResult{Numerator: 3, Denominator: 4}, peers[PseudoID("cpsid3")])
	assert.NotContains(t, peers, PseudoID("cpsid"))

	empty, order := Anonymize(nil, "cpsid")
	assert.Empty(t, empty)
	assert.Empty(t, order)
}
