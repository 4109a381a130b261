package agg

import (
	"regexp"
	"strconv"

	"github.com/huangsam/cohort/schema"
)

// Key patterns, one per query family. Each applies to the whole key.
var (
	ratioKeyRe       = regexp.MustCompile(`^(numerator|denominator)_(.+)$`)
	demographicKeyRe = regexp.MustCompile(`^([a-zA-Z]+)_([0-9]{1,2})-?([0-9]{1,2}|\+)_(.+)$`)
	medClassKeyRe    = regexp.MustCompile(`^([a-zA-Z0-9]+)_(.+)_(.+)$`)
)

// Decoder turns one counter key and its count into a typed record.
// It returns false when the key does not belong to the family.
type Decoder[R schema.Record] func(key string, count int) (R, bool)

// DecodeRatio decodes keys like "numerator_<clinician>".
func DecodeRatio(key string, count int) (schema.RatioRecord, bool) {
	m := ratioKeyRe.FindStringSubmatch(key)
	if len(m) != 3 || count < 0 {
		return schema.RatioRecord{}, false
	}
	return schema.RatioRecord{
		SubjectID: m[2],
		Field:     schema.Field(m[1]),
		Count:     count,
	}, true
}

// DecodeDemographic decodes keys like "female_40-49_<clinician>" or "male_90+_<clinician>".
// Genders outside the supported set are rejected even when the key is well formed.
func DecodeDemographic(key string, count int) (schema.DemographicRecord, bool) {
	m := demographicKeyRe.FindStringSubmatch(key)
	if len(m) != 5 || count < 0 {
		return schema.DemographicRecord{}, false
	}
	gender := schema.Gender(m[1])
	if !schema.IsSupportedGender(gender) {
		return schema.DemographicRecord{}, false
	}
	lower, err := strconv.Atoi(m[2])
	if err != nil {
		return schema.DemographicRecord{}, false
	}
	var upper *int
	if m[3] != "+" {
		u, err := strconv.Atoi(m[3])
		if err != nil {
			return schema.DemographicRecord{}, false
		}
		upper = &u
	}
	return schema.DemographicRecord{
		SubjectID: m[4],
		Gender:    gender,
		LowerAge:  lower,
		UpperAge:  upper,
		Count:     count,
	}, true
}

// DecodeMedClass decodes keys like "<drugCode>_<codeSystem>_<clinician>".
// The class is left empty for the classification step to fill in.
func DecodeMedClass(key string, count int) (schema.MedClassRecord, bool) {
	m := medClassKeyRe.FindStringSubmatch(key)
	if len(m) != 4 || count < 0 {
		return schema.MedClassRecord{}, false
	}
	return schema.MedClassRecord{
		SubjectID:  m[3],
		DrugCode:   m[1],
		CodeSystem: m[2],
		Count:      count,
	}, true
}

// DecodeAll applies a decoder to every counter, dropping keys that do not match.
// Keys are visited in sorted order so results do not depend on map iteration.
func DecodeAll[R schema.Record](counters map[string]int, decode Decoder[R]) []R {
	keys := sortedKeys(counters)
	out := make([]R, 0, len(keys))
	for _, k := range keys {
		if rec, ok := decode(k, counters[k]); ok {
			out = append(out, rec)
		}
	}
	return out
}
