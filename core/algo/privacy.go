// Package algo has the reduction, suppression, anonymization and alignment algorithms
// the cohort reports are built from. Nothing here performs I/O.
package algo

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// PrivacyFilter suppresses a disclosed count below the small-cell threshold.
// It must be applied to cohort-level sums, never to single contributions.
func PrivacyFilter(x int) int {
	if x < schema.PrivacyThreshold {
		return 0
	}
	return x
}

// PrivacyFilterValue applies PrivacyFilter to a loosely typed value, such as a count
// decoded from JSON. Non-numeric or non-integral input is a caller error and yields
// an error wrapping contract.ErrInvalidPrivacyInput.
func PrivacyFilterValue(v any) (int, error) {
	n, err := CountValue(v)
	if err != nil {
		return 0, err
	}
	return PrivacyFilter(n), nil
}

// CountValue converts a loosely typed count to an int without suppressing it.
// Integral floats such as 8.0 are accepted.
func CountValue(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return floatCount(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", contract.ErrInvalidPrivacyInput, n.String())
		}
		return floatCount(f)
	default:
		return 0, fmt.Errorf("%w: %T", contract.ErrInvalidPrivacyInput, v)
	}
}

func floatCount(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %v", contract.ErrInvalidPrivacyInput, f)
	}
	return int(f), nil
}

// PseudoID maps a clinician id to its opaque peer identifier.
// The hash is unsalted so the same id yields the same pseudo id in every report.
func PseudoID(subjectID string) string {
	sum := sha256.Sum224([]byte(subjectID))
	return schema.PseudoIDPrefix + hex.EncodeToString(sum[:])
}

// Anonymize keys the requester's group peers by pseudo id. The requester and pairs
// with a zero side are skipped. The order slice lists pseudo ids in encounter order.
func Anonymize(pairs []schema.RatioPair, requesterID string) (map[string]schema.RatioResult, []string) {
	out := make(map[string]schema.RatioResult)
	var order []string
	for _, p := range pairs {
		if p.SubjectID == requesterID || p.Numerator == 0 || p.Denominator == 0 {
			continue
		}
		id := PseudoID(p.SubjectID)
		if _, seen := out[id]; !seen {
			order = append(order, id)
		}
		out[id] = schema.RatioResult{Numerator: p.Numerator, Denominator: p.Denominator}
	}
	return out, order
}
