package contract

import (
	"errors"
	"net/http"
)

// Error taxonomy of the reporting engine.
var (
	// ErrAmbiguousGroupMembership means an id is listed in two groups of one initiative.
	ErrAmbiguousGroupMembership = errors.New("ambiguous group membership")

	// ErrClassNotFound means the classification service does not know a drug code.
	ErrClassNotFound = errors.New("drug class not found")

	// ErrUnsupportedCodeSystem means a drug code uses a code system without a lookup route.
	ErrUnsupportedCodeSystem = errors.New("unsupported code system")

	// ErrInsufficientTemporalAlignment means cohort chains differ in start time or length.
	ErrInsufficientTemporalAlignment = errors.New("insufficient temporal alignment")

	// ErrNoData means a cohort had nothing to report.
	ErrNoData = errors.New("no data")

	// ErrUnknownQuery means no executions exist for a query title.
	ErrUnknownQuery = errors.New("unknown query")

	// ErrInvalidPrivacyInput means a non-numeric value reached the privacy filter.
	ErrInvalidPrivacyInput = errors.New("invalid privacy filter input")
)

// StatusCode maps an engine error to the status a request boundary should answer with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInsufficientTemporalAlignment), errors.Is(err, ErrNoData):
		return http.StatusNoContent
	case errors.Is(err, ErrUnknownQuery):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
