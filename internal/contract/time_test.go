package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestParseDuration covers standard Go durations and human-readable spans,
// including singular/plural forms and the month/year approximations.
func TestParseDuration(t *testing.T) {
	// 1 Month = 30 Days, 1 Year = 365 Days
	const day = 24 * time.Hour

	tests := []struct {
		name      string
		input     string
		want      time.Duration
		expectErr bool
	}{
		// --- Go durations ---
		{"go hours", "48h", 48 * time.Hour, false},
		{"go seconds", "90s", 90 * time.Second, false},
		{"go negative", "-1h", 0, true},

		// --- Fixed units ---
		{"1 minute", "1 minute", time.Minute, false},
		{"3 hours", "3 hours", 3 * time.Hour, false},
		{"2 days", "2 days", 2 * day, false},
		{"7 days", "7 days", 7 * day, false},
		{"1 week", "1 week", 7 * day, false},

		// --- Approximations ---
		{"1 month approx", "1 month", 30 * day, false},
		{"1 year approx", "1 year", 365 * day, false},

		// --- Case/Spacing ---
		{"mixed case", "30 DaYs", 30 * day, false},
		{"surrounding space", " 1 day ", day, false},

		// --- Invalid ---
		{"missing value", "days", 0, true},
		{"missing unit", "3", 0, true},
		{"invalid unit", "3 decades", 0, true},
		{"zero quantity", "0 days", 0, true},
		{"non-integer quantity", "1.5 days", 0, true},
		{"empty string", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.expectErr {
				assert.Error(t, err, "Expected an error for input: %q", tt.input)
			} else if assert.NoError(t, err, "Did not expect an error for input: %q", tt.input) {
				assert.Equal(t, tt.want, got, "Duration mismatch for input: %q", tt.input)
			}
		})
	}
}

// TestFormatDate checks unpadded dates in the requested location.
func TestFormatDate(t *testing.T) {
	toronto, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Skip("time zone database not available")
	}

	tests := []struct {
		name string
		unix int64
		loc  *time.Location
		want string
	}{
		{"utc", 1420070400, time.UTC, "2015-1-1"},
		{"nil location", 1422662400, nil, "2015-1-31"},
		{"earlier local day", 1420070400, toronto, "2014-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDate(tt.unix, tt.loc))
		})
	}
}

// FuzzParseDuration fuzzes the ParseDuration function.
func FuzzParseDuration(f *testing.F) {
	seeds := []string{
		"30 days",
		"2 days",
		"1 week",
		"48h",
		"10 years",
		"0 years", // edge case
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		d, err := ParseDuration(input)
		if err == nil && d <= 0 {
			t.Errorf("ParseDuration(%q) = %v without error", input, d)
		}
	})
}
