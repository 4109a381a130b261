package outwriter

import (
	"os"

	"golang.org/x/term"

	"github.com/huangsam/cohort/internal/contract"
)

// getMaxLabelWidth calculates the maximum width of the entity column in table output
// based on terminal width and the number of value columns.
func getMaxLabelWidth(cfg *contract.Config, valueColumns int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Each value column takes about 12 characters with borders and padding
	available := termWidth - valueColumns*12 - 4
	if available < 12 {
		return 12
	}
	if available > 40 {
		return 40
	}
	return available
}
