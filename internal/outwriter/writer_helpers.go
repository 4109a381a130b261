package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/cohort/core/algo"
	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSV runs writeRows against a CSV writer and flushes it.
func writeCSV(w io.Writer, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	if err := writeRows(csvWriter); err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// formatters renders the numbers of a report with a fixed precision.
type formatters struct {
	precision int
	loc       *time.Location
}

func newFormatters(cfg *contract.Config) formatters {
	return formatters{precision: cfg.Precision, loc: cfg.Location}
}

// date renders a timestamp as a report column date.
func (f formatters) date(ts int64) string {
	return contract.FormatDate(ts, f.loc)
}

// percent renders num/den*100, or N/A for a zero denominator.
func (f formatters) percent(num, den int) string {
	if den == 0 {
		return schema.NotAvailable
	}
	return fmt.Sprintf("%.*f", f.precision, float64(num)/float64(den)*100)
}

// change renders the change of a point and its percent change against prev.
// The first point of a chain, or a zero prev, renders N/A.
func (f formatters) change(delta *int, prev int) (string, string) {
	if delta == nil {
		return schema.NotAvailable, schema.NotAvailable
	}
	pct, ok := algo.PercentChange(*delta, prev)
	if !ok {
		return fmt.Sprint(*delta), schema.NotAvailable
	}
	return fmt.Sprint(*delta), fmt.Sprintf("%.*f %%", f.precision, pct)
}
