package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

const (
	noDataLabel  = "NO DATA"
	divZeroLabel = "DIV 0 ERR"
)

var summaryHeader = []string{
	"Query Identifier", "Metric Title", "Description", "Query Executed",
	"% Patients", "Numerator", "Denominator", "Target", "Reference",
}

func orNA(s string) string {
	if s == "" {
		return schema.NotAvailable
	}
	return s
}

// summaryRecord renders one summary row. Rows without a result stop after the
// description; a zero denominator replaces the percentage with an error marker.
func summaryRecord(f formatters, row schema.SummaryRow) []string {
	var meta schema.QueryMetadata
	if row.Metadata != nil {
		meta = *row.Metadata
	}
	out := []string{row.Query, orNA(meta.Title), orNA(meta.Description)}
	if row.Result == nil {
		return append(out, noDataLabel)
	}

	num, den := row.Result.Numerator, row.Result.Denominator
	pct := divZeroLabel
	if den != 0 {
		pct = fmt.Sprintf("%.2f", float64(num)/float64(den)*100)
	}
	return append(out,
		f.date(row.Time),
		pct,
		fmt.Sprintf("%.2f", float64(num)),
		fmt.Sprintf("%.2f", float64(den)),
		orNA(meta.Target),
		orNA(meta.Reference),
	)
}

// RenderSummaryCSV writes a population summary as CSV. The first record holds the
// summary name. Rows of the CSV are ragged for queries without data.
func RenderSummaryCSV(w io.Writer, summary *schema.Summary, cfg *contract.Config) error {
	f := newFormatters(cfg)
	return writeCSV(w, func(cw *csv.Writer) error {
		if summary == nil {
			return cw.Write(summaryHeader)
		}
		if err := cw.Write([]string{summary.Name}); err != nil {
			return err
		}
		if err := cw.Write(summaryHeader); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		for _, row := range summary.Rows {
			if err := cw.Write(summaryRecord(f, row)); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeSummaryTable(w io.Writer, summary *schema.Summary, cfg *contract.Config) error {
	f := newFormatters(cfg)
	name := summary.Name
	if cfg.UseColors {
		name = contract.HeaderColor.Sprint(name)
	}
	if _, err := fmt.Fprintln(w, name); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header(summaryHeader)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	labelWidth := getMaxLabelWidth(cfg, len(summaryHeader)-1)

	data := make([][]string, 0, len(summary.Rows))
	for _, row := range summary.Rows {
		rec := summaryRecord(f, row)
		// Pad rows without data to the table width
		for len(rec) < len(summaryHeader) {
			rec = append(rec, "")
		}
		rec[2] = contract.TruncateLabel(rec[2], labelWidth)
		if cfg.UseColors && row.Result == nil {
			rec[3] = contract.MutedColor.Sprint(rec[3])
		}
		data = append(data, rec)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
