package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// Section titles of a demographic report.
const (
	demographicSelfSection    = " YOU(user)"
	demographicGroupSection   = "Clinic"
	demographicNetworkSection = "Network"
	totalGendersLabel         = "Total all genders"
	grandTotalLabel           = "Grand Total"
	changeSectionSuffix       = " (change)"
)

type demographicSection struct {
	title  string
	points []schema.AlignedPoint[schema.DemographicResult]
}

func demographicSections(report *schema.Report[schema.DemographicResult]) []demographicSection {
	if report == nil {
		return nil
	}
	return []demographicSection{
		{demographicSelfSection, report.Clinician},
		{demographicGroupSection, report.Group},
		{demographicNetworkSection, report.Network},
	}
}

// demographicRows renders the gender by age rows of one cohort section.
// Each age range lists every gender, then the total of the range, and the
// section closes with the grand total. With changes set the cells hold the
// delta against the previous aligned execution, N/A for the first one.
func demographicRows(points []schema.AlignedPoint[schema.DemographicResult], changes bool) [][]string {
	value := func(p schema.AlignedPoint[schema.DemographicResult], g schema.Gender, label string) (int, bool) {
		if !changes {
			return p.Aggregate.Get(g, label), true
		}
		if p.Delta == nil {
			return 0, false
		}
		return p.Delta.Get(g, label), true
	}
	cell := func(n int, ok bool) string {
		if !ok {
			return schema.NotAvailable
		}
		return strconv.Itoa(n)
	}

	var rows [][]string
	grand := make([]int, len(points))
	known := make([]bool, len(points))

	for _, r := range schema.SupportedAgeRanges {
		label := r.Label()
		totals := make([]int, len(points))
		for gi, g := range schema.SupportedGenders {
			row := []string{"", string(g)}
			if gi == 0 {
				row[0] = label
			}
			for i, p := range points {
				n, ok := value(p, g, label)
				known[i] = ok
				totals[i] += n
				row = append(row, cell(n, ok))
			}
			rows = append(rows, row)
		}
		row := []string{"", totalGendersLabel}
		for i, n := range totals {
			grand[i] += n
			row = append(row, cell(n, known[i]))
		}
		rows = append(rows, row)
	}

	total := []string{"", grandTotalLabel}
	for i, n := range grand {
		total = append(total, cell(n, known[i]))
	}
	return append(rows, total)
}

func demographicHeader(f formatters, points []schema.AlignedPoint[schema.DemographicResult]) []string {
	header := []string{"age category", "gender"}
	for _, p := range points {
		header = append(header, f.date(p.Time))
	}
	return header
}

// RenderDemographicCSV writes a demographic report as CSV with one count section
// per cohort followed by one change section per cohort, separated by blank lines.
// Cohorts without data are skipped.
func RenderDemographicCSV(w io.Writer, report *schema.Report[schema.DemographicResult], cfg *contract.Config) error {
	f := newFormatters(cfg)
	return writeCSV(w, func(cw *csv.Writer) error {
		first := true
		for _, changes := range []bool{false, true} {
			for _, s := range demographicSections(report) {
				if len(s.points) == 0 {
					continue
				}
				if !first {
					if err := cw.Write([]string{""}); err != nil {
						return err
					}
				}
				first = false

				title := s.title
				if changes {
					title += changeSectionSuffix
				}
				if err := cw.Write([]string{title}); err != nil {
					return err
				}
				if err := cw.Write(demographicHeader(f, s.points)); err != nil {
					return fmt.Errorf("failed to write CSV header: %w", err)
				}
				if err := cw.WriteAll(demographicRows(s.points, changes)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeDemographicTable prints one table per cohort section.
func writeDemographicTable(w io.Writer, report *schema.Report[schema.DemographicResult], cfg *contract.Config) error {
	f := newFormatters(cfg)
	for _, s := range demographicSections(report) {
		if len(s.points) == 0 {
			continue
		}
		title := s.title
		if cfg.UseColors {
			title = contract.HeaderColor.Sprint(title)
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", title); err != nil {
			return err
		}

		table := tablewriter.NewWriter(w)
		table.Header(demographicHeader(f, s.points))
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})

		rows := demographicRows(s.points, false)
		if cfg.UseColors {
			for _, row := range rows {
				if row[1] == totalGendersLabel || row[1] == grandTotalLabel {
					row[1] = contract.MutedColor.Sprint(row[1])
				}
			}
		}
		if err := table.Bulk(rows); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	return nil
}
