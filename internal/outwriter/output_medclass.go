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

const (
	medClassColumn = "Medication Class"
	totalLabel     = "Total"
)

type medClassSection struct {
	title  string
	points []schema.AlignedPoint[schema.MedClassResult]
}

func medClassSections(report *schema.Report[schema.MedClassResult]) []medClassSection {
	if report == nil {
		return nil
	}
	return []medClassSection{
		{report.DisplayNames[schema.SelfCohort], report.Clinician},
		{report.DisplayNames[schema.GroupCohort], report.Group},
		{report.DisplayNames[schema.NetworkCohort], report.Network},
	}
}

// medClassRows lists every class seen in the section, in first-seen order,
// with its count at each aligned execution, then the per-execution total.
func medClassRows(points []schema.AlignedPoint[schema.MedClassResult]) [][]string {
	var classes []string
	seen := make(map[string]bool)
	counts := make([]map[string]int, len(points))
	for i, p := range points {
		counts[i] = p.Aggregate.Counts()
		for _, c := range p.Aggregate {
			if !seen[c.ClassName] {
				seen[c.ClassName] = true
				classes = append(classes, c.ClassName)
			}
		}
	}

	rows := make([][]string, 0, len(classes)+1)
	totals := make([]int, len(points))
	for _, class := range classes {
		row := []string{class}
		for i := range points {
			n := counts[i][class]
			totals[i] += n
			row = append(row, strconv.Itoa(n))
		}
		rows = append(rows, row)
	}
	total := []string{totalLabel}
	for _, n := range totals {
		total = append(total, strconv.Itoa(n))
	}
	return append(rows, total)
}

func medClassHeader(f formatters, points []schema.AlignedPoint[schema.MedClassResult]) []string {
	header := []string{medClassColumn}
	for _, p := range points {
		header = append(header, f.date(p.Time))
	}
	return header
}

// RenderMedClassCSV writes a med-class report as CSV with one section per cohort.
// A nil report renders the header only.
func RenderMedClassCSV(w io.Writer, report *schema.Report[schema.MedClassResult], cfg *contract.Config) error {
	f := newFormatters(cfg)
	return writeCSV(w, func(cw *csv.Writer) error {
		if report == nil {
			return cw.Write([]string{medClassColumn})
		}
		first := true
		for _, s := range medClassSections(report) {
			if len(s.points) == 0 {
				continue
			}
			if !first {
				if err := cw.Write([]string{""}); err != nil {
					return err
				}
			}
			first = false

			if err := cw.Write([]string{s.title}); err != nil {
				return err
			}
			if err := cw.Write(medClassHeader(f, s.points)); err != nil {
				return fmt.Errorf("failed to write CSV header: %w", err)
			}
			if err := cw.WriteAll(medClassRows(s.points)); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeMedClassTable(w io.Writer, report *schema.Report[schema.MedClassResult], cfg *contract.Config) error {
	f := newFormatters(cfg)
	labelWidth := getMaxLabelWidth(cfg, report.Len())
	for _, s := range medClassSections(report) {
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
		table.Header(medClassHeader(f, s.points))
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		rows := medClassRows(s.points)
		for _, row := range rows {
			row[0] = contract.TruncateLabel(row[0], labelWidth)
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

// snapshotHeader names the count and share columns of every cohort.
func snapshotHeader(view *schema.MedClassView) []string {
	group := view.GroupName
	return []string{
		medClassColumn,
		schema.ClinicianDisplayName + " Count", schema.ClinicianDisplayName + " %",
		group + " Count", group + " %",
		schema.NetworkDisplayName + " Count", schema.NetworkDisplayName + " %",
	}
}

func snapshotRows(f formatters, view *schema.MedClassView) [][]string {
	rows := make([][]string, 0, len(view.Drugs))
	for _, d := range view.Drugs {
		row := []string{d.DrugName}
		for _, share := range d.AggData {
			row = append(row, strconv.Itoa(share.Numerator), f.percent(share.Numerator, share.Denominator))
		}
		rows = append(rows, row)
	}
	return rows
}

// RenderSnapshotCSV writes a med-class snapshot as CSV: one row per drug class
// with the count and share of the clinician, the group and the network.
func RenderSnapshotCSV(w io.Writer, view *schema.MedClassView, cfg *contract.Config) error {
	f := newFormatters(cfg)
	return writeCSV(w, func(cw *csv.Writer) error {
		if view == nil {
			return nil
		}
		if err := cw.Write(snapshotHeader(view)); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		return cw.WriteAll(snapshotRows(f, view))
	})
}

func writeSnapshotTable(w io.Writer, view *schema.MedClassView, cfg *contract.Config) error {
	f := newFormatters(cfg)
	table := tablewriter.NewWriter(w)
	table.Header(snapshotHeader(view))
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	labelWidth := getMaxLabelWidth(cfg, 6)
	rows := snapshotRows(f, view)
	for _, row := range rows {
		row[0] = contract.TruncateLabel(row[0], labelWidth)
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s: top %d classes on %s\n", view.Title, len(view.Drugs), f.date(view.Time))
	return err
}
