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

// entity is one labelled row of a rendered report.
type entity[A schema.Aggregate] struct {
	label  string
	cohort schema.Cohort
	points []schema.AlignedPoint[A]
}

// reportEntities lists the rows of a report: the clinician, the group, every
// anonymous peer in encounter order, then the network. Empty series are omitted.
func reportEntities[A schema.Aggregate](report *schema.Report[A]) []entity[A] {
	if report == nil {
		return nil
	}
	var out []entity[A]
	add := func(label string, cohort schema.Cohort, points []schema.AlignedPoint[A]) {
		if len(points) > 0 {
			out = append(out, entity[A]{label: label, cohort: cohort, points: points})
		}
	}

	add(schema.SelfRowLabel, schema.SelfCohort, report.Clinician)
	add(report.DisplayNames[schema.GroupCohort], schema.GroupCohort, report.Group)
	for i, id := range report.PeerOrder {
		add(schema.PeerRowLabelPrefix+strconv.Itoa(i), "", report.Anonymous[id])
	}
	add(schema.NetworkRowLabel, schema.NetworkCohort, report.Network)
	return out
}

// ratioCells renders Date, Value, Change and %Change of one point.
func ratioCells(f formatters, points []schema.AlignedPoint[schema.RatioResult], i int) []string {
	p := points[i]
	var delta *int
	prev := 0
	if i > 0 && p.Delta != nil {
		delta = &p.Delta.Numerator
		prev = points[i-1].Aggregate.Numerator
	}
	change, pct := f.change(delta, prev)
	return []string{f.date(p.Time), strconv.Itoa(p.Aggregate.Numerator), change, pct}
}

// RenderRatioCSV writes a ratio report as CSV: one row per entity and four
// columns (Date, Value, Change, %Change) per aligned execution.
// A nil report renders the header only.
func RenderRatioCSV(w io.Writer, report *schema.Report[schema.RatioResult], cfg *contract.Config) error {
	f := newFormatters(cfg)
	return writeCSV(w, func(cw *csv.Writer) error {
		header := []string{"Entity"}
		for range report.Len() {
			header = append(header, "Date", "Value", "Change", "%Change")
		}
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}

		for _, e := range reportEntities(report) {
			row := []string{e.label}
			for i := range e.points {
				row = append(row, ratioCells(f, e.points, i)...)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeRatioTable prints one table row per entity and aligned execution.
func writeRatioTable(w io.Writer, report *schema.Report[schema.RatioResult], cfg *contract.Config) error {
	f := newFormatters(cfg)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Entity", "Date", "Numerator", "Denominator", "Rate %", "Change", "%Change"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := getMaxLabelWidth(cfg, 6)
	var data [][]string
	for _, e := range reportEntities(report) {
		label := contract.TruncateLabel(e.label, labelWidth)
		if cfg.UseColors && e.cohort == schema.SelfCohort {
			label = contract.SelfColor.Sprint(label)
		}
		for i, p := range e.points {
			cells := ratioCells(f, e.points, i)
			change := cells[2]
			if cfg.UseColors && p.Delta != nil && i > 0 {
				change = contract.GetDeltaLabel(p.Delta.Numerator, change)
			}
			data = append(data, []string{
				label,
				cells[0],
				strconv.Itoa(p.Aggregate.Numerator),
				strconv.Itoa(p.Aggregate.Denominator),
				f.percent(p.Aggregate.Numerator, p.Aggregate.Denominator),
				change,
				cells[3],
			})
			label = ""
		}
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%s: %d aligned executions, %d group members\n", report.Title, report.Len(), len(report.PeerOrder))
	return err
}
