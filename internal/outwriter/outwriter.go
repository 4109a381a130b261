// Package outwriter renders cohort reports and summaries as text tables, CSV, JSON or Parquet.
package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/internal/parquet"
	"github.com/huangsam/cohort/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// renderers holds the CSV and table renderers of one report type.
type renderers[T any] struct {
	name  string
	csv   func(io.Writer, T, *contract.Config) error
	table func(io.Writer, T, *contract.Config) error
}

// writeOutput dispatches a value to the renderer of the configured output mode.
// Parquet output is handled by the caller because it needs a file path.
func writeOutput[T any](value T, r renderers[T], cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, value)
		}, fmt.Sprintf("Wrote JSON %s", r.name))
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return r.csv(w, value, cfg)
		}, fmt.Sprintf("Wrote CSV %s", r.name))
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return r.table(w, value, cfg)
		}, fmt.Sprintf("Wrote %s", r.name))
	}
}

// writeReportParquet flattens an aligned report into a Parquet file.
func writeReportParquet[A schema.Aggregate](report *schema.Report[A], cfg *contract.Config) error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	rows := parquet.FlattenReport(report)
	if err := parquet.WriteCohortPointsParquet(rows, cfg.OutputFile); err != nil {
		return err
	}
	fmt.Printf("💾 Wrote %d report points to %s\n", len(rows), cfg.OutputFile)
	return nil
}

func writeReport[A schema.Aggregate](report *schema.Report[A], r renderers[*schema.Report[A]], cfg *contract.Config) error {
	if report == nil {
		return contract.ErrNoData
	}
	if cfg.Output == schema.ParquetOut {
		return writeReportParquet(report, cfg)
	}
	return writeOutput(report, r, cfg)
}

// WriteRatioReport prints a ratio report using the configured output format.
func (ow *OutWriter) WriteRatioReport(report *schema.Report[schema.RatioResult], cfg *contract.Config) error {
	return writeReport(report, renderers[*schema.Report[schema.RatioResult]]{
		name: "ratio report", csv: RenderRatioCSV, table: writeRatioTable,
	}, cfg)
}

// WriteDemographicReport prints a demographic report using the configured output format.
func (ow *OutWriter) WriteDemographicReport(report *schema.Report[schema.DemographicResult], cfg *contract.Config) error {
	return writeReport(report, renderers[*schema.Report[schema.DemographicResult]]{
		name: "demographic report", csv: RenderDemographicCSV, table: writeDemographicTable,
	}, cfg)
}

// WriteMedClassReport prints a med-class report using the configured output format.
func (ow *OutWriter) WriteMedClassReport(report *schema.Report[schema.MedClassResult], cfg *contract.Config) error {
	return writeReport(report, renderers[*schema.Report[schema.MedClassResult]]{
		name: "med-class report", csv: RenderMedClassCSV, table: writeMedClassTable,
	}, cfg)
}

// WriteSnapshotView prints a med-class snapshot using the configured output format.
func (ow *OutWriter) WriteSnapshotView(view *schema.MedClassView, cfg *contract.Config) error {
	if view == nil {
		return contract.ErrNoData
	}
	if cfg.Output == schema.ParquetOut {
		return fmt.Errorf("parquet output is not supported for snapshots")
	}
	return writeOutput(view, renderers[*schema.MedClassView]{
		name: "med-class snapshot", csv: RenderSnapshotCSV, table: writeSnapshotTable,
	}, cfg)
}

// WriteSummary prints a population summary using the configured output format.
func (ow *OutWriter) WriteSummary(summary *schema.Summary, cfg *contract.Config) error {
	if summary == nil {
		return contract.ErrNoData
	}
	if cfg.Output == schema.ParquetOut {
		return fmt.Errorf("parquet output is not supported for summaries")
	}
	return writeOutput(summary, renderers[*schema.Summary]{
		name: "summary", csv: RenderSummaryCSV, table: writeSummaryTable,
	}, cfg)
}
