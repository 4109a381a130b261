// Package parquet exports stored executions and aligned cohort reports to
// Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/cohort/schema"
)

// ExecutionCounter is one counter of a stored query execution.
// This struct maps to a row of the cohort_executions table, one per counter key.
type ExecutionCounter struct {
	// Title is the query the execution belongs to
	Title string `parquet:"title,snappy"`

	// ExecutionTime is when the query ran (stored as TIMESTAMP)
	ExecutionTime time.Time `parquet:"execution_time,snappy"`

	// CounterKey is the encoded counter key, e.g. numerator_cpsid
	CounterKey string `parquet:"counter_key,snappy,dict"`

	// Count is the counter value
	Count int32 `parquet:"count,snappy"`

	// Simulated marks executions produced by a simulated run
	Simulated bool `parquet:"simulated,snappy"`
}

// CohortPoint is one metric of one aligned point of a cohort series.
type CohortPoint struct {
	Title string `parquet:"title,snappy,dict"`
	RunID string `parquet:"run_id,snappy,dict"`

	// Family is ratio, demographic or medclass
	Family string `parquet:"family,snappy,dict"`

	// Cohort is clinician, group, network or anonymous
	Cohort string `parquet:"cohort,snappy,dict"`

	// Series is the cohort display name, or the pseudo id for anonymous peers
	Series string `parquet:"series,snappy,dict"`

	ExecutionTime time.Time `parquet:"execution_time,snappy"`

	// Metric names the value: numerator/denominator, gender/age label or drug class
	Metric string `parquet:"metric,snappy,dict"`

	Value int32 `parquet:"value,snappy"`

	// Delta is the change from the previous point (nullable on the first point)
	Delta *int32 `parquet:"delta,optional,snappy"`

	Simulated bool `parquet:"simulated,snappy"`
}

// anonymousCohort labels rows of anonymized peer series.
const anonymousCohort = "anonymous"

// writeParquet writes rows to a Parquet file whose schema is inferred from T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteExecutionsParquet writes execution counters to a Parquet file.
func WriteExecutionsParquet(data []ExecutionCounter, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteCohortPointsParquet writes flattened report points to a Parquet file.
func WriteCohortPointsParquet(data []CohortPoint, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertExecutionRecords converts schema.ExecutionRecord to ExecutionCounter for Parquet export.
func ConvertExecutionRecords(records []schema.ExecutionRecord) []ExecutionCounter {
	result := make([]ExecutionCounter, len(records))
	for i, record := range records {
		result[i] = ExecutionCounter{
			Title:         record.Title,
			ExecutionTime: time.Unix(record.Time, 0).UTC(),
			CounterKey:    record.Key,
			Count:         int32(record.Count),
			Simulated:     record.Simulated,
		}
	}
	return result
}

// FlattenReport turns every series of a report into long-format rows:
// clinician, group and network first, then the anonymous peers in encounter order.
func FlattenReport[A schema.Aggregate](report *schema.Report[A]) []CohortPoint {
	if report == nil {
		return nil
	}

	var out []CohortPoint
	add := func(cohort, series string, points []schema.AlignedPoint[A]) {
		for _, p := range points {
			var delta map[string]int
			if p.Delta != nil {
				delta = metrics(*p.Delta)
			}
			values := metrics(p.Aggregate)
			for _, name := range slices.Sorted(maps.Keys(values)) {
				row := CohortPoint{
					Title:         report.Title,
					RunID:         report.RunID,
					Family:        string(report.Family),
					Cohort:        cohort,
					Series:        series,
					ExecutionTime: time.Unix(p.Time, 0).UTC(),
					Metric:        name,
					Value:         int32(values[name]),
					Simulated:     p.Simulated,
				}
				if d, ok := delta[name]; ok {
					v := int32(d)
					row.Delta = &v
				}
				out = append(out, row)
			}
		}
	}

	add(string(schema.SelfCohort), report.DisplayNames[schema.SelfCohort], report.Clinician)
	add(string(schema.GroupCohort), report.DisplayNames[schema.GroupCohort], report.Group)
	add(string(schema.NetworkCohort), report.DisplayNames[schema.NetworkCohort], report.Network)
	for _, id := range report.PeerOrder {
		add(anonymousCohort, id, report.Anonymous[id])
	}
	return out
}

// metrics names every value carried by an aggregate.
func metrics(aggregate any) map[string]int {
	out := make(map[string]int)
	switch a := aggregate.(type) {
	case schema.RatioResult:
		out[string(schema.NumeratorField)] = a.Numerator
		out[string(schema.DenominatorField)] = a.Denominator
	case schema.DemographicResult:
		for gender, ages := range a {
			for label, count := range ages {
				out[string(gender)+"/"+label] = count
			}
		}
	case schema.MedClassResult:
		for _, c := range a {
			out[c.ClassName] = c.Count
		}
	}
	return out
}
