package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/huangsam/cohort/schema"
)

var tracer = otel.Tracer("cohort.core")

var (
	// reportsTotal counts report builds by family and result
	reportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cohort_reports_total",
		Help: "Total report builds by family and result",
	}, []string{"family", "result"})

	// reportDuration tracks report build latency
	reportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cohort_report_duration_seconds",
		Help:    "Report build duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"family"})

	// suppressedCells counts cohort sums floored by the privacy filter
	suppressedCells = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cohort_suppressed_cells_total",
		Help: "Cohort sums suppressed below the privacy threshold",
	}, []string{"cohort"})

	// skippedPeers counts anonymous peer series dropped for misalignment
	skippedPeers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cohort_skipped_peers_total",
		Help: "Anonymous peer series skipped because they did not align",
	})

	// classLookups counts drug classification lookups by result
	classLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cohort_class_lookups_total",
		Help: "Drug classification lookups by result",
	}, []string{"result"})
)

// startBuild opens the span and returns the func that records its outcome.
func startBuild(ctx context.Context, family schema.Family, req ReportRequest) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "core.BuildReport",
		trace.WithAttributes(
			attribute.String("family", string(family)),
			attribute.String("run_id", req.RunID),
			attribute.String("query", req.Title),
			attribute.Int("executions", len(req.Executions)),
		),
	)
	return ctx, func(err error) {
		defer span.End()
		reportDuration.WithLabelValues(string(family)).Observe(time.Since(start).Seconds())
		if err != nil {
			reportsTotal.WithLabelValues(string(family), "error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "report build failed")
			return
		}
		reportsTotal.WithLabelValues(string(family), "success").Inc()
		span.SetStatus(codes.Ok, "")
	}
}

// countSuppressed records sides of a raw sum the privacy filter zeroed.
func countSuppressed(cohort schema.Cohort, raw, filtered schema.RatioResult) {
	if raw.Numerator != filtered.Numerator {
		suppressedCells.WithLabelValues(string(cohort)).Inc()
	}
	if raw.Denominator != filtered.Denominator {
		suppressedCells.WithLabelValues(string(cohort)).Inc()
	}
}
