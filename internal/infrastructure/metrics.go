package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments recorded by the repository, exporter,
// batch runner and HTTP layer. A nil *Metrics is valid and records nothing.
type Metrics struct {
	TableLoads          metric.Int64Counter
	CacheHits           metric.Int64Counter
	ExportFiles         metric.Int64Counter
	StepDuration        metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	tableLoads, err := meter.Int64Counter(
		"milex_table_loads_total",
		metric.WithDescription("Spreadsheet tables read from disk"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"milex_table_cache_hits_total",
		metric.WithDescription("Table lookups served from the repository cache"),
	)
	if err != nil {
		return nil, err
	}

	exportFiles, err := meter.Int64Counter(
		"milex_export_files_total",
		metric.WithDescription("Source spreadsheets processed by the batch exporter"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"milex_step_duration_seconds",
		metric.WithDescription("Batch step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	httpRequests, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		TableLoads:          tableLoads,
		CacheHits:           cacheHits,
		ExportFiles:         exportFiles,
		StepDuration:        stepDuration,
		HTTPRequestsTotal:   httpRequests,
		HTTPRequestDuration: httpDuration,
	}, nil
}

// RecordTableLoad counts a table read from source. key is a region or
// "merged"; source names the strategy or file that produced it.
func (m *Metrics) RecordTableLoad(ctx context.Context, key, source string) {
	if m == nil {
		return
	}
	m.TableLoads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("table", key),
		attribute.String("source", source),
	))
}

// RecordCacheHit counts a lookup answered from the cache
func (m *Metrics) RecordCacheHit(ctx context.Context, key string) {
	if m == nil {
		return
	}
	m.CacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("table", key)))
}

// RecordExportFile counts one exported source file by outcome
func (m *Metrics) RecordExportFile(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.ExportFiles.Add(ctx, 1, metric.WithAttributes(statusAttr(success)))
}

// RecordStep records the duration and outcome of a batch step
func (m *Metrics) RecordStep(ctx context.Context, step string, d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.StepDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("step", step),
		statusAttr(success),
	))
}

// RecordHTTPRequest records one served request
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, d.Seconds(), attrs)
}

func statusAttr(success bool) attribute.KeyValue {
	if success {
		return attribute.String("status", "success")
	}
	return attribute.String("status", "failure")
}
