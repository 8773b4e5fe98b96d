// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"gradabroad-workers/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records job and submission metrics through the
// OpenTelemetry SDK. The prometheus exporter registers with the default
// registry, so they appear on the same /metrics endpoint.
type Observability struct {
	meterProvider *metric.MeterProvider
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	stepCounter   otelmetric.Int64Counter
	readyCounter  otelmetric.Int64Counter
}

// New never fails; when the exporter cannot be created every Record call
// becomes a no-op.
func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		if log != nil {
			log.Warn("otel prometheus exporter unavailable", map[string]interface{}{"error": err.Error()})
		}
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	o := &Observability{meterProvider: provider}
	o.jobCounter, _ = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	o.jobDuration, _ = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	o.stepCounter, _ = meter.Int64Counter(
		"submission.steps",
		otelmetric.WithDescription("Submission steps by outcome"),
	)
	o.readyCounter, _ = meter.Int64Counter(
		"readiness.computed",
		otelmetric.WithDescription("Readiness computations by ready_to_submit"),
	)
	return o
}

// NewNoop is used in tests and tools.
func NewNoop() *Observability {
	return &Observability{}
}

func (o *Observability) RecordJob(ctx context.Context, taskType, status string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	)
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, attrs)
	}
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordSubmissionStep(ctx context.Context, step, outcome string) {
	if o == nil || o.stepCounter == nil {
		return
	}
	o.stepCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("step", step),
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) RecordReadiness(ctx context.Context, ready bool) {
	if o == nil || o.readyCounter == nil {
		return
	}
	o.readyCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.Bool("ready_to_submit", ready)))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
