package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/mbedjs/logger"
)

// InitMeter installs an OTLP/HTTP meter provider as the global provider.
func InitMeter(ctx context.Context, cfg Config, service, version string) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(service, version)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Debug("meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns the mbedjs meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// TaskMetrics holds the instruments recorded for every executed task.
type TaskMetrics struct {
	taskTotal    metric.Int64Counter
	taskDuration metric.Float64Histogram
	taskActive   metric.Int64UpDownCounter
	errorTotal   metric.Int64Counter
}

// NewTaskMetrics creates task instruments on meter.
func NewTaskMetrics(meter metric.Meter) (*TaskMetrics, error) {
	taskTotal, err := meter.Int64Counter("task.total",
		metric.WithDescription("Tasks finished, by task and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating task.total counter: %w", err)
	}

	taskDuration, err := meter.Float64Histogram("task.duration",
		metric.WithDescription("Task action duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating task.duration histogram: %w", err)
	}

	taskActive, err := meter.Int64UpDownCounter("task.active",
		metric.WithDescription("Tasks currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating task.active counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("task.errors",
		metric.WithDescription("Task failures by task and error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating task.errors counter: %w", err)
	}

	return &TaskMetrics{
		taskTotal:    taskTotal,
		taskDuration: taskDuration,
		taskActive:   taskActive,
		errorTotal:   errorTotal,
	}, nil
}

// TaskStarted increments the running task gauge.
func (m *TaskMetrics) TaskStarted(ctx context.Context, task string) {
	m.taskActive.Add(ctx, 1, metric.WithAttributes(attribute.String("task", task)))
}

// TaskFinished records a completed task.
func (m *TaskMetrics) TaskFinished(ctx context.Context, task, status string, d time.Duration) {
	m.taskActive.Add(ctx, -1, metric.WithAttributes(attribute.String("task", task)))
	m.taskTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("task", task),
		attribute.String("status", status),
	))
	m.taskDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("task", task),
	))
}

// RecordError counts a task failure under its error code.
func (m *TaskMetrics) RecordError(ctx context.Context, task, code string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("task", task),
		attribute.String("code", code),
	))
}
