package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/failurous/config"
)

const instrumentationName = "github.com/kart-io/failurous"

// instrumentationVersion is reported on the tracer and meter.
const instrumentationVersion = "1.0.0"

// TelemetryProvider provides observability features
type TelemetryProvider struct {
	config        config.TelemetryConfig
	tracer        trace.Tracer
	meter         metric.Meter
	traceProvider *sdktrace.TracerProvider
	meterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry

	// Metrics
	notificationsSent   metric.Int64Counter
	notificationsFailed metric.Int64Counter
	sendDuration        metric.Float64Histogram
}

// ProviderOption customizes a TelemetryProvider.
type ProviderOption func(*TelemetryProvider)

// WithTracerProvider uses an existing tracer provider instead of exporting
// over OTLP. The provider is not shut down by the TelemetryProvider.
func WithTracerProvider(tp trace.TracerProvider) ProviderOption {
	return func(p *TelemetryProvider) {
		p.tracer = tp.Tracer(instrumentationName,
			trace.WithInstrumentationVersion(instrumentationVersion),
			trace.WithSchemaURL(semconv.SchemaURL),
		)
	}
}

// NewTelemetryProvider creates a new telemetry provider. A nil or disabled
// configuration yields a provider backed by the global no-op tracer and meter.
func NewTelemetryProvider(cfg *config.TelemetryConfig, opts ...ProviderOption) (*TelemetryProvider, error) {
	if cfg == nil {
		cfg = &config.TelemetryConfig{
			ServiceName: config.DefaultServiceName,
			SampleRate:  config.DefaultSampleRate,
		}
	}

	tp := &TelemetryProvider{
		config: *cfg,
	}
	for _, opt := range opts {
		opt(tp)
	}

	if !cfg.Enabled {
		if tp.tracer == nil {
			tp.tracer = otel.Tracer(instrumentationName)
		}
		tp.meter = otel.Meter(instrumentationName)
		return tp, nil
	}

	// Initialize tracing
	if tp.tracer == nil {
		if cfg.TracingEnabled {
			if err := tp.initTracing(); err != nil {
				return nil, fmt.Errorf("init tracing: %w", err)
			}
		} else {
			tp.tracer = otel.Tracer(instrumentationName)
		}
	}

	// Initialize metrics
	if cfg.MetricsEnabled {
		if err := tp.initMetrics(); err != nil {
			return nil, fmt.Errorf("init metrics: %w", err)
		}
	} else {
		tp.meter = otel.Meter(instrumentationName)
	}

	return tp, nil
}

func (tp *TelemetryProvider) resource() (*resource.Resource, error) {
	return resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(tp.config.ServiceName),
			semconv.ServiceVersion(tp.config.ServiceVersion),
			semconv.DeploymentEnvironment(tp.config.Environment),
		),
	)
}

// initTracing initializes OpenTelemetry tracing
func (tp *TelemetryProvider) initTracing() error {
	res, err := tp.resource()
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	// Create OTLP HTTP exporter
	exporter, err := otlptrace.New(context.Background(),
		otlptracehttp.NewClient(
			otlptracehttp.WithEndpointURL(tp.config.OTLPEndpoint),
			otlptracehttp.WithHeaders(tp.config.OTLPHeaders),
		),
	)
	if err != nil {
		return fmt.Errorf("create exporter: %w", err)
	}

	tp.traceProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(tp.config.SampleRate))),
	)

	// Outgoing collector requests are traced through the global provider.
	otel.SetTracerProvider(tp.traceProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	tp.tracer = tp.traceProvider.Tracer(instrumentationName,
		trace.WithInstrumentationVersion(instrumentationVersion),
		trace.WithSchemaURL(semconv.SchemaURL),
	)

	return nil
}

// initMetrics initializes OpenTelemetry metrics
func (tp *TelemetryProvider) initMetrics() error {
	if tp.config.PrometheusEnabled {
		res, err := tp.resource()
		if err != nil {
			return fmt.Errorf("create resource: %w", err)
		}

		tp.registry = prometheus.NewRegistry()
		exporter, err := otelprom.New(
			otelprom.WithRegisterer(tp.registry),
			otelprom.WithoutTargetInfo(),
		)
		if err != nil {
			return fmt.Errorf("create prometheus exporter: %w", err)
		}

		tp.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exporter),
			sdkmetric.WithResource(res),
		)
		tp.meter = tp.meterProvider.Meter(instrumentationName,
			metric.WithInstrumentationVersion(instrumentationVersion),
			metric.WithSchemaURL(semconv.SchemaURL),
		)
	} else {
		tp.meter = otel.Meter(instrumentationName,
			metric.WithInstrumentationVersion(instrumentationVersion),
			metric.WithSchemaURL(semconv.SchemaURL),
		)
	}

	var err error

	tp.notificationsSent, err = tp.meter.Int64Counter(
		"failurous.notifications.sent",
		metric.WithDescription("Total number of fail notifications accepted by the collector"),
	)
	if err != nil {
		return fmt.Errorf("create notifications_sent counter: %w", err)
	}

	tp.notificationsFailed, err = tp.meter.Int64Counter(
		"failurous.notifications.failed",
		metric.WithDescription("Total number of fail notifications that could not be delivered"),
	)
	if err != nil {
		return fmt.Errorf("create notifications_failed counter: %w", err)
	}

	tp.sendDuration, err = tp.meter.Float64Histogram(
		"failurous.send.duration",
		metric.WithDescription("Duration of fail notification sends"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("create send_duration histogram: %w", err)
	}

	return nil
}

// TraceOperation creates a new span for an operation
func (tp *TelemetryProvider) TraceOperation(ctx context.Context, operationName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	if tp.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return tp.tracer.Start(ctx, operationName,
		trace.WithAttributes(attributes...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// TraceNotify creates the span wrapping one notify call
func (tp *TelemetryProvider) TraceNotify(ctx context.Context, shape string) (context.Context, trace.Span) {
	return tp.TraceOperation(ctx, "failurous.notify",
		attribute.String("failurous.shape", shape),
		attribute.String("failurous.operation", "notify"),
	)
}

// RecordSent records a notification accepted by the collector
func (tp *TelemetryProvider) RecordSent(ctx context.Context, shape string, duration time.Duration) {
	if tp.notificationsSent != nil {
		tp.notificationsSent.Add(ctx, 1, metric.WithAttributes(
			attribute.String("shape", shape),
		))
	}

	if tp.sendDuration != nil {
		tp.sendDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("shape", shape),
			attribute.String("status", "success"),
		))
	}
}

// RecordFailed records a notification that could not be delivered
func (tp *TelemetryProvider) RecordFailed(ctx context.Context, shape string, duration time.Duration, errorCode string) {
	if tp.notificationsFailed != nil {
		tp.notificationsFailed.Add(ctx, 1, metric.WithAttributes(
			attribute.String("shape", shape),
			attribute.String("error_code", errorCode),
		))
	}

	if tp.sendDuration != nil {
		tp.sendDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("shape", shape),
			attribute.String("status", "error"),
		))
	}
}

// SetSpanError sets an error on the current span
func (tp *TelemetryProvider) SetSpanError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks the span as successful
func (tp *TelemetryProvider) SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// MetricsHandler serves the Prometheus registry. Without Prometheus enabled
// it answers 404.
func (tp *TelemetryProvider) MetricsHandler() http.Handler {
	if tp.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(tp.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the telemetry provider
func (tp *TelemetryProvider) Shutdown(ctx context.Context) error {
	var err error
	if tp.traceProvider != nil {
		err = tp.traceProvider.Shutdown(ctx)
	}
	if tp.meterProvider != nil {
		if mErr := tp.meterProvider.Shutdown(ctx); err == nil {
			err = mErr
		}
	}
	return err
}

// GetTracer returns the tracer instance
func (tp *TelemetryProvider) GetTracer() trace.Tracer {
	return tp.tracer
}

// GetMeter returns the meter instance
func (tp *TelemetryProvider) GetMeter() metric.Meter {
	return tp.meter
}
