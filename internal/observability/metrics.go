package observability

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsCollector manages all metrics for the decision core
type MetricsCollector struct {
	meter metric.Meter

	// Confidence metrics
	confidenceDecisions metric.Int64Counter
	confidenceScore     metric.Float64Histogram

	// Guided-dialogue metrics
	digressions        metric.Int64Counter
	validationFailures metric.Int64Counter

	// Collaborator metrics
	embeddingErrors  metric.Int64Counter
	embeddingLatency metric.Float64Histogram
	configFallbacks  metric.Int64Counter

	// Server for Prometheus scraping
	prometheusServer *http.Server
}

// MetricsConfig configures the metrics collector
type MetricsConfig struct {
	Enabled        bool `yaml:"enabled"`
	PrometheusPort int  `yaml:"prometheus_port"`
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(config MetricsConfig) (*MetricsCollector, error) {
	if !config.Enabled {
		return &MetricsCollector{}, nil
	}

	// Create Prometheus exporter
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	// Create meter provider
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter("dialogcore")

	confidenceDecisions, err := meter.Int64Counter(
		"dialogcore.confidence.decisions.total",
		metric.WithDescription("Confidence decisions by outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create confidence_decisions counter: %w", err)
	}

	confidenceScore, err := meter.Float64Histogram(
		"dialogcore.confidence.score",
		metric.WithDescription("Weighted confidence score distribution"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create confidence_score histogram: %w", err)
	}

	digressions, err := meter.Int64Counter(
		"dialogcore.digressions.total",
		metric.WithDescription("Detected digressions by type"),
		metric.WithUnit("{digression}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create digressions counter: %w", err)
	}

	validationFailures, err := meter.Int64Counter(
		"dialogcore.validation.failures.total",
		metric.WithDescription("Field validation failures by field"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create validation_failures counter: %w", err)
	}

	embeddingErrors, err := meter.Int64Counter(
		"dialogcore.embedding.errors.total",
		metric.WithDescription("Embedding collaborator failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding_errors counter: %w", err)
	}

	embeddingLatency, err := meter.Float64Histogram(
		"dialogcore.embedding.latency",
		metric.WithDescription("Embedding request latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding_latency histogram: %w", err)
	}

	configFallbacks, err := meter.Int64Counter(
		"dialogcore.config.fallbacks.total",
		metric.WithDescription("Digression config loads that fell back to cached or default values"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create config_fallbacks counter: %w", err)
	}

	collector := &MetricsCollector{
		meter:               meter,
		confidenceDecisions: confidenceDecisions,
		confidenceScore:     confidenceScore,
		digressions:         digressions,
		validationFailures:  validationFailures,
		embeddingErrors:     embeddingErrors,
		embeddingLatency:    embeddingLatency,
		configFallbacks:     configFallbacks,
	}

	// Start Prometheus HTTP server
	if config.PrometheusPort > 0 {
		if err := collector.StartPrometheusServer(config.PrometheusPort); err != nil {
			return nil, fmt.Errorf("failed to start prometheus server: %w", err)
		}
	}

	return collector, nil
}

// StartPrometheusServer starts the Prometheus metrics server
func (m *MetricsCollector) StartPrometheusServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promclient.Handler())

	m.prometheusServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		log.Printf("Prometheus metrics server listening on :%d", port)
		if err := m.prometheusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Prometheus server error: %v", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the metrics collector
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m.prometheusServer != nil {
		return m.prometheusServer.Shutdown(ctx)
	}
	return nil
}

// RecordConfidenceDecision records a confidence evaluation outcome
func (m *MetricsCollector) RecordConfidenceDecision(ctx context.Context, outcome string, score float64) {
	if m == nil || m.confidenceDecisions == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("outcome", outcome),
	}

	m.confidenceDecisions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.confidenceScore.Record(ctx, score, metric.WithAttributes(attrs...))
}

// RecordDigression records a detected digression
func (m *MetricsCollector) RecordDigression(ctx context.Context, digressionType string) {
	if m == nil || m.digressions == nil {
		return
	}
	m.digressions.Add(ctx, 1, metric.WithAttributes(attribute.String("type", digressionType)))
}

// RecordValidationFailure records a field validation failure
func (m *MetricsCollector) RecordValidationFailure(ctx context.Context, fieldName string) {
	if m == nil || m.validationFailures == nil {
		return
	}
	m.validationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("field", fieldName)))
}

// RecordEmbeddingCall records an embedding collaborator call
func (m *MetricsCollector) RecordEmbeddingCall(ctx context.Context, latency time.Duration, err error) {
	if m == nil || m.embeddingLatency == nil {
		return
	}
	m.embeddingLatency.Record(ctx, latency.Seconds())
	if err != nil {
		m.embeddingErrors.Add(ctx, 1)
	}
}

// RecordConfigFallback records a config load served from cache or defaults
func (m *MetricsCollector) RecordConfigFallback(ctx context.Context, source string) {
	if m == nil || m.configFallbacks == nil {
		return
	}
	m.configFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
