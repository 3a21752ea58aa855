package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	billingEvents    metric.Int64Counter
	creditsConsumed  metric.Int64Counter
	gateDenials      metric.Int64Counter
	encodeRequests   metric.Int64Counter
	usageRecorded    metric.Int64Counter
	checkoutSessions metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "cloudmedia"
	}
	meter := provider.Meter(name)

	billingEvents, err := meter.Int64Counter("cloudmedia_billing_events_total")
	if err != nil {
		return nil, err
	}
	creditsConsumed, err := meter.Int64Counter("cloudmedia_credits_consumed_total")
	if err != nil {
		return nil, err
	}
	gateDenials, err := meter.Int64Counter("cloudmedia_gate_denials_total")
	if err != nil {
		return nil, err
	}
	encodeRequests, err := meter.Int64Counter("cloudmedia_encode_requests_total")
	if err != nil {
		return nil, err
	}
	usageRecorded, err := meter.Int64Counter("cloudmedia_usage_recorded_total")
	if err != nil {
		return nil, err
	}
	checkoutSessions, err := meter.Int64Counter("cloudmedia_checkout_sessions_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		billingEvents:    billingEvents,
		creditsConsumed:  creditsConsumed,
		gateDenials:      gateDenials,
		encodeRequests:   encodeRequests,
		usageRecorded:    usageRecorded,
		checkoutSessions: checkoutSessions,
	}, nil
}

// RecordBillingEvent increments processed billing event counts.
func (m *Metrics) RecordBillingEvent(ctx context.Context, provider, eventType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("event_type", strings.TrimSpace(eventType)),
	)
	m.billingEvents.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCreditsConsumed increments consumed credit counts by pool.
func (m *Metrics) RecordCreditsConsumed(ctx context.Context, creditKind string, amount int64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("credit_kind", strings.TrimSpace(creditKind)))
	m.creditsConsumed.Add(ctx, amount, metric.WithAttributes(attrs...))
}

// RecordGateDenial increments gatekeeper denial counts by reason.
func (m *Metrics) RecordGateDenial(ctx context.Context, resourceKind, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("resource_kind", strings.TrimSpace(resourceKind)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.gateDenials.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEncodeRequest increments outbound encode request counts.
func (m *Metrics) RecordEncodeRequest(ctx context.Context, mediaType, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("media_type", strings.TrimSpace(mediaType)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.encodeRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordUsageRecorded increments persisted usage record counts.
func (m *Metrics) RecordUsageRecorded(ctx context.Context, usageType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("usage_type", strings.TrimSpace(usageType)))
	m.usageRecorded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCheckoutSession increments created checkout session counts.
func (m *Metrics) RecordCheckoutSession(ctx context.Context, planID string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("plan", strings.TrimSpace(planID)))
	m.checkoutSessions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"provider":      {},
	"event_type":    {},
	"credit_kind":   {},
	"resource_kind": {},
	"reason":        {},
	"media_type":    {},
	"outcome":       {},
	"usage_type":    {},
	"plan":          {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
