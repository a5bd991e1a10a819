package observability

import (
	"context"

	"wastereport/internal/config"
	contextutils "wastereport/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes OpenTelemetry metrics
func InitMetrics(cfg *config.OpenTelemetryConfig) (result0 *metric.MeterProvider, err error) {
	ctx := context.Background()

	res, err := newServiceResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var exporter metric.Exporter
	switch cfg.Protocol {
	case ProtocolGRPC:
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapError(err, "failed to create otlp grpc metric exporter")
		}
		exporter = exp
	case ProtocolHTTP:
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapError(err, "failed to create otlp http metric exporter")
		}
		exporter = exp
	default:
		return nil, unsupportedProtocol(cfg.Protocol)
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithResource(res),
	)
	return mp, nil
}

// Metrics holds the domain counters recorded by the services
type Metrics struct {
	complaintsCreated  otelmetric.Int64Counter
	complaintsAssigned otelmetric.Int64Counter
	complaintsResolved otelmetric.Int64Counter
	aiRequests         otelmetric.Int64Counter
}

// NewMetrics registers the domain counters on the global meter provider.
// With no provider installed the counters are no-ops.
func NewMetrics() *Metrics {
	meter := otel.Meter(tracerName)
	m := &Metrics{}
	m.complaintsCreated, _ = meter.Int64Counter("complaints.created",
		otelmetric.WithDescription("Complaints filed by citizens"))
	m.complaintsAssigned, _ = meter.Int64Counter("complaints.assigned",
		otelmetric.WithDescription("Complaints assigned to an authority member"))
	m.complaintsResolved, _ = meter.Int64Counter("complaints.resolved",
		otelmetric.WithDescription("Complaints moved to resolved"))
	m.aiRequests, _ = meter.Int64Counter("ai.requests",
		otelmetric.WithDescription("Calls to the AI gateway by capability and outcome"))
	return m
}

// ComplaintCreated records a new complaint of the given type
func (m *Metrics) ComplaintCreated(ctx context.Context, complaintType string) {
	if m == nil || m.complaintsCreated == nil {
		return
	}
	m.complaintsCreated.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("complaint.type", complaintType)))
}

// ComplaintAssigned records a committed assignment
func (m *Metrics) ComplaintAssigned(ctx context.Context) {
	if m == nil || m.complaintsAssigned == nil {
		return
	}
	m.complaintsAssigned.Add(ctx, 1)
}

// ComplaintResolved records a complaint reaching resolved
func (m *Metrics) ComplaintResolved(ctx context.Context) {
	if m == nil || m.complaintsResolved == nil {
		return
	}
	m.complaintsResolved.Add(ctx, 1)
}

// AIRequest records one gateway call; outcome is "ok" or the error code
func (m *Metrics) AIRequest(ctx context.Context, capability, outcome string) {
	if m == nil || m.aiRequests == nil {
		return
	}
	m.aiRequests.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("ai.capability", capability),
		attribute.String("ai.outcome", outcome),
	))
}
