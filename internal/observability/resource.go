package observability

import (
	"context"

	"wastereport/internal/config"
	contextutils "wastereport/internal/utils"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ServiceNamespace groups the API server and admin tool under one namespace in the backend
const ServiceNamespace = "municipal-waste"

// OTLP transports accepted in open_telemetry.protocol
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// newServiceResource describes this process to every exporter
func newServiceResource(ctx context.Context, cfg *config.OpenTelemetryConfig) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.ServiceNamespace(ServiceNamespace),
		),
		resource.WithHost(),
		resource.WithProcessPID(),
	)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create otel resource")
	}
	return res, nil
}

func unsupportedProtocol(protocol string) error {
	return contextutils.WrapErrorf(contextutils.ErrInternalError, "unsupported otel protocol: %s", protocol)
}
