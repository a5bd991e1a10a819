package observability

import (
	"testing"

	"wastereport/internal/config"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetupObservability_AllEnabled(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{
		EnableTracing:  true,
		EnableMetrics:  true,
		EnableLogging:  true,
		ServiceVersion: "1.0.0",
		Protocol:       "grpc",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SamplingRate:   1.0,
	}
	tp, mp, logger, err := SetupObservability(cfg, "waste-test", "debug")
	require.NoError(t, err)
	require.NotNil(t, tp)
	require.NotNil(t, mp)
	require.NotNil(t, logger)
	require.Equal(t, "waste-test", cfg.ServiceName)

	_, isStandardSDK := tp.(*sdktrace.TracerProvider)
	require.True(t, isStandardSDK, "Expected standard SDK TracerProvider")
}

func TestSetupObservability_NoneEnabled(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{ServiceName: "waste-test", Protocol: "grpc"}
	tp, mp, logger, err := SetupObservability(cfg, "", "info")
	require.NoError(t, err)
	require.Nil(t, tp)
	require.Nil(t, mp)
	require.NotNil(t, logger)
}

func TestSetupObservability_UseAutoSDK(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{
		EnableTracing:  true,
		UseAutoSDK:     true,
		ServiceVersion: "1.0.0",
	}
	tp, _, _, err := SetupObservability(cfg, "waste-test", "info")
	require.NoError(t, err)
	require.NotNil(t, tp)

	_, isStandardSDK := tp.(*sdktrace.TracerProvider)
	require.False(t, isStandardSDK, "Expected Auto SDK TracerProvider")
}

func TestSetupObservability_InvalidProtocol(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{EnableTracing: true, Protocol: "carrier-pigeon", SamplingRate: 1.0}
	_, _, logger, err := SetupObservability(cfg, "waste-test", "info")
	require.Error(t, err)
	require.NotNil(t, logger)
}

func TestInitStandardTracing_HTTP(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{
		ServiceName:  "waste-test",
		Protocol:     "http",
		Endpoint:     "localhost:4318",
		Insecure:     true,
		SamplingRate: 0.5,
	}
	tp, err := InitStandardTracing(cfg)
	require.NoError(t, err)

	_, ok := tp.(*sdktrace.TracerProvider)
	require.True(t, ok, "Expected *sdktrace.TracerProvider")
}

func TestInitMetrics_InvalidProtocol(t *testing.T) {
	mp, err := InitMetrics(&config.OpenTelemetryConfig{Protocol: "udp"})
	require.Error(t, err)
	require.Nil(t, mp)
	require.Contains(t, err.Error(), "unsupported otel protocol")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ComplaintCreated(t.Context(), "garbage")
		m.ComplaintAssigned(t.Context())
		m.ComplaintResolved(t.Context())
		m.AIRequest(t.Context(), "classify_waste", "ok")
	})

	require.NotPanics(t, func() {
		NewMetrics().ComplaintCreated(t.Context(), "dead_animal")
	})
}
