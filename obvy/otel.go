package fallwatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TracerName is the instrumentation scope for fallwatch spans
const TracerName = "github.com/maroda/fallwatch"

// InitOTelHNY uses the Honeycomb library to interface with OTel
func InitOTelHNY() (func(), error) {
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		return nil, fmt.Errorf("failed to configure OpenTelemetry: %w", err)
	}
	return func() { otelShutdown() }, nil
}

// InitOTelGRF uses the Grafana recommended configuration including Baggage for propagation
func InitOTelGRF() (*sdktrace.TracerProvider, error) {
	exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	return tp, err
}

// InitOTel picks a backend by name: "honeycomb", "grafana", anything else is off.
// The returned shutdown is always safe to call.
func InitOTel(mode string) (func(), error) {
	switch mode {
	case "honeycomb":
		slog.Info("OpenTelemetry enabled", slog.String("backend", mode))
		return InitOTelHNY()
	case "grafana":
		tp, err := InitOTelGRF()
		if err != nil {
			return func() {}, err
		}
		slog.Info("OpenTelemetry enabled", slog.String("backend", mode))
		return func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				slog.Error("TracerProvider shutdown failed", slog.Any("error", err))
			}
		}, nil
	default:
		return func() {}, nil
	}
}
