package common

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var (
	tracerProvider *sdktrace.TracerProvider
	initOnce       sync.Once
)

// InitializeTracing installs a global OTLP tracer provider. Without it every span started
// through StartSpan is a no-op, which is what library users who bring their own provider want.
func InitializeTracing(ctx context.Context, logger *zerolog.Logger, cfg *TracingConfig) error {
	var err error

	initOnce.Do(func() {
		if cfg == nil || !cfg.Enabled {
			logger.Debug().Msg("OpenTelemetry tracing is disabled")
			if cfg != nil {
				IsTracingDetailed = cfg.Detailed
			}
			return
		}

		logger.Info().
			Str("endpoint", cfg.Endpoint).
			Str("protocol", string(cfg.Protocol)).
			Str("serviceName", cfg.ServiceName).
			Float64("sampleRate", cfg.SampleRate).
			Bool("detailed", cfg.Detailed).
			Msg("initializing OpenTelemetry tracing")

		var exporter *otlptrace.Exporter
		switch cfg.Protocol {
		case TracingProtocolGrpc:
			exporter, err = createTracingGRPCExporter(ctx, cfg)
		case TracingProtocolHttp:
			exporter, err = createTracingHTTPExporter(ctx, cfg)
		default:
			err = fmt.Errorf("unsupported tracing protocol: %s", cfg.Protocol)
		}
		if err != nil {
			logger.Error().Err(err).Msg("failed to create span exporter")
			return
		}

		var res *resource.Resource
		res, err = resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(cfg.ServiceName),
				semconv.ServiceVersionKey.String(HiveRpcVersion),
				attribute.String("commit.sha", HiveRpcCommitSha),
			),
		)
		if err != nil {
			logger.Error().Err(err).Msg("failed to create resource")
			return
		}

		tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithSampler(createTracingSampler(cfg.SampleRate)),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		if logger.GetLevel() <= zerolog.DebugLevel {
			otel.SetLogger(zerologr.New(logger))
		}
		otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
			logger.Trace().Err(err).Msg("open telemetry export error")
		}))

		IsTracingDetailed = cfg.Detailed
	})

	return err
}

// ShutdownTracing flushes buffered spans.
func ShutdownTracing(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}
	return tracerProvider.Shutdown(ctx)
}

func createTracingGRPCExporter(ctx context.Context, cfg *TracingConfig) (*otlptrace.Exporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	return otlptracegrpc.New(ctx, opts...)
}

func createTracingHTTPExporter(ctx context.Context, cfg *TracingConfig) (*otlptrace.Exporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	return otlptracehttp.New(ctx, opts...)
}

func createTracingSampler(rate float64) sdktrace.Sampler {
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	if rate >= 1.0 {
		return sdktrace.AlwaysSample()
	}
	// child spans follow the root decision so a call is never half traced
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
}
