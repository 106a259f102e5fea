package common

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/hiverpc/hiverpc"

// IsTracingDetailed adds high-cardinality attributes (request bodies, node urls) to spans.
// InitializeTracing sets it from config; library users may set it directly.
var IsTracingDetailed bool

// StartSpan opens a span on the globally registered tracer provider. Without a provider
// configured by the application this is a no-op span.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

func SetTraceSpanError(span trace.Span, err error) {
	if span == nil || err == nil || !span.IsRecording() {
		return
	}
	if se, ok := err.(StandardError); ok {
		span.SetAttributes(attribute.String("error.code", se.Base().CodeChain()))
		span.RecordError(err)
		span.SetStatus(codes.Error, se.ErrorCode())
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// InjectHTTPRequestTraceContext propagates the current trace into outgoing node requests.
func InjectHTTPRequestTraceContext(ctx context.Context, req *http.Request) {
	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))
}
