package usecase

import (
	"context"
	"strings"

	"github.com/riskibarqy/application-relay/internal/domain/status"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	usecaseTracer   = otel.Tracer("application-relay/internal/usecase")
	usecaseNoopSpan = trace.SpanFromContext(context.Background())
)

// startUsecaseSpan only opens a child span; background loops without a
// parent span stay untraced.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if strings.TrimSpace(name) == "" || !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// recordResolution tags the resolve span with its terminal outcome. An
// ApplicationFailure is a normal answer and leaves the span status unset.
func recordResolution(span trace.Span, result status.ApplicationStatus, err error) {
	if !span.IsRecording() {
		return
	}
	switch v := result.(type) {
	case status.ApplicationSuccess:
		span.SetAttributes(attribute.String("relay.outcome", "success"))
	case status.ApplicationFailure:
		span.SetAttributes(
			attribute.String("relay.outcome", "failure"),
			attribute.Int("relay.retries", v.RetriesCount),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
