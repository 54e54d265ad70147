package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "phoenix/conversation-api"
)

// GetTracer returns the tracer for the conversation service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// SubmissionAttributes returns common attributes for submission spans.
func SubmissionAttributes(conversationID, editingTurnID string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("conversation.id", conversationID),
		attribute.Bool("submission.edit", editingTurnID != ""),
	}
	if editingTurnID != "" {
		attrs = append(attrs, attribute.String("submission.editing_turn_id", editingTurnID))
	}
	return attrs
}

// StartSubmissionSpan starts a new span for one prompt submission.
func StartSubmissionSpan(ctx context.Context, conversationID, editingTurnID string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "submission.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(SubmissionAttributes(conversationID, editingTurnID)...),
	)
}

// StartGenerationSpan starts a new span for one outbound generation request.
func StartGenerationSpan(ctx context.Context, operation string, historyLen int) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "generation."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("generation.history_len", historyLen)),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
