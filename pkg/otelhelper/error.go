package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RecordStepFailure marks a step span as failed and annotates it with the
// step identity, so failing saga steps stand out in trace backends.
func RecordStepFailure(span trace.Span, err error, stepID string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("step.failed", trace.WithAttributes(
		attribute.String(StepIDKey, stepID),
	))
}
