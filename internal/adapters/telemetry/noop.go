package telemetry

import (
	"context"

	"go.trai.ch/weft/internal/core/ports"
)

var _ ports.Tracer = NoOpTracer{}

// NoOpTracer discards every span.
type NoOpTracer struct{}

// Start returns ctx unchanged and a span that records nothing.
func (NoOpTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, NoOpSpan{}
}

// EmitPlan does nothing.
func (NoOpTracer) EmitPlan(context.Context, []string) {}

// NoOpSpan is a span that records nothing.
type NoOpSpan struct{}

func (NoOpSpan) End()                     {}
func (NoOpSpan) RecordError(error)        {}
func (NoOpSpan) SetAttribute(string, any) {}
