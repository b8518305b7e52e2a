package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/weft/internal/adapters/telemetry"
	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports"
	"go.trai.ch/weft/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestOTelTracer_Start(t *testing.T) {
	recorder := installRecorder(t)
	tracer := telemetry.NewOTelTracer("weft")

	_, span := tracer.Start(t.Context(), "build app::compile",
		ports.WithAttribute("target", domain.NewTargetID("app", "compile")),
		ports.WithAttribute("attempt", 2),
	)
	span.SetAttribute("skipped", true)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "build app::compile", ended[0].Name())
	assert.ElementsMatch(t, []attribute.KeyValue{
		attribute.Int("attempt", 2),
		attribute.String("target", "app::compile"),
		attribute.Bool("skipped", true),
	}, ended[0].Attributes())
}

func TestOTelSpan_RecordError(t *testing.T) {
	recorder := installRecorder(t)
	tracer := telemetry.NewOTelTracer("weft")

	_, span := tracer.Start(t.Context(), "build")
	span.RecordError(errors.New("exit status 1"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "exit status 1", ended[0].Status().Description)
}

func TestOTelTracer_EmitPlan(t *testing.T) {
	recorder := installRecorder(t)
	tracer := telemetry.NewOTelTracer("weft")

	ctx, span := tracer.Start(t.Context(), "run")
	tracer.EmitPlan(ctx, []string{"app::compile", "app::test"})
	span.End()

	events := recorder.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "plan_emitted", events[0].Name)
}

func TestNoOpTracer(t *testing.T) {
	var tracer ports.Tracer = telemetry.NoOpTracer{}

	ctx, span := tracer.Start(t.Context(), "anything", ports.WithAttribute("k", "v"))
	assert.Equal(t, t.Context(), ctx)
	span.SetAttribute("k", 1)
	span.RecordError(errors.New("ignored"))
	span.End()
	tracer.EmitPlan(ctx, nil)
}

func TestBridge_OnEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).Do(func(msg string) {
		assert.Regexp(t, `^build app::compile took \d+(\.\d+)?(ns|µs|ms|s)$`, msg)
	})

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(log)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(t.Context(), "build app::compile")
	span.End()
}

func TestBridge_OnEndWithError(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).Do(func(msg string) {
		assert.Regexp(t, `^build app::compile failed after .+: exit status 1$`, msg)
	})

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(log)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(t.Context(), "build app::compile")
	span.SetStatus(codes.Error, "exit status 1")
	span.End()
}

func TestBridge_NilLogger(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(nil)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(t.Context(), "span")
	span.End()
}
