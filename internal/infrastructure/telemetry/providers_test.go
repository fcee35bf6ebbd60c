package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestProviders_Disabled(t *testing.T) {
	ctx := context.Background()

	mp, err := NewMeterProvider(ctx, MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))

	tp, err := NewTracerProvider(ctx, Config{Enabled: false}, nil)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(ctx))

	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestTracerProvider_EnableSpanProfiles(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	disabled, err := NewTracerProvider(context.Background(), Config{Enabled: false}, nil)
	require.NoError(t, err)
	disabled.EnableSpanProfiles()
	assert.Equal(t, prev, otel.GetTracerProvider())

	sdk := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = sdk.Shutdown(context.Background()) })
	tp := &TracerProvider{provider: sdk, logger: zap.NewNop(), config: Config{Enabled: true, ServiceName: "storemirror"}}
	tp.EnableSpanProfiles()

	assert.NotEqual(t, sdk, otel.GetTracerProvider())
	_, span := otel.Tracer("test").Start(context.Background(), "job.sync")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestNewZapOTELCore_DisabledIsNop(t *testing.T) {
	core := NewZapOTELCore("storemirror", nil, zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))

	base, logs := observer.New(zapcore.InfoLevel)
	logger := BridgeLogger(zap.New(base), core)
	logger.Info("still written to the base core")
	assert.Equal(t, 1, logs.Len())
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	logger := zap.New(core)
	logger.Info("dropped")
	logger.Warn("kept")
	logger.With(zap.String("k", "v")).Error("kept too")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestStartSpanAndRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	ctx, span := StartSpan(context.Background(), "job.sync", AttrJob.String("sync"))
	assert.NotEmpty(t, GetTraceID(ctx))
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "job.sync", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), AttrJob.String("sync"))

	assert.Empty(t, GetTraceID(context.Background()))
}
