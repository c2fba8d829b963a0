package tracing

import (
	"context"
	"errors"
	"testing"

	"lzpending/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// withRecorder installs an in-memory provider for the duration of the test.
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestDefaultTracingConfig(t *testing.T) {
	config := DefaultTracingConfig()

	assert.Equal(t, "lzpending", config.ServiceName)
	assert.Equal(t, "dev", config.ServiceVersion)
	assert.Equal(t, "localhost:4318", config.OTLPEndpoint)
	assert.Equal(t, 0.1, config.SampleRate)
	assert.False(t, config.Enabled)
	assert.True(t, config.UseStdout)
}

func TestFromModel(t *testing.T) {
	tc := FromModel(models.TracingConfig{
		Enabled:      true,
		OTLPEndpoint: "collector:4318",
		SampleRate:   1,
		Environment:  "production",
	}, "v1.2.3")

	assert.True(t, tc.Enabled)
	assert.False(t, tc.UseStdout)
	assert.Equal(t, "collector:4318", tc.OTLPEndpoint)
	assert.Equal(t, 1.0, tc.SampleRate)
	assert.Equal(t, "production", tc.Environment)
	assert.Equal(t, "v1.2.3", tc.ServiceVersion)

	defaults := FromModel(models.TracingConfig{}, "")
	assert.Equal(t, DefaultTracingConfig().OTLPEndpoint, defaults.OTLPEndpoint)
	assert.Equal(t, DefaultTracingConfig().SampleRate, defaults.SampleRate)
	assert.Equal(t, "dev", defaults.ServiceVersion)
}

func TestTracingManager_Disabled(t *testing.T) {
	tm := NewTracingManager(DefaultTracingConfig(), quietLogger())

	require.NoError(t, tm.Initialize(context.Background()))
	assert.Nil(t, tm.tracerProvider)
	assert.NoError(t, tm.Shutdown(context.Background()))
}

func TestTracingManager_StdoutLifecycle(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.SampleRate = 1
	tm := NewTracingManager(cfg, quietLogger())

	require.NoError(t, tm.Initialize(context.Background()))
	require.NotNil(t, tm.tracerProvider)
	assert.Same(t, tm.tracerProvider, otel.GetTracerProvider())

	assert.NoError(t, tm.Shutdown(context.Background()))
}

func TestStartSpan_SetsAttributes(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := StartSpan(context.Background(), "pending.test", attribute.String("owner", "0xabc"))
	assert.NotEmpty(t, GetOtelTraceID(ctx))
	assert.NotEmpty(t, GetOtelSpanID(ctx))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "pending.test", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("owner", "0xabc"))
}

func TestRecordError_MarksSpan(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := StartSpan(context.Background(), "failing")
	RecordError(ctx, errors.New("upstream down"), attribute.String("endpoint", "messages"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "upstream down", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
}

func TestOtelIDs_NoSpan(t *testing.T) {
	assert.Empty(t, GetOtelTraceID(context.Background()))
	assert.Empty(t, GetOtelSpanID(context.Background()))

	// Must not panic without a span.
	RecordError(context.Background(), errors.New("ignored"))
}
