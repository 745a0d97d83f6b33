package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracer_DisabledInstallsPropagator(t *testing.T) {
	shutdown, err := InitTracer(Config{ServiceName: "endpoint-api", Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")

	_, span := GetTracer("test").Start(context.Background(), "noop")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())
}

func TestInitTracer_Enabled(t *testing.T) {
	shutdown, err := InitTracer(Config{
		ServiceName: "endpoint-api",
		Environment: "test",
		Endpoint:    "http://127.0.0.1:4318",
		Enabled:     true,
	})
	require.NoError(t, err)

	_, span := GetTracer("test").Start(context.Background(), "publish")
	assert.True(t, span.SpanContext().IsValid())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	// Nothing is listening; only the provider teardown is under test.
	_ = shutdown(ctx)
}
