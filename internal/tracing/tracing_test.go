package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/GTDGit/gtd_forecast/internal/config"
)

func TestInit_WithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TracingConfig{ServiceName: "test"}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
}

func TestExporterOptions(t *testing.T) {
	assert.Len(t, exporterOptions("https://otel.example.com/v1/traces"), 1)
	assert.Len(t, exporterOptions("collector:4318"), 2)
}
