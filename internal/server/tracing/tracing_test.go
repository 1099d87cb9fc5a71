package tracing

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/agrocms/internal/logging"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), logging.NewNop(), "agrocms", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInit_WithEndpoint(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	// the exporter connects lazily, so no collector is needed
	shutdown, err := Init(context.Background(), logging.NewNop(), "agrocms", "127.0.0.1:4318")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
