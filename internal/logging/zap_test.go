package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_RequestIDAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core)).With("module", "auth")

	ctx := ContextWithRequestID(context.Background(), "req-7")
	log.Info(ctx, "user logged in", "user_id", 3)
	log.Error(context.Background(), "lookup failed")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "user logged in", entries[0].Message)
	assert.Equal(t, "auth", first["module"])
	assert.Equal(t, "req-7", first["request_id"])
	assert.EqualValues(t, 3, first["user_id"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
}
