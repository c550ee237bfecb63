package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextLogger(t *testing.T) {
	t.Run("round-trips the logger through context", func(t *testing.T) {
		logger := zap.NewNop()
		ctx := WithContext(context.Background(), logger)
		assert.Same(t, logger, FromContext(ctx))
	})

	t.Run("missing logger yields a no-op", func(t *testing.T) {
		logger := FromContext(context.Background())
		require.NotNil(t, logger)
		// Must not panic
		logger.Info("noop")
	})
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	ctx, enriched := WithRequestID(context.Background(), logger, "req-123")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Same(t, enriched, FromContext(ctx))

	enriched.Info("hello")
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
}

func TestGetRequestID(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}
