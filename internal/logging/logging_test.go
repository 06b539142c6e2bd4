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

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = New(Config{})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ctx := ContextWithLogger(context.Background(), logger)
	FromContext(ctx, nil).Info("solved", zap.String("hole_id", "DH-1"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "DH-1", logs.All()[0].ContextMap()["hole_id"])

	// The context logger wins over the fallback
	FromContext(ctx, zap.NewNop()).Info("again")
	assert.Equal(t, 2, logs.Len())

	// Missing logger uses the fallback, then a no-op
	fallbackCore, fallbackLogs := observer.New(zapcore.InfoLevel)
	FromContext(context.Background(), zap.New(fallbackCore)).Info("fallback")
	assert.Equal(t, 1, fallbackLogs.Len())
	assert.NotPanics(t, func() { FromContext(context.Background(), nil).Info("dropped") })
}
