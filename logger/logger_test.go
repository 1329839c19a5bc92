package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { Set(nil) })

	require.NoError(t, Init("production", "warn"))
	assert.False(t, Get().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Get().Core().Enabled(zapcore.WarnLevel))

	require.NoError(t, Init("development", ""))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))

	assert.Error(t, Init("development", "loud"))
}

func TestGetFallback(t *testing.T) {
	Set(nil)
	t.Cleanup(func() { Set(nil) })

	assert.NotNil(t, Get())
}

func TestNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	Named("assets").Info("hello")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "assets", logs.All()[0].LoggerName)
}
