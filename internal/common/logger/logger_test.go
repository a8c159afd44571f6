package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).Named("survey").WithFields(map[string]interface{}{"sessionId": "s1"})

	log.WithError(errors.New("redis down")).Warn("store failed", map[string]interface{}{"attempt": 2})

	entries := logs.All()
	assert.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "survey", e.LoggerName)
	assert.Equal(t, zapcore.WarnLevel, e.Level)

	ctx := e.ContextMap()
	assert.Equal(t, "s1", ctx["sessionId"])
	assert.Equal(t, int64(2), ctx["attempt"])
	assert.Equal(t, "redis down", ctx["error"])
}

func TestUnwrap(t *testing.T) {
	z := zap.NewNop()
	assert.Same(t, z, Unwrap(NewZapAdapter(z)))
	assert.NotNil(t, Unwrap(nil))
}
