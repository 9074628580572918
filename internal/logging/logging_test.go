package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewOperationErrorNil(t *testing.T) {
	assert.NoError(t, NewOperationError("model.infer", "req-1", nil))
}

func TestOperationErrorUnwrap(t *testing.T) {
	base := errors.New("shape mismatch")
	err := NewOperationError("model.infer", "req-1", base)

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "model.infer (request_id=req-1): shape mismatch", err.Error())

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "model.infer", opErr.Operation)
}

func TestOperationErrorWithoutRequestID(t *testing.T) {
	err := NewOperationError("artifacts.load", "", errors.New("missing"))
	assert.Equal(t, "artifacts.load: missing", err.Error())
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("loud")
	assert.Error(t, err)
}

func TestNewLoggerAcceptsLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		logger, err := NewLogger(level)
		require.NoError(t, err, level)
		require.NotNil(t, logger)
	}
}

func TestWithOperationAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := WithOperation(zap.New(core), "diagnose", "req-9")
	logger.Info("done")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "diagnose", fields["operation"])
	assert.Equal(t, "req-9", fields["request_id"])
}
