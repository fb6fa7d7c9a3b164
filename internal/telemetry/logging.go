package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

// NewLogger creates an OpenTelemetry-aware zap logger. Output is JSON on
// stdout; the level string accepts zap's usual names and falls back to info.
func NewLogger(level string) (*otelzap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.Encoding = "json"
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return otelzap.New(zapLogger), nil
}

// NopLogger returns a logger that discards everything. Used in tests and by
// callers that construct services without a logging pipeline.
func NopLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}
