package logger

import (
	"fmt"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New builds the application's production zap logger at the given level.
func New(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return zapLogger, nil
}

// BridgeSlog routes the standard library's slog through the given zap logger so
// dependencies logging via slog end up in the same stream.
func BridgeSlog(zapLogger *zap.Logger) {
	handler := zapslog.NewHandler(zapLogger.Core())
	slog.SetDefault(slog.New(handler))
}
