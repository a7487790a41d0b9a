package logging

import (
	"marketplace-checkout/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger: JSON to stdout in production shape, console
// encoding when LOG_FORMAT=console for local runs.
func New(cfg config.Log, env string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.ErrorOutputPaths = []string{"stdout"}
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	if cfg.Format == "console" {
		zapCfg.Encoding = "console"
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapCfg.InitialFields = map[string]any{
		"env": env,
	}

	return zapCfg.Build()
}

func Must(cfg config.Log, env string) *zap.Logger {
	logger, err := New(cfg, env)
	if err != nil {
		panic(err)
	}
	return logger
}
