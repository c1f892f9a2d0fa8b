package utils

// logger.go - structured logging setup, built on go.uber.org/zap.

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls the logger InitLogger builds.
type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// InitLogger builds a zap.Logger from cfg. An unrecognized Level defaults
// to info; an unrecognized Format defaults to json.
func InitLogger(cfg LoggerConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "console" {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(consoleCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	return zap.New(core, zap.AddCaller()), nil
}

// NewNopLogger returns a logger that discards all output, for tests.
func NewNopLogger() *zap.Logger {
	return zap.NewNop()
}
