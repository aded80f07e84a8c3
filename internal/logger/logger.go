package logger

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewConsoleLogger builds the CLI logger. Verbose enables V(1) output.
func NewConsoleLogger(verbose bool, jsonFormat bool) logr.Logger {
	level := zapcore.InfoLevel
	if verbose {
		// logr V(1) maps to zap level -1
		level = zapcore.Level(-1)
	}

	var config zap.Config
	if jsonFormat {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "time"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.TimeKey = ""
		config.DisableStacktrace = true
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	zapLogger, err := config.Build()
	if err != nil {
		return zapr.NewLogger(zap.NewNop())
	}
	return zapr.NewLogger(zapLogger)
}
