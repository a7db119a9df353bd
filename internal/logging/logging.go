// Package logging builds the zap loggers used by the CLI and the Lambda
// handlers.
package logging

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger at the given level ("debug", "info", "warn", "error").
// An empty level means info. Production loggers write JSON with ISO8601
// timestamps; development loggers write coloured console lines.
func New(level string, development bool) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		lvl = parsed
	}

	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}

// FromEnv builds a production logger from LOG_LEVEL, falling back to info
// when the variable is unset or invalid. JSON_LOGGING=false switches to the
// console encoder. It never fails, so Lambda mains can call it before
// anything else.
func FromEnv() *zap.Logger {
	development := false
	if raw, ok := os.LookupEnv("JSON_LOGGING"); ok {
		if jsonLogging, err := strconv.ParseBool(raw); err == nil {
			development = !jsonLogging
		}
	}

	logger, err := New(os.Getenv("LOG_LEVEL"), development)
	if err != nil {
		logger, err = New("", development)
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
