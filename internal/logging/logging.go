package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	level   zapcore.Level
	service string
}

// Option configures New.
type Option func(*options) error

// WithLevel sets the minimum enabled level ("debug", "info", "warn", "error").
func WithLevel(level string) Option {
	return func(o *options) error {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		o.level = lvl
		return nil
	}
}

// WithService attaches a "service" field to every entry.
func WithService(name string) Option {
	return func(o *options) error {
		o.service = name
		return nil
	}
}

// New creates a production-ready structured logger configured for JSON output.
func New(opts ...Option) (*zap.Logger, error) {
	o := options{level: zapcore.InfoLevel}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(o.level)
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.DisableStacktrace = false
	if o.service != "" {
		cfg.InitialFields = map[string]interface{}{"service": o.service}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
