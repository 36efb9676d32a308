package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig holds configuration for logger instances
type LogConfig struct {
	ServiceName string // e.g., "zip-server", "zip-cli"
	LogLevel    string // "debug", "info", "warn", "error"
	OutputPaths []string
	Development bool
}

// Logger wraps zap.Logger with service context
type Logger struct {
	*zap.Logger
	serviceID string
}

// New builds a JSON logger that stamps every entry with the service name.
// Directories for *.log output paths are created on demand.
func New(config LogConfig) (*Logger, error) {
	if len(config.OutputPaths) == 0 {
		config.OutputPaths = []string{"stdout"}
	}

	for _, path := range config.OutputPaths {
		if filepath.Ext(path) == ".log" {
			dir := filepath.Dir(path)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(parseLevel(config.LogLevel)),
		Development:       config.Development,
		DisableCaller:     false,
		DisableStacktrace: !config.Development,
		Encoding:          "json",
		EncoderConfig:     encoderConfig,
		OutputPaths:       config.OutputPaths,
		ErrorOutputPaths:  []string{"stderr"},
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger for %s: %w", config.ServiceName, err)
	}

	return &Logger{
		Logger:    zapLogger.With(zap.String("service", config.ServiceName)),
		serviceID: config.ServiceName,
	}, nil
}

// NewNop returns a logger that discards everything. Used by tests and by
// components constructed without a logger.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), serviceID: "nop"}
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...), serviceID: l.serviceID}
}

// ServiceID returns the service name this logger was built for
func (l *Logger) ServiceID() string {
	return l.serviceID
}

// Close flushes any buffered log entries
func (l *Logger) Close() error {
	return l.Logger.Sync()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
