package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents different log levels
type LogLevel string

const (
	INFO  LogLevel = "info"
	WARN  LogLevel = "warn"
	ERROR LogLevel = "error"
	DEBUG LogLevel = "debug"
)

// callerSkip drops log and its exported wrapper so entries carry the caller's file.
const callerSkip = 2

// Logger provides structured logging
type Logger struct {
	zap *zap.Logger
}

// NewLogger creates a new structured logger writing JSON to stdout
func NewLogger(level LogLevel, development bool) (*Logger, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = zapcore.InfoLevel
	}

	encoding := "json"
	encoderCfg := zap.NewProductionEncoderConfig()
	if development {
		encoding = "console"
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	}
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(l),
		Development:       development,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !development,
	}

	z, err := cfg.Build(zap.AddCallerSkip(callerSkip))
	if err != nil {
		return nil, err
	}
	return &Logger{zap: z}, nil
}

// NewNopLogger returns a logger that discards everything. Used by tests.
func NewNopLogger() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// Info logs an info message
func (l *Logger) Info(message string, data ...interface{}) {
	l.log(INFO, message, nil, data...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, data ...interface{}) {
	l.log(WARN, message, nil, data...)
}

// Error logs an error message
func (l *Logger) Error(message string, err error, data ...interface{}) {
	l.log(ERROR, message, err, data...)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, data ...interface{}) {
	l.log(DEBUG, message, nil, data...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

func (l *Logger) log(level LogLevel, message string, err error, data ...interface{}) {
	fields := make([]zap.Field, 0, 2)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if len(data) > 0 {
		fields = append(fields, zap.Any("data", data[0]))
	}

	switch level {
	case DEBUG:
		l.zap.Debug(message, fields...)
	case WARN:
		l.zap.Warn(message, fields...)
	case ERROR:
		l.zap.Error(message, fields...)
	default:
		l.zap.Info(message, fields...)
	}
}

// GlobalLogger is used by the package-level helpers. Replace it with SetGlobalLogger at startup.
var GlobalLogger = mustDefaultLogger()

func mustDefaultLogger() *Logger {
	l, err := NewLogger(INFO, false)
	if err != nil {
		return NewNopLogger()
	}
	return l
}

// SetGlobalLogger swaps the logger used by LogInfo and friends.
func SetGlobalLogger(l *Logger) {
	if l != nil {
		GlobalLogger = l
	}
}

// Convenience functions for global logger. They call log directly so they sit
// at the same stack depth as the Logger methods.
func LogInfo(message string, data ...interface{}) {
	GlobalLogger.log(INFO, message, nil, data...)
}

func LogWarn(message string, data ...interface{}) {
	GlobalLogger.log(WARN, message, nil, data...)
}

func LogError(message string, err error, data ...interface{}) {
	GlobalLogger.log(ERROR, message, err, data...)
}

func LogDebug(message string, data ...interface{}) {
	GlobalLogger.log(DEBUG, message, nil, data...)
}
