// Package logger wraps zap with the field-map call shape used throughout
// SENTINEL: Info/Warning/Error/Fatal take an optional map[string]interface{}
// instead of a list of zap.Field, so call sites stay readable at a glance.
package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is SENTINEL's structured logger.
type Logger struct {
	zap *zap.Logger
}

// NewLogger builds a JSON-to-stdout logger at the given level.
func NewLogger(level string) *Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	jsonCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		zapLevel,
	)

	zl := zap.New(jsonCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return &Logger{zap: zl}
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	if len(fields) > 0 {
		l.zap.Info(msg, convertFields(fields[0])...)
	} else {
		l.zap.Info(msg)
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	if len(fields) > 0 {
		l.zap.Debug(msg, convertFields(fields[0])...)
	} else {
		l.zap.Debug(msg)
	}
}

// Warning logs at warn level. Used for the publisher-not-initialized gate
// and other "degraded, not failed" conditions.
func (l *Logger) Warning(msg string, fields ...map[string]interface{}) {
	if len(fields) > 0 {
		l.zap.Warn(msg, convertFields(fields[0])...)
	} else {
		l.zap.Warn(msg)
	}
}

// Error logs at error level with an attached error value.
func (l *Logger) Error(msg string, err error, fields ...map[string]interface{}) {
	if len(fields) > 0 {
		zapFields := convertFields(fields[0])
		zapFields = append([]zap.Field{zap.Error(err)}, zapFields...)
		l.zap.Error(msg, zapFields...)
	} else {
		l.zap.Error(msg, zap.Error(err))
	}
}

// Fatal logs at fatal level then terminates the process.
func (l *Logger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	if len(fields) > 0 {
		zapFields := convertFields(fields[0])
		zapFields = append([]zap.Field{zap.Error(err)}, zapFields...)
		l.zap.Fatal(msg, zapFields...)
	} else {
		l.zap.Fatal(msg, zap.Error(err))
	}
}

// TimeTrack logs the elapsed time since start under "operation".
func (l *Logger) TimeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	l.Info("execution time", map[string]interface{}{
		"operation": name,
		"duration":  elapsed.String(),
	})
}

// WithContext returns a child logger carrying the given fields on every call.
func (l *Logger) WithContext(context map[string]interface{}) *Logger {
	return &Logger{zap: l.zap.With(convertFields(context)...)}
}

func convertFields(fields map[string]interface{}) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return zapFields
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() {
	_ = l.zap.Sync()
}

// Sugar returns a zap.SugaredLogger for printf-style call sites.
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.zap.Sugar()
}
