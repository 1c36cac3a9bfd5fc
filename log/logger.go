// Package log provides structured logging for the supervisor and collector
// core, every entry tagged with the owning process's identity.
//
// Two logger variants are available:
//   - Logger: non-sugared zap.Logger for the hot collector/supervisor path
//   - SugaredLogger: printf-style logging for CLI/debug surfaces
//
// Use Logger.Sugar() to obtain a SugaredLogger when needed.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging tagged with process identity.
//
// Use this for core runtime paths where performance matters. For CLI/debug
// surfaces, use Sugar() to get a SugaredLogger.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger provides printf-style logging for CLI and debug surfaces.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a logger tagged with processInstanceID, writing to
// os.Stderr. processInstanceID is generated once at supervisor construction
// and carried on every subsequent entry so log lines from one daemon
// lifetime can be correlated.
func NewLogger(processInstanceID string) *Logger {
	return newLoggerWithWriter(processInstanceID, os.Stderr)
}

// WithOutput returns a new logger with a different output writer.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return &Logger{zap: l.zap.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))}
}

// WithComponent returns a logger scoped to a named subsystem ("supervisor",
// "collector", "storage"), attached to every subsequent entry.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{zap: l.zap.With(zap.String("component", component))}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
}

func newLoggerWithWriter(processInstanceID string, w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	zapLogger := zap.New(core).With(zap.String("process_instance_id", processInstanceID))
	return &Logger{zap: zapLogger}
}

// Debug logs a debug message, naming the operation in progress.
func (l *Logger) Debug(op, message string, fields map[string]any) {
	l.zap.Debug(message, zap.String("op", op), zap.Any("fields", fields))
}

// Info logs an info message.
func (l *Logger) Info(op, message string, fields map[string]any) {
	l.zap.Info(message, zap.String("op", op), zap.Any("fields", fields))
}

// Warn logs a warning message.
func (l *Logger) Warn(op, message string, fields map[string]any) {
	l.zap.Warn(message, zap.String("op", op), zap.Any("fields", fields))
}

// Error logs an error message.
func (l *Logger) Error(op, message string, fields map[string]any) {
	l.zap.Error(message, zap.String("op", op), zap.Any("fields", fields))
}

// Sync flushes any buffered log entries. Call before process exit; close
// errors on stderr are unactionable, so defers typically discard them.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Sugar returns a SugaredLogger for printf-style logging.
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Debugf logs a debug message with printf-style formatting.
func (s *SugaredLogger) Debugf(template string, args ...any) {
	s.sugar.Debugf(template, args...)
}

// Infof logs an info message with printf-style formatting.
func (s *SugaredLogger) Infof(template string, args ...any) {
	s.sugar.Infof(template, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (s *SugaredLogger) Warnf(template string, args ...any) {
	s.sugar.Warnf(template, args...)
}

// Errorf logs an error message with printf-style formatting.
func (s *SugaredLogger) Errorf(template string, args ...any) {
	s.sugar.Errorf(template, args...)
}

// With returns a SugaredLogger with additional context fields.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}
