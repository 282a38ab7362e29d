package logging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-colorable"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelFatal LogLevel = "FATAL"
)

// ParseLevel converts a config string into a LogLevel, defaulting to INFO
func ParseLevel(s string) LogLevel {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelWarn, "WARNING":
		return LogLevelWarn
	case LogLevelError:
		return LogLevelError
	case LogLevelFatal:
		return LogLevelFatal
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Options controls where and how much a Logger writes
type Options struct {
	Level LogLevel
	// File enables a rotated JSON log file next to console output
	File string
	// NoColor disables ANSI level colouring on the console
	NoColor bool
}

// Logger provides structured logging for a single component
type Logger struct {
	component string
	z         *zap.Logger
}

// NewLogger creates a console logger for a component at INFO level
func NewLogger(component string) *Logger {
	return New(component, Options{Level: LogLevelInfo})
}

// New creates a logger for a component with the given options
func New(component string, opts Options) *Logger {
	level := opts.Level.zapLevel()

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if opts.NoColor {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(colorable.NewColorableStdout()),
			level,
		),
	}

	if opts.File != "" {
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileCfg),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     14, // days
			}),
			level,
		))
	}

	return NewWithCore(component, zapcore.NewTee(cores...))
}

// NewWithCore wraps an existing zap core, mainly for tests using zaptest/observer
func NewWithCore(component string, core zapcore.Core) *Logger {
	return &Logger{
		component: component,
		z:         zap.New(core).Named(component),
	}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{component: "nop", z: zap.NewNop()}
}

// Named returns a logger for a sub-component sharing the same outputs
func (l *Logger) Named(component string) *Logger {
	return &Logger{
		component: l.component + "." + component,
		z:         l.z.Named(component),
	}
}

// Component returns the component name
func (l *Logger) Component() string {
	return l.component
}

// Sync flushes buffered output
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// log writes a log entry
func (l *Logger) log(level zapcore.Level, message string, err error, context map[string]interface{}) {
	ce := l.z.Check(level, message)
	if ce == nil {
		return
	}
	ce.Write(contextFields(err, context)...)
}

// contextFields turns a context map into zap fields in stable key order
func contextFields(err error, context map[string]interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(context)+1)

	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, context[k]))
	}

	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	return fields
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.log(zapcore.DebugLevel, message, nil, nil)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(zapcore.DebugLevel, fmt.Sprintf(format, args...), nil, nil)
}

// DebugWithContext logs a debug message with context
func (l *Logger) DebugWithContext(message string, context map[string]interface{}) {
	l.log(zapcore.DebugLevel, message, nil, context)
}

// Info logs an info message
func (l *Logger) Info(message string) {
	l.log(zapcore.InfoLevel, message, nil, nil)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(zapcore.InfoLevel, fmt.Sprintf(format, args...), nil, nil)
}

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(message string, context map[string]interface{}) {
	l.log(zapcore.InfoLevel, message, nil, context)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.log(zapcore.WarnLevel, message, nil, nil)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(zapcore.WarnLevel, fmt.Sprintf(format, args...), nil, nil)
}

// WarnWithContext logs a warning message with context
func (l *Logger) WarnWithContext(message string, context map[string]interface{}) {
	l.log(zapcore.WarnLevel, message, nil, context)
}

// Error logs an error message
func (l *Logger) Error(message string, err error) {
	l.log(zapcore.ErrorLevel, message, err, nil)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(message string, err error, context map[string]interface{}) {
	l.log(zapcore.ErrorLevel, message, err, context)
}

// Fatal logs a fatal error message and exits the process with status 1
func (l *Logger) Fatal(message string, err error) {
	l.log(zapcore.FatalLevel, message, err, nil)
}

// WithContext returns a logger that includes context on every entry
func (l *Logger) WithContext(context map[string]interface{}) *ContextLogger {
	return &ContextLogger{
		logger:  l,
		context: context,
	}
}

// ContextLogger is a logger with pre-set context
type ContextLogger struct {
	logger  *Logger
	context map[string]interface{}
}

// Debug logs a debug message with pre-set context
func (cl *ContextLogger) Debug(message string) {
	cl.logger.log(zapcore.DebugLevel, message, nil, cl.context)
}

// Info logs an info message with pre-set context
func (cl *ContextLogger) Info(message string) {
	cl.logger.log(zapcore.InfoLevel, message, nil, cl.context)
}

// Infof logs a formatted info message with pre-set context
func (cl *ContextLogger) Infof(format string, args ...interface{}) {
	cl.logger.log(zapcore.InfoLevel, fmt.Sprintf(format, args...), nil, cl.context)
}

// Warn logs a warning message with pre-set context
func (cl *ContextLogger) Warn(message string) {
	cl.logger.log(zapcore.WarnLevel, message, nil, cl.context)
}

// Error logs an error message with pre-set context
func (cl *ContextLogger) Error(message string, err error) {
	cl.logger.log(zapcore.ErrorLevel, message, err, cl.context)
}
