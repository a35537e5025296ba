package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

// Fields carries structured context for a log line.
type Fields = logrus.Fields

var (
	logger    = newLogger()
	envLevel  LogLevel
	levelOnce sync.Once
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})
	return l
}

// initLevel initializes the log level from environment variables
func initLevel() {
	levelOnce.Do(func() {
		envLevel = parseEnvLevel(os.Getenv("DEBUG"), os.Getenv("LOG_LEVEL"))
		logger.SetLevel(envLevel.logrus())
	})
}

// parseEnvLevel resolves the DEBUG and LOG_LEVEL values. A truthy DEBUG wins.
func parseEnvLevel(debug, level string) LogLevel {
	switch strings.ToLower(debug) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}

	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func fromLogrus(l logrus.Level) LogLevel {
	switch {
	case l >= logrus.DebugLevel:
		return LevelDebug
	case l == logrus.InfoLevel:
		return LevelInfo
	case l == logrus.WarnLevel:
		return LevelWarn
	default:
		return LevelError
	}
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLevel()
	return fromLogrus(logger.GetLevel())
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

// SetDebugMode raises the level to debug when enabled and restores the
// environment-derived level otherwise. It backs the persisted debugMode flag.
func SetDebugMode(enabled bool) {
	initLevel()
	if enabled {
		logger.SetLevel(logrus.DebugLevel)
		return
	}
	logger.SetLevel(envLevel.logrus())
}

// Logger exposes the underlying logrus logger, e.g. for redirecting output in tests.
func Logger() *logrus.Logger {
	initLevel()
	return logger
}

// Entry is a log line builder carrying structured fields.
type Entry struct {
	e *logrus.Entry
}

// With returns an entry that attaches fields to every message.
func With(fields Fields) Entry {
	initLevel()
	return Entry{e: logger.WithFields(fields)}
}

// WithError is shorthand for With(Fields{"error": err}).
func (en Entry) WithError(err error) Entry {
	return Entry{e: en.e.WithError(err)}
}

// Debug logs a debug message with the entry's fields.
func (en Entry) Debug(format string, args ...interface{}) { en.e.Debugf(format, args...) }

// Info logs an info message with the entry's fields.
func (en Entry) Info(format string, args ...interface{}) { en.e.Infof(format, args...) }

// Warn logs a warning with the entry's fields.
func (en Entry) Warn(format string, args ...interface{}) { en.e.Warnf(format, args...) }

// Error logs an error with the entry's fields.
func (en Entry) Error(format string, args ...interface{}) { en.e.Errorf(format, args...) }

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	initLevel()
	logger.Debugf(format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	initLevel()
	logger.Infof(format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	initLevel()
	logger.Warnf(format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	initLevel()
	logger.Errorf(format, args...)
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	initLevel()
	logger.Fatalf(format, args...)
}

// Printf writes a message regardless of level, without decoration.
func Printf(format string, args ...interface{}) {
	fmt.Fprintf(logger.Out, format+"\n", args...)
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
