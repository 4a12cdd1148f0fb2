package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// Logger interface defines the logging functionality used by views, providers and middleware.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	WithFields(fields ...Field) Logger
}

// Field creators.
func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Level is the minimum severity a BasicLogger writes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// NoOpLogger is a logger that does nothing, used as a default when no logger is provided.
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(_ string)               {}
func (l *NoOpLogger) Info(_ string)                {}
func (l *NoOpLogger) Warn(_ string)                {}
func (l *NoOpLogger) Error(_ string)               {}
func (l *NoOpLogger) Debugf(_ string, _ ...any)    {}
func (l *NoOpLogger) Infof(_ string, _ ...any)     {}
func (l *NoOpLogger) Warnf(_ string, _ ...any)     {}
func (l *NoOpLogger) Errorf(_ string, _ ...any)    {}
func (l *NoOpLogger) WithFields(_ ...Field) Logger { return l }

// BasicLogger uses the standard library log package for logging.
type BasicLogger struct {
	logger *log.Logger
	level  Level
	fields []Field
}

// NewBasicLogger creates a new BasicLogger that writes every level to stdout.
func NewBasicLogger() Logger {
	return NewLevelLogger(os.Stdout, LevelDebug)
}

// NewLevelLogger creates a BasicLogger writing entries at or above minLevel to w.
func NewLevelLogger(w io.Writer, minLevel Level) Logger {
	return &BasicLogger{
		logger: log.New(w, "", log.LstdFlags),
		level:  minLevel,
		fields: []Field{},
	}
}

func (l *BasicLogger) log(level Level, msg string) {
	if level < l.level {
		return
	}
	if len(l.fields) > 0 {
		fieldStrings := make([]string, len(l.fields))
		for i, f := range l.fields {
			fieldStrings[i] = fmt.Sprintf("%s=%v", f.Key, f.Value)
		}
		l.logger.Printf("%s: %s | %s", level, msg, strings.Join(fieldStrings, " "))
	} else {
		l.logger.Printf("%s: %s", level, msg)
	}
}

func (l *BasicLogger) logf(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	l.log(level, fmt.Sprintf(format, args...))
}

func (l *BasicLogger) Debug(msg string)                  { l.log(LevelDebug, msg) }
func (l *BasicLogger) Info(msg string)                   { l.log(LevelInfo, msg) }
func (l *BasicLogger) Warn(msg string)                   { l.log(LevelWarn, msg) }
func (l *BasicLogger) Error(msg string)                  { l.log(LevelError, msg) }
func (l *BasicLogger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *BasicLogger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *BasicLogger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *BasicLogger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *BasicLogger) WithFields(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	return &BasicLogger{
		logger: l.logger,
		level:  l.level,
		fields: append(merged, fields...),
	}
}
