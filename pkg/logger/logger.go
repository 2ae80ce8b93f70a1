// Package logger provides the structured logger used across the
// subscriber, engine, and notifier packages.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger so callers get WithField/WithFields without
// importing logrus directly.
type Logger struct {
	*logrus.Logger
}

// Config controls level and format for a Logger; output always goes to
// stdout.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New creates a Logger for the named component from cfg. The component
// name is attached to every entry via a logrus hook rather than a field
// passed at each call site.
func New(component string, cfg Config) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	l.SetOutput(os.Stdout)
	l.AddHook(componentHook(component))

	return &Logger{Logger: l}
}

// NewDefault returns a Logger at info level with the given component name
// attached to every entry.
func NewDefault(component string) *Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetOutput(os.Stdout)
	l.AddHook(componentHook(component))
	return &Logger{Logger: l}
}

// componentHook stamps every log entry with a fixed "component" field.
type componentHook string

func (h componentHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h componentHook) Fire(entry *logrus.Entry) error {
	entry.Data["component"] = string(h)
	return nil
}

// WithField returns a new log entry with a field set.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields returns a new log entry with multiple fields set.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}
