package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"stock-dashboard/src/models"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// -----------------------------------------------------------------------------

// base is shared by every component logger so level and outputs are set once.
var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return l
}

// -----------------------------------------------------------------------------

// Configure applies level and outputs from the application config.
// A log_file path adds a rotating file next to stdout.
func Configure(cfg *models.MConfig) {
	if cfg == nil {
		return
	}

	base.SetLevel(ParseLevel(cfg.LogLevel))

	if cfg.LogFile.Path == "" {
		base.SetOutput(os.Stdout)
		return
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.LogFile.Path,
		MaxSize:    cfg.LogFile.MaxSizeMB,
		MaxBackups: cfg.LogFile.MaxBackups,
		MaxAge:     cfg.LogFile.MaxAgeDays,
		Compress:   true,
	}
	base.SetOutput(io.MultiWriter(os.Stdout, rotating))
}

// SetOutput redirects all component loggers (tests use it to capture output).
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// ParseLevel maps the config spelling (DEBUG, INFO, WARNING, ERROR) to a logrus level.
func ParseLevel(level string) logrus.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return logrus.DebugLevel
	case "WARNING", "WARN":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	case "CRITICAL":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name  string
	entry *logrus.Entry
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance tagged with a component name
func NewLogger(name string) *Logger {
	return &Logger{
		name:  name,
		entry: base.WithField("component", name),
	}
}

// -----------------------------------------------------------------------------

// With returns a child logger carrying an extra field.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{name: l.name, entry: l.entry.WithField(key, value)}
}

// -----------------------------------------------------------------------------

func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debug(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

func (l *Logger) Warning(format string, args ...interface{}) {
	l.entry.Warn(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Info(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Error(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.entry.Fatal(fmt.Sprintf(format, args...))
}
