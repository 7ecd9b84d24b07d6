// Package logger is the process-wide printf-style logger backed by logrus.
//
// Calls take the form logger.Info("[Component] message %s", arg). The X
// variants tag the entry with a module field so log lines from one service
// can be filtered together.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

const moduleField = "module"

var (
	mu      sync.Mutex
	std     = newDefault()
	logFile *os.File
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Options controls how InitLog configures the logger.
type Options struct {
	Level  string
	Format string // "text" or "json"
	Stderr bool   // also write to stderr when a file is configured
}

// Option mutates Options.
type Option func(*Options)

// WithLevel sets the minimum level (debug, info, warn, error).
func WithLevel(level string) Option {
	return func(o *Options) { o.Level = level }
}

// WithFormat selects the "text" or "json" formatter.
func WithFormat(format string) Option {
	return func(o *Options) { o.Format = format }
}

// WithStderr mirrors file output to stderr.
func WithStderr(enabled bool) Option {
	return func(o *Options) { o.Stderr = enabled }
}

// InitLog points the logger at path. An empty path keeps stderr only.
func InitLog(path string, opts ...Option) error {
	o := &Options{Level: "info", Format: "text", Stderr: true}
	for _, opt := range opts {
		opt(o)
	}

	mu.Lock()
	defer mu.Unlock()

	if err := setLevelLocked(o.Level); err != nil {
		return err
	}
	if o.Format == "json" {
		std.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	}

	if path == "" {
		std.SetOutput(os.Stderr)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %q: %w", path, err)
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f

	var out io.Writer = f
	if o.Stderr {
		out = io.MultiWriter(os.Stderr, f)
	}
	std.SetOutput(out)
	return nil
}

// FlushLog syncs and closes the log file opened by InitLog.
func FlushLog() {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return
	}
	_ = logFile.Sync()
	_ = logFile.Close()
	logFile = nil
	std.SetOutput(os.Stderr)
}

// SetLevel changes the minimum level at runtime.
func SetLevel(level string) error {
	mu.Lock()
	defer mu.Unlock()
	return setLevelLocked(level)
}

func setLevelLocked(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	std.SetLevel(lvl)
	return nil
}

// SetOutput redirects log output, mostly useful in tests.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Writer returns a writer that logs each line at info level.
func Writer() *io.PipeWriter {
	return std.Writer()
}

func Debug(format string, args ...interface{}) { std.Debugf(format, args...) }
func Info(format string, args ...interface{})  { std.Infof(format, args...) }
func Warn(format string, args ...interface{})  { std.Warnf(format, args...) }
func Error(format string, args ...interface{}) { std.Errorf(format, args...) }

func DebugX(module, format string, args ...interface{}) {
	std.WithField(moduleField, module).Debugf(format, args...)
}

func InfoX(module, format string, args ...interface{}) {
	std.WithField(moduleField, module).Infof(format, args...)
}

func WarnX(module, format string, args ...interface{}) {
	std.WithField(moduleField, module).Warnf(format, args...)
}

func ErrorX(module, format string, args ...interface{}) {
	std.WithField(moduleField, module).Errorf(format, args...)
}
