// Package logger provides named, leveled logging for swarmpeer subsystems.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var root = logrus.New()

// Logger is a per-component logging handle.
type Logger struct {
	entry *logrus.Entry
}

// New returns a Logger tagged with component, e.g. logger.New("scheduler").
func New(component string) *Logger {
	return &Logger{entry: root.WithField("component", component)}
}

// SetLevel parses one of error|warn|info|debug|trace and sets the global
// level. Unknown values fall back to info.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	root.SetLevel(lvl)
}

// SetOutput redirects all logging output.
func SetOutput(w io.Writer) {
	root.SetOutput(w)
}

func init() {
	root.SetOutput(os.Stderr)
	root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func (l *Logger) Trace(args ...interface{})                 { l.entry.Trace(args...) }
func (l *Logger) Tracef(format string, args ...interface{})  { l.entry.Tracef(format, args...) }
func (l *Logger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// WithField returns a derived logger carrying an extra structured field, used
// by subsystems that want to tag a line with e.g. a peer address or file id.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}
