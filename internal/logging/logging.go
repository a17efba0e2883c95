package logging

import (
	"os"
	"strings"

	"github.com/pion/logging"
	log "github.com/sirupsen/logrus"
)

// New builds the logrus logger for a binary. The level comes from the
// LOG_LEVEL environment variable unless a non-empty override is given.
func New(level string) *log.Logger {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}

	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(parseLevel(level))
	return logger
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "dev", "development", "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error", "prod", "production":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewPionFactory adapts a logrus logger into pion's LoggerFactory so the
// webrtc stack logs through the same sink as everything else.
func NewPionFactory(logger *log.Logger) logging.LoggerFactory {
	return &pionFactory{logger: logger}
}

type pionFactory struct {
	logger *log.Logger
}

func (f *pionFactory) NewLogger(scope string) logging.LeveledLogger {
	return &pionLogger{entry: f.logger.WithField("pion", scope)}
}

type pionLogger struct {
	entry *log.Entry
}

func (l *pionLogger) Trace(msg string)                  { l.entry.Trace(msg) }
func (l *pionLogger) Tracef(format string, args ...any) { l.entry.Tracef(format, args...) }
func (l *pionLogger) Debug(msg string)                  { l.entry.Debug(msg) }
func (l *pionLogger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *pionLogger) Info(msg string)                   { l.entry.Info(msg) }
func (l *pionLogger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *pionLogger) Warn(msg string)                   { l.entry.Warn(msg) }
func (l *pionLogger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *pionLogger) Error(msg string)                  { l.entry.Error(msg) }
func (l *pionLogger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }
