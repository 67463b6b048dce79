package contract

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. Components accept an injected
// *logrus.Logger and fall back to this one.
var Logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: DateTimeFormat,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// LoggerOrDefault returns l, or the process-wide logger when l is nil.
func LoggerOrDefault(l *logrus.Logger) *logrus.Logger {
	if l == nil {
		return Logger
	}
	return l
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	Logger.WithError(err).Error(msg)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	Logger.WithError(err).Warn(msg)
}
