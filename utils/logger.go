package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// The loggers are usable before InitLogger so packages can log from tests.
var (
	InfoLogger  = newLogger(os.Stdout, logrus.InfoLevel)
	ErrorLogger = newLogger(os.Stderr, logrus.ErrorLevel)
)

func newLogger(out io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(level)
	return l
}

// InitLogger resets both loggers to text output.
func InitLogger() {
	InfoLogger = newLogger(os.Stdout, logrus.InfoLevel)
	ErrorLogger = newLogger(os.Stderr, logrus.ErrorLevel)
}

// UseJSON switches both loggers to the JSON formatter.
func UseJSON() {
	InfoLogger.SetFormatter(&logrus.JSONFormatter{})
	ErrorLogger.SetFormatter(&logrus.JSONFormatter{})
}
