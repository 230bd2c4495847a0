package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

const defaultLevel = logrus.InfoLevel

// Logger is the process-wide structured logger. It emits JSON to stdout and
// honours the LOG_LEVEL environment variable.
var Logger logrus.FieldLogger

func init() {
	Logger = newLogger(os.Getenv("LOG_LEVEL"))
}

func newLogger(level string) logrus.FieldLogger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)
	l.SetLevel(defaultLevel)

	if level == "" {
		return l
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		l.Errorf("unknown LOG_LEVEL %q, staying on %s: %s", level, defaultLevel, err)
		return l
	}

	l.SetLevel(lvl)
	return l
}
