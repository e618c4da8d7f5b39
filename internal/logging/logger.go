package logging

import (
	"io"
	"os"
	"strings"

	"finance-ledger/internal/config"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Production defaults to JSON output so log
// shippers can parse it; everything else gets full-timestamp text.
func New(cfg config.LoggingConfig, environment string) *logrus.Logger {
	return NewWithOutput(cfg, environment, os.Stdout)
}

func NewWithOutput(cfg config.LoggingConfig, environment string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	format := strings.ToLower(cfg.Format)
	if format == "" {
		if environment == "production" {
			format = "json"
		} else {
			format = "text"
		}
	}

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// WithComponent tags every entry with the emitting component.
func WithComponent(logger logrus.FieldLogger, component string) *logrus.Entry {
	return logger.WithField("component", component)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
