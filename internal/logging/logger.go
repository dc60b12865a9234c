package logging

import (
	"io"
	"os"

	"github.com/sanye891/next-dashboard/internal/config"

	"github.com/sirupsen/logrus"
)

// New builds the application logger from config. An unparsable level falls
// back to info; a log file, when configured, is written in addition to stdout.
func New(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Warnf("open log file %s: %v, logging to stdout only", cfg.File, err)
		} else {
			logger.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	return logger
}
