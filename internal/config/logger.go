package config

import (
    "os"
    "strings"

    "github.com/sirupsen/logrus"
)

// NewLogger builds the process-wide logger from LOG_LEVEL and LOG_FORMAT.
// Unknown levels fall back to info.
func NewLogger(cfg Config) *logrus.Logger {
    logger := logrus.New()
    logger.SetOutput(os.Stdout)
    level, err := logrus.ParseLevel(cfg.LogLevel)
    if err != nil {
        level = logrus.InfoLevel
    }
    logger.SetLevel(level)
    if strings.EqualFold(cfg.LogFormat, "text") {
        logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
    } else {
        logger.SetFormatter(&logrus.JSONFormatter{})
    }
    return logger
}
