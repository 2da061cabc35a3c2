package config

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Logger builds the root logger described by log_level and log_format.
// Unknown levels fall back to info.
func (c *Config) Logger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "storyteller",
		Level:           level,
	})
	switch strings.ToLower(c.LogFormat) {
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	}
	return logger
}
