package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

// parseLogLevel maps a config value to a Wails log level.
func parseLogLevel(raw string) (logger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return logger.TRACE, nil
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level '%s'. Allowed levels are: %v", raw, AllowedLogLevels)
	}
}

// newAppLogger logs to <dataDir>/rem2.log, or to the console when the
// directory cannot be created.
func newAppLogger(dataDir string) logger.Logger {
	if err := os.MkdirAll(dataDir, DatastoreDirMode); err != nil {
		fallback := logger.NewDefaultLogger()
		fallback.Warning(fmt.Sprintf("Failed to create log directory %s: %v. Logging to console.", dataDir, err))
		return fallback
	}
	return logger.NewFileLogger(filepath.Join(dataDir, LogFileName))
}
