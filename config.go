package main

import (
	"fmt"
	"net/url"
)

const (
	AppName     = "rem2"
	AppTitle    = "REM2"
	SizeDBFile  = "system.db"
	LogFileName = "rem2.log"
	DataDirName = "data"
	RendererEnv = "REM2_RENDERER_URL"

	DefaultSizeRatio = 0.8
	DefaultMinWidth  = 400
	DefaultMinHeight = 300
	MaxMinDimension  = 4000
)

// Config file settings
const (
	ConfigDirName  = AppName
	ConfigFileName = "config.yaml"
	ConfigDirMode  = 0755
	ConfigFileMode = 0644
)

// AllowedLogLevels lists the valid log_level values.
var AllowedLogLevels = []string{"trace", "debug", "info", "warning", "error"}

// AppConfig holds the application configuration
type AppConfig struct {
	DataDir          string  `yaml:"data_dir,omitempty"`     // Empty means <config dir>/rem2/data
	DefaultSizeRatio float64 `yaml:"default_size_ratio"`     // Share of the primary display used on first launch
	MinWidth         int     `yaml:"min_width"`              // Smallest window width the host allows
	MinHeight        int     `yaml:"min_height"`             // Smallest window height the host allows
	LogLevel         string  `yaml:"log_level,omitempty"`    // Empty means debug in dev builds, info otherwise
	RendererURL      string  `yaml:"renderer_url,omitempty"` // Development content URL; REM2_RENDERER_URL wins
}

// DefaultConfig returns a new AppConfig with default values
func DefaultConfig() *AppConfig {
	return &AppConfig{
		DefaultSizeRatio: DefaultSizeRatio,
		MinWidth:         DefaultMinWidth,
		MinHeight:        DefaultMinHeight,
	}
}

// Validate checks the configuration for basic validity.
func (c *AppConfig) Validate() error {
	if c.DefaultSizeRatio <= 0 || c.DefaultSizeRatio > 1 {
		return fmt.Errorf("default size ratio %.2f is out of range (0-1]", c.DefaultSizeRatio)
	}
	if c.MinWidth < 0 || c.MinWidth > MaxMinDimension {
		return fmt.Errorf("min width %d is out of range (0-%d)", c.MinWidth, MaxMinDimension)
	}
	if c.MinHeight < 0 || c.MinHeight > MaxMinDimension {
		return fmt.Errorf("min height %d is out of range (0-%d)", c.MinHeight, MaxMinDimension)
	}

	if c.LogLevel != "" {
		if _, err := parseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}

	if c.RendererURL != "" {
		if _, err := parseRendererURL(c.RendererURL); err != nil {
			return err
		}
	}

	if len(c.DataDir) > 1024 {
		return fmt.Errorf("data directory path is too long (max 1024 characters)")
	}

	return nil
}

// parseRendererURL accepts absolute http(s) URLs only.
func parseRendererURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid renderer url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid renderer url %q: must be an absolute http(s) url", raw)
	}
	return u, nil
}
