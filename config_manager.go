package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/logger"
	"gopkg.in/yaml.v2"
)

// ConfigManager loads, saves and hands out the application configuration.
type ConfigManager struct {
	path   string
	log    logger.Logger
	getenv func(string) string

	mutex  sync.RWMutex
	config *AppConfig
}

// NewConfigManager creates a manager for the config file at path.
func NewConfigManager(path string, log logger.Logger) *ConfigManager {
	return &ConfigManager{
		path:   path,
		log:    log,
		getenv: os.Getenv,
		config: DefaultConfig(),
	}
}

// defaultConfigPath returns <user config dir>/rem2/config.yaml
func defaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, ConfigDirName, ConfigFileName), nil
}

// SetLogger switches the logger once the application log is available.
func (cm *ConfigManager) SetLogger(log logger.Logger) {
	cm.mutex.Lock()
	cm.log = log
	cm.mutex.Unlock()
}

// Path returns the config file location.
func (cm *ConfigManager) Path() string {
	return cm.path
}

// Load reads the config file. A missing file is created with defaults; an
// unreadable or invalid file leaves the defaults in place.
func (cm *ConfigManager) Load() error {
	if err := os.MkdirAll(filepath.Dir(cm.path), ConfigDirMode); err != nil {
		cm.logger().Warning(fmt.Sprintf("Failed to create config directory %s: %v. Using default config.", filepath.Dir(cm.path), err))
		return nil
	}

	if _, err := os.Stat(cm.path); os.IsNotExist(err) {
		cm.logger().Info(fmt.Sprintf("Config file not found at %s - creating with default values.", cm.path))
		return cm.Save()
	}

	data, err := os.ReadFile(cm.path)
	if err != nil {
		cm.logger().Warning(fmt.Sprintf("Failed to read config file %s: %v. Using default config.", cm.path, err))
		return nil
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		cm.logger().Warning(fmt.Sprintf("Failed to parse config file %s: %v. Using default config.", cm.path, err))
		cm.set(DefaultConfig())
		return nil
	}

	if err := config.Validate(); err != nil {
		cm.logger().Warning(fmt.Sprintf("Invalid config file %s: %v. Using default config.", cm.path, err))
		cm.set(DefaultConfig())
		return nil
	}

	cm.set(config)
	cm.logger().Info(fmt.Sprintf("Config loaded successfully from %s", cm.path))
	return nil
}

// Save writes the current configuration to disk.
func (cm *ConfigManager) Save() error {
	cm.mutex.RLock()
	data, err := yaml.Marshal(cm.config)
	cm.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cm.path), ConfigDirMode); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", filepath.Dir(cm.path), err)
	}

	if err := os.WriteFile(cm.path, data, ConfigFileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", cm.path, err)
	}
	return nil
}

// Config returns a copy of the current configuration.
func (cm *ConfigManager) Config() AppConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return *cm.config
}

// DataDir returns the directory holding system.db.
func (cm *ConfigManager) DataDir() string {
	if dir := cm.Config().DataDir; dir != "" {
		return dir
	}
	return filepath.Join(filepath.Dir(cm.path), DataDirName)
}

// RendererURL returns the development content URL, preferring the environment.
func (cm *ConfigManager) RendererURL() string {
	if env := cm.getenv(RendererEnv); env != "" {
		return env
	}
	return cm.Config().RendererURL
}

// LogLevel returns the configured level, falling back to the build default.
func (cm *ConfigManager) LogLevel(dev bool) logger.LogLevel {
	if raw := cm.Config().LogLevel; raw != "" {
		if level, err := parseLogLevel(raw); err == nil {
			return level
		}
	}
	if dev {
		return logger.DEBUG
	}
	return logger.INFO
}

func (cm *ConfigManager) set(config *AppConfig) {
	cm.mutex.Lock()
	cm.config = config
	cm.mutex.Unlock()
}

func (cm *ConfigManager) logger() logger.Logger {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.log
}
