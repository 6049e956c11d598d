package main

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/wailsapp/wails/v2/pkg/logger"
)

// Watcher constants
const (
	WatcherDebounce    = 300 * time.Millisecond
	WatcherStopTimeout = 2 * time.Second
)

// ConfigWatcher reloads config.yaml when it changes on disk and reports the
// new configuration to onChange.
type ConfigWatcher struct {
	manager  *ConfigManager
	log      logger.Logger
	onChange func(AppConfig)

	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	doneChan chan struct{}

	debounceMutex sync.Mutex
	debounceTimer *time.Timer
}

// StartConfigWatcher watches the directory holding the config file. The
// directory is watched instead of the file so editors that replace the file
// keep being tracked.
func StartConfigWatcher(manager *ConfigManager, log logger.Logger, onChange func(AppConfig)) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	configDir := filepath.Dir(manager.Path())
	if err := watcher.Add(configDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	cw := &ConfigWatcher{
		manager:  manager,
		log:      log,
		onChange: onChange,
		watcher:  watcher,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}

	go cw.run()

	log.Info(fmt.Sprintf("Config file watcher started for directory: %s", configDir))
	return cw, nil
}

func (cw *ConfigWatcher) run() {
	defer func() {
		if r := recover(); r != nil {
			cw.log.Error(fmt.Sprintf("Config watcher panic recovered: %v", r))
		}
		cw.watcher.Close()
		close(cw.doneChan)
	}()

	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleEvent(event)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Warning(fmt.Sprintf("Config watcher error: %v", err))

		case <-cw.stopChan:
			return
		}
	}
}

// handleEvent reacts to writes and creations of the config file only.
func (cw *ConfigWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(cw.manager.Path()) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	cw.log.Debug(fmt.Sprintf("Config file event: %s %s", event.Op.String(), filepath.Base(event.Name)))

	// Coalesce the bursts of events editors produce on save.
	cw.debounceMutex.Lock()
	defer cw.debounceMutex.Unlock()
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(WatcherDebounce, cw.reload)
}

func (cw *ConfigWatcher) reload() {
	if err := cw.manager.Load(); err != nil {
		cw.log.Warning(fmt.Sprintf("Failed to reload config: %v", err))
		return
	}
	if cw.onChange != nil {
		cw.onChange(cw.manager.Config())
	}
}

// Stop ends the watcher and waits for its goroutine to exit.
func (cw *ConfigWatcher) Stop() {
	cw.debounceMutex.Lock()
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
		cw.debounceTimer = nil
	}
	cw.debounceMutex.Unlock()

	select {
	case <-cw.stopChan:
		return
	default:
		close(cw.stopChan)
	}

	select {
	case <-cw.doneChan:
	case <-time.After(WatcherStopTimeout):
		cw.log.Warning("Config watcher goroutine did not exit in time")
	}
	cw.log.Info("Config file watcher stopped")
}
