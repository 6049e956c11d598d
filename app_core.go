package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
)

// SingleInstanceID identifies the process-exclusive app instance.
const SingleInstanceID = "com.reallygoodbaker.rem2"

// App struct
type App struct {
	ctx     context.Context
	config  *ConfigManager
	log     logger.Logger
	host    windowHost
	db      *Datastore
	window  *WindowManager
	watcher *ConfigWatcher
	policy  lifecyclePolicy
	dev     bool
	mutex   sync.Mutex
}

// NewApp opens the size store and builds the window manager on top of the
// Wails runtime.
func NewApp(config *ConfigManager, log logger.Logger, dev bool) *App {
	return newApp(config, log, dev, wailsHost{})
}

func newApp(config *ConfigManager, log logger.Logger, dev bool, host windowHost) *App {
	ratio := config.Config().DefaultSizeRatio

	var sizes sizeStore
	db, err := OpenDatastore(filepath.Join(config.DataDir(), SizeDBFile), DatastoreOptions{})
	if err != nil {
		// The window still opens at the computed default; nothing is persisted.
		log.Error(fmt.Sprintf("Failed to open size store: %v", err))
		sizes = unavailableSizeStore{err: err}
	} else {
		log.Info(fmt.Sprintf("Size store loaded from %s", db.Path()))
		sizes = NewSizeStore(db, ratio, log)
	}
	queue := newPersistQueue(sizes, log, CompactionDelay)

	return &App{
		config: config,
		log:    log,
		host:   host,
		db:     db,
		window: NewWindowManager(host, sizes, queue, ratio, log),
		policy: currentLifecyclePolicy(),
		dev:    dev,
	}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.mutex.Lock()
	a.ctx = ctx
	a.mutex.Unlock()

	a.host.SetLogLevel(ctx, a.config.LogLevel(a.dev))

	if err := a.window.Bootstrap(ctx); err != nil {
		a.log.Error(fmt.Sprintf("Failed to bootstrap window: %v", err))
	}

	a.host.On(ctx, EventPing, a.handlePing)

	watcher, err := StartConfigWatcher(a.config, a.log, a.applyConfig)
	if err != nil {
		a.log.Warning(fmt.Sprintf("Config changes will not be picked up: %v", err))
		return
	}
	a.mutex.Lock()
	a.watcher = watcher
	a.mutex.Unlock()
}

// domReady is the one-shot signal that the content can be shown.
func (a *App) domReady(ctx context.Context) {
	a.window.ContentReady(ctx)
}

// beforeClose runs when the app is about to quit.
func (a *App) beforeClose(ctx context.Context) bool {
	return a.window.BeforeClose(ctx)
}

// shutdown is called during application shutdown
func (a *App) shutdown(ctx context.Context) {
	a.log.Info("Shutdown initiated...")

	a.mutex.Lock()
	watcher := a.watcher
	a.watcher = nil
	a.mutex.Unlock()
	if watcher != nil {
		watcher.Stop()
	}

	a.window.Shutdown(ctx)

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warning(fmt.Sprintf("Failed to close size store: %v", err))
		}
	}

	a.log.Info("Shutdown completed.")
}

// secondInstance treats a relaunch as an activation of the running app.
func (a *App) secondInstance(data options.SecondInstanceData) {
	a.log.Debug(fmt.Sprintf("Second instance launched from %s", data.WorkingDirectory))
	a.window.Activate()
}

// applyConfig takes over settings that can change while running.
func (a *App) applyConfig(config AppConfig) {
	a.mutex.Lock()
	ctx := a.ctx
	a.mutex.Unlock()
	if ctx == nil {
		return
	}

	a.host.SetLogLevel(ctx, a.config.LogLevel(a.dev))

	name := config.LogLevel
	if name == "" {
		name = "default"
	}
	a.log.Info(fmt.Sprintf("Config reloaded, log level %s", name))
}

// OpenExternal handles a request from the content to open a new window.
func (a *App) OpenExternal(url string) WindowOpenResult {
	return a.window.OpenExternal(url)
}

// Activate brings the window back to the front.
func (a *App) Activate() {
	a.window.Activate()
}

// GetWindowPhase returns the window lifecycle phase.
func (a *App) GetWindowPhase() string {
	return a.window.Phase().String()
}

// linuxGpuPolicy returns the appropriate GPU policy for the current display server.
// On XWayland (Wayland session forced to X11), GPU compositing causes GBM buffer failures,
// so software rendering is used.
func linuxGpuPolicy() linux.WebviewGpuPolicy {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return linux.WebviewGpuPolicyNever
	}
	return linux.WebviewGpuPolicyOnDemand
}

// createAppOptions creates the Wails application options: one frameless
// window without a menu, hidden until its content is ready. icon is only
// used on Linux; the other platforms take it from the app bundle.
func createAppOptions(app *App, assets fs.FS, icon []byte) *options.App {
	config := app.config.Config()

	return &options.App{
		Title:             AppTitle,
		Width:             1024,
		Height:            768,
		MinWidth:          config.MinWidth,
		MinHeight:         config.MinHeight,
		Frameless:         true,
		StartHidden:       true,
		AssetServer:       contentOptions(assets, app.config.RendererURL(), app.dev, app.log),
		BackgroundColour:  &options.RGBA{R: 255, G: 255, B: 255, A: 1},
		OnStartup:         app.startup,
		OnDomReady:        app.domReady,
		OnBeforeClose:     app.beforeClose,
		OnShutdown:        app.shutdown,
		HideWindowOnClose: app.policy.HideWindowOnClose(),
		Bind: []interface{}{
			app,
		},
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId:               SingleInstanceID,
			OnSecondInstanceLaunch: app.secondInstance,
		},
		Logger:             app.log,
		LogLevel:           app.config.LogLevel(app.dev),
		LogLevelProduction: app.config.LogLevel(false),
		// The inspector stays closed until F12 or the context menu opens it.
		EnableDefaultContextMenu: app.dev,
		Debug: options.Debug{
			OpenInspectorOnStartup: false,
		},
		Mac: &mac.Options{
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			About: &mac.AboutInfo{
				Title:   AppTitle,
				Message: "Window size is remembered between launches",
			},
		},
		Windows: &windows.Options{
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			DisableWindowIcon:    false,
		},
		Linux: &linux.Options{
			Icon:             icon,
			ProgramName:      AppName,
			WebviewGpuPolicy: linuxGpuPolicy(),
		},
	}
}
