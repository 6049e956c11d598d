package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

// Frontend event names
const (
	EventWindowResized = "window:resized"
	EventAppActivate   = "app:activate"
	EventPing          = "ping"
)

// ShutdownFlushTimeout bounds how long shutdown waits for pending size writes.
const ShutdownFlushTimeout = 2 * time.Second

// Window open actions returned to the frontend
const (
	WindowOpenDeny = "deny"
)

// WindowOpenResult tells the frontend what happened to a new-window request.
type WindowOpenResult struct {
	Action string `json:"action"`
	Opened bool   `json:"opened"`
}

// WindowManager creates the main window and keeps its size persisted.
type WindowManager struct {
	host  windowHost
	sizes sizeStore
	queue *persistQueue
	ratio float64
	log   logger.Logger
	state windowState

	mutex      sync.Mutex
	ctx        context.Context
	listeners  []func()
	registered bool
	lastSize   WindowSize
}

// NewWindowManager wires the window manager to its collaborators.
func NewWindowManager(host windowHost, sizes sizeStore, queue *persistQueue, ratio float64, log logger.Logger) *WindowManager {
	return &WindowManager{
		host:  host,
		sizes: sizes,
		queue: queue,
		ratio: ratio,
		log:   log,
	}
}

// Phase reports the window lifecycle phase.
func (wm *WindowManager) Phase() WindowPhase {
	return wm.state.Phase()
}

// LastSize returns the most recent size applied or observed.
func (wm *WindowManager) LastSize() WindowSize {
	wm.mutex.Lock()
	defer wm.mutex.Unlock()
	return wm.lastSize
}

// Bootstrap resolves the initial size and prepares the hidden window. A
// failing size lookup falls back to the computed default so the window is
// always created.
func (wm *WindowManager) Bootstrap(ctx context.Context) error {
	if err := wm.state.Transition(PhaseHiddenLoading); err != nil {
		return err
	}

	wm.mutex.Lock()
	wm.ctx = ctx
	wm.mutex.Unlock()

	display := wm.primaryDisplay(ctx)
	size, err := wm.sizes.GetSize(display)
	if err != nil {
		size = DefaultSize(display, wm.ratio)
		wm.log.Error(fmt.Sprintf("Failed to resolve window size, using default %dx%d: %v", size.Width, size.Height, err))
	}

	wm.host.SetSize(ctx, size.Width, size.Height)
	wm.host.Center(ctx)
	wm.log.Info(fmt.Sprintf("Initial window size set to: %d x %d", size.Width, size.Height))

	wm.mutex.Lock()
	wm.lastSize = size
	wm.mutex.Unlock()

	wm.registerListeners(ctx)
	return nil
}

// ContentReady shows the window the first time its content is ready.
func (wm *WindowManager) ContentReady(ctx context.Context) {
	if wm.state.Phase() != PhaseHiddenLoading {
		return
	}
	if err := wm.state.Transition(PhaseVisible); err != nil {
		wm.log.Warning(err.Error())
		return
	}
	wm.host.Show(ctx)
	wm.log.Debug("Window content ready, window shown")
}

// HandleResize reads the current window size and hands it to the persist
// queue without waiting for the write.
func (wm *WindowManager) HandleResize(optionalData ...interface{}) {
	phase := wm.state.Phase()
	if phase != PhaseHiddenLoading && phase != PhaseVisible {
		wm.log.Trace(fmt.Sprintf("Resize event ignored in phase %s", phase))
		return
	}

	ctx := wm.context()
	if ctx == nil {
		return
	}

	width, height := wm.host.Size(ctx)
	if width <= 0 || height <= 0 {
		wm.log.Debug(fmt.Sprintf("Resize event with invalid dimensions %dx%d ignored", width, height))
		return
	}

	size := WindowSize{Width: width, Height: height}
	wm.mutex.Lock()
	changed := wm.lastSize != size
	wm.lastSize = size
	wm.mutex.Unlock()

	if changed {
		wm.log.Debug(fmt.Sprintf("Window dimensions updated to %dx%d", width, height))
	}
	wm.queue.Submit(size)
}

// BeforeClose captures the final size and marks the window closed. It only
// runs for a quit: on macOS the close button hides the app without reaching
// here. The quit is never prevented.
func (wm *WindowManager) BeforeClose(ctx context.Context) bool {
	phase := wm.state.Phase()
	if phase == PhaseClosed || phase == PhaseUninitialized {
		return false
	}

	wm.captureFinalSize(ctx)

	if err := wm.state.Transition(PhaseClosed); err != nil {
		wm.log.Warning(err.Error())
	}
	wm.log.Info("Window closed, quitting")
	return false
}

// Activate brings the window to the front. The window keeps its size while
// hidden, so nothing is read back from the size store.
func (wm *WindowManager) Activate() {
	ctx := wm.context()
	if ctx == nil {
		return
	}

	switch phase := wm.state.Phase(); phase {
	case PhaseVisible:
		wm.host.Show(ctx)
		wm.log.Debug("Window activated")
	default:
		wm.log.Debug(fmt.Sprintf("Activation ignored in phase %s", phase))
	}
}

// OpenExternal sends a new-window request to the system handler. In-app
// navigation is always denied.
func (wm *WindowManager) OpenExternal(rawURL string) WindowOpenResult {
	result := WindowOpenResult{Action: WindowOpenDeny}

	if !isExternalURL(rawURL) {
		wm.log.Warning(fmt.Sprintf("Refusing to open %q externally", rawURL))
		return result
	}

	ctx := wm.context()
	if ctx == nil {
		return result
	}

	wm.host.OpenURL(ctx, rawURL)
	result.Opened = true
	wm.log.Debug(fmt.Sprintf("Opened %s in the system handler", rawURL))
	return result
}

// Shutdown waits for pending size writes and stops listening for events.
func (wm *WindowManager) Shutdown(ctx context.Context) {
	wm.mutex.Lock()
	listeners := wm.listeners
	wm.listeners = nil
	wm.mutex.Unlock()

	for _, cancel := range listeners {
		cancel()
	}

	flushCtx, cancel := context.WithTimeout(ctx, ShutdownFlushTimeout)
	defer cancel()
	if err := wm.queue.Flush(flushCtx); err != nil {
		wm.log.Warning(fmt.Sprintf("Pending window size writes not flushed: %v", err))
	}
	wm.queue.Close()
}

// registerListeners subscribes to frontend events once per process.
func (wm *WindowManager) registerListeners(ctx context.Context) {
	wm.mutex.Lock()
	defer wm.mutex.Unlock()

	if wm.registered {
		return
	}
	wm.registered = true

	wm.listeners = append(wm.listeners,
		wm.host.On(ctx, EventWindowResized, wm.HandleResize),
		wm.host.On(ctx, EventAppActivate, func(...interface{}) { wm.Activate() }),
	)
	wm.log.Debug("Registered listeners for window events")
}

// primaryDisplay returns the primary screen bounds, the first screen when
// none is flagged primary, and zero bounds when screens are unavailable.
func (wm *WindowManager) primaryDisplay(ctx context.Context) DisplayBounds {
	displays, err := wm.host.Displays(ctx)
	if err != nil {
		wm.log.Warning(fmt.Sprintf("Failed to query displays: %v", err))
		return DisplayBounds{}
	}
	for _, display := range displays {
		if display.Primary {
			return display.Bounds
		}
	}
	if len(displays) > 0 {
		return displays[0].Bounds
	}
	return DisplayBounds{}
}

// captureFinalSize queues the size at close time. Runtime calls can panic
// while the window is being torn down.
func (wm *WindowManager) captureFinalSize(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			wm.log.Warning(fmt.Sprintf("Recovered from panic during WindowGetSize in close: %v", r))
		}
	}()

	width, height := wm.host.Size(ctx)
	if width <= 0 || height <= 0 {
		return
	}
	size := WindowSize{Width: width, Height: height}

	wm.mutex.Lock()
	changed := wm.lastSize != size
	wm.lastSize = size
	wm.mutex.Unlock()

	if changed {
		wm.log.Debug(fmt.Sprintf("Final window size captured: %dx%d", width, height))
		wm.queue.Submit(size)
	}
}

func (wm *WindowManager) context() context.Context {
	wm.mutex.Lock()
	defer wm.mutex.Unlock()
	return wm.ctx
}

// isExternalURL accepts web and mail links only.
func isExternalURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "mailto":
		return u.Opaque != ""
	default:
		return false
	}
}
