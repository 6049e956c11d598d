package main

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/logger"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// Display describes one attached screen.
type Display struct {
	Bounds  DisplayBounds
	Primary bool
}

// windowHost is the slice of the host runtime the window manager drives.
type windowHost interface {
	Displays(ctx context.Context) ([]Display, error)
	SetSize(ctx context.Context, width, height int)
	Size(ctx context.Context) (int, int)
	Center(ctx context.Context)
	Show(ctx context.Context)
	OpenURL(ctx context.Context, url string)
	On(ctx context.Context, event string, callback func(optionalData ...interface{})) func()
	SetLogLevel(ctx context.Context, level logger.LogLevel)
}

// wailsHost forwards to the Wails runtime. The context must be the one
// handed to OnStartup.
type wailsHost struct{}

func (wailsHost) Displays(ctx context.Context) ([]Display, error) {
	screens, err := wailsRuntime.ScreenGetAll(ctx)
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(screens))
	for _, screen := range screens {
		displays = append(displays, Display{
			Bounds:  DisplayBounds{Width: screen.Size.Width, Height: screen.Size.Height},
			Primary: screen.IsPrimary,
		})
	}
	return displays, nil
}

func (wailsHost) SetSize(ctx context.Context, width, height int) {
	wailsRuntime.WindowSetSize(ctx, width, height)
}

func (wailsHost) Size(ctx context.Context) (int, int) {
	return wailsRuntime.WindowGetSize(ctx)
}

func (wailsHost) Center(ctx context.Context) {
	wailsRuntime.WindowCenter(ctx)
}

// Show also unhides the application, which macOS hides when the window is
// closed.
func (wailsHost) Show(ctx context.Context) {
	wailsRuntime.Show(ctx)
	wailsRuntime.WindowShow(ctx)
}

func (wailsHost) OpenURL(ctx context.Context, url string) {
	wailsRuntime.BrowserOpenURL(ctx, url)
}

func (wailsHost) On(ctx context.Context, event string, callback func(optionalData ...interface{})) func() {
	return wailsRuntime.EventsOn(ctx, event, callback)
}

func (wailsHost) SetLogLevel(ctx context.Context, level logger.LogLevel) {
	wailsRuntime.LogSetLogLevel(ctx, level)
}
