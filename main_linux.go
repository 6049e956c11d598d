//go:build linux

package main

import (
	"fmt"
	"os"
)

// prepareEnvironment handles Wayland compatibility before GTK initializes.
// WebKit2GTK has known issues on non-GNOME Wayland compositors, so XWayland
// is forced unless the user picked a GDK backend.
func prepareEnvironment() {
	if os.Getenv("WAYLAND_DISPLAY") != "" && os.Getenv("GDK_BACKEND") == "" {
		os.Setenv("GDK_BACKEND", "x11")
		fmt.Println("Wayland detected: using XWayland (GDK_BACKEND=x11) for WebKit2GTK compatibility")
	}
}
