package main

import (
	"fmt"
	"io/fs"
	"net/http/httputil"

	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

// devModeEnv is set by the Wails dev tooling.
const devModeEnv = "WAILS_DEV"

// isDevMode reports whether the process runs as a development build.
func isDevMode(getenv func(string) string) bool {
	return getenv(devModeEnv) != "" || isDevBuild(Version)
}

// contentOptions serves the window content. A dev build with a renderer URL
// proxies every request to that URL; anything else serves the bundled files.
func contentOptions(assets fs.FS, rendererURL string, dev bool, log logger.Logger) *assetserver.Options {
	if dev && rendererURL != "" {
		target, err := parseRendererURL(rendererURL)
		if err == nil {
			log.Info(fmt.Sprintf("Loading content from development server %s", target))
			return &assetserver.Options{
				Handler: httputil.NewSingleHostReverseProxy(target),
			}
		}
		log.Warning(fmt.Sprintf("Ignoring renderer url: %v. Loading bundled content.", err))
	}

	return &assetserver.Options{
		Assets: assets,
	}
}
