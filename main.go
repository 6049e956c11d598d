package main

import (
	"embed"
	"fmt"
	"log"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
)

//go:embed all:frontend/dist
var assets embed.FS

//go:embed build/appicon.png
var icon []byte

func main() {
	prepareEnvironment()

	// Console logging until the data directory is known
	bootLog := logger.NewDefaultLogger()

	configPath, err := defaultConfigPath()
	if err != nil {
		log.Fatalf("Failed to locate REM2 configuration: %v", err)
	}

	config := NewConfigManager(configPath, bootLog)
	if err := config.Load(); err != nil {
		bootLog.Warning(fmt.Sprintf("Failed to create default config: %v", err))
	}

	appLog := newAppLogger(config.DataDir())
	config.SetLogger(appLog)

	// Create an instance of the app structure
	app := NewApp(config, appLog, isDevMode(os.Getenv))

	if err := wails.Run(createAppOptions(app, assets, icon)); err != nil {
		log.Fatalf("Failed to start REM2 application: %v", err)
	}
}
