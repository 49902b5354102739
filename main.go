package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/helix/pkg/editor"
	"github.com/chazu/helix/pkg/settings"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	configPath := flag.String("config", os.Getenv("HELIX_CONFIG"), "YAML settings file")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	s, err := loadSettings(*configPath)
	if err != nil {
		logrus.Fatalf("helix: %v", err)
	}
	logrus.SetLevel(s.LogLevel)
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	ed, err := editor.Open(context.Background(), s)
	if err != nil {
		logrus.Fatalf("helix: %v", err)
	}
	app := NewApp(ed)

	err = wails.Run(&options.App{
		Title:  "Helix Tower Designer",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 240, G: 244, B: 248, A: 1},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		logrus.Fatalf("helix: %v", err)
	}
}

// loadSettings reads the settings file and environment, logging every
// problem. Any problem is fatal so a typo never silently starts the app
// with defaults.
func loadSettings(path string) (*settings.Settings, error) {
	s, errs := settings.Load(path)
	if s == nil {
		return nil, errs[0]
	}
	for _, err := range errs {
		logrus.Errorf("helix: settings: %v", err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid settings: %w", errors.Join(errs...))
	}
	return s, nil
}
