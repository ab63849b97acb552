package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/soocke/screen-capture-go/app"
	"github.com/soocke/screen-capture-go/config"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to JSON configuration")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		// Fall back to defaults but make the bad file visible.
		NewLogger(slog.LevelInfo).Warn("config load failed, using defaults", "path", *cfgPath, "error", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level)

	application := app.NewApp(cfg, logger)
	if err := application.Start(); err != nil {
		logger.Error("capture app failed", "error", err)
		os.Exit(1)
	}
}
