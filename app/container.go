package app

import (
	"log/slog"
	"time"

	"github.com/soocke/screen-capture-go/config"
	"github.com/soocke/screen-capture-go/domain/capture"
)

// Container assembles the capture session and its built-in subscriber.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Session *capture.Session
	Watcher *Watcher
}

// BuildContainer constructs all components against the platform backend.
// No capture starts here; App.Start wires subscriptions and runs the session.
func BuildContainer(cfg *config.Config, logger *slog.Logger) *Container {
	session := capture.NewSession(logger, capture.DefaultBackend(), capture.Options{
		AdapterIndex:   cfg.AdapterIndex,
		OutputIndex:    cfg.OutputIndex,
		AcquireTimeout: time.Duration(cfg.AcquireTimeoutMs) * time.Millisecond,
	})
	return &Container{
		Config:  cfg,
		Logger:  logger,
		Session: session,
		Watcher: NewWatcher(logger, cfg),
	}
}
