package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soocke/screen-capture-go/config"
	"github.com/soocke/screen-capture-go/debug"
)

// App runs a capture session with the pixel watcher subscribed until the
// process receives an interrupt.
type App struct {
	c *Container
}

func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	return &App{c: BuildContainer(cfg, logger)}
}

func (a *App) Start() error {
	c := a.c

	if _, err := c.Session.Subscribe(c.Watcher.OnFrame); err != nil {
		return err
	}
	if c.Config.Debug {
		debug.StartStatsLogger(2*time.Second, c.Session, c.Logger)
		debug.StartMemLogger(2*time.Second, c.Logger)
	}

	if err := c.Session.Start(); err != nil {
		return err
	}
	c.Logger.Info("capture started",
		"adapter", c.Config.AdapterIndex,
		"output", c.Config.OutputIndex,
		"acquire_timeout_ms", c.Config.AcquireTimeoutMs,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	c.Logger.Info("shutting down")
	if err := c.Session.Stop(); err != nil {
		c.Logger.Error("stop capture", "error", err)
	}
	return c.Session.Close()
}
