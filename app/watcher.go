package app

import (
	"log/slog"
	"sync"

	"github.com/soocke/screen-capture-go/config"
	"github.com/soocke/screen-capture-go/domain/frame"
)

// Watcher is a frame subscriber that searches each capture for a target
// color inside a configured region and logs appear/lost transitions. It is
// the built-in consumer of the pixel query engine; external subscribers hang
// off the same session the same way.
type Watcher struct {
	logger    *slog.Logger
	target    frame.Color
	region    frame.Region // zero-size means full frame
	tolerance uint8

	mu        sync.Mutex
	locked    bool
	lastPoint frame.Point
	frames    uint64
	matches   uint64
	queryErrs uint64
}

// WatcherStats summarises watcher activity for instrumentation.
type WatcherStats struct {
	Frames    uint64
	Matches   uint64
	QueryErrs uint64
	Locked    bool
	LastPoint frame.Point
}

// NewWatcher builds a watcher from the watch_* config fields.
func NewWatcher(logger *slog.Logger, cfg *config.Config) *Watcher {
	w := &Watcher{
		logger:    logger,
		lastPoint: frame.NotFound,
	}
	if cfg != nil {
		w.target = frame.Color{R: cfg.WatchR, G: cfg.WatchG, B: cfg.WatchB}
		w.region = frame.Region{X: cfg.WatchX, Y: cfg.WatchY, Width: cfg.WatchW, Height: cfg.WatchH}
		w.tolerance = uint8(cfg.WatchTolerance)
	}
	return w
}

// OnFrame runs on the capture worker; it must finish before the next frame
// can be acquired and must not retain v.
func (w *Watcher) OnFrame(v *frame.View) {
	region := w.region
	if region.Width == 0 || region.Height == 0 {
		region = frame.Region{Width: v.Width(), Height: v.Height()}
	}

	p, err := v.FindPixel(w.target, region, w.tolerance)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames++
	if err != nil {
		// Configured region does not fit this output; report, don't clamp.
		w.queryErrs++
		if w.logger != nil && w.queryErrs == 1 {
			w.logger.Warn("watch region query failed", "error", err, "region", region)
		}
		return
	}

	found := p != frame.NotFound
	if found {
		w.matches++
		w.lastPoint = p
	}
	switch {
	case found && !w.locked:
		w.locked = true
		if w.logger != nil {
			w.logger.Info("target color appeared", "x", region.X+p.X, "y", region.Y+p.Y)
		}
	case !found && w.locked:
		w.locked = false
		if w.logger != nil {
			w.logger.Info("target color lost")
		}
	}
}

// Snapshot returns current watcher counters.
func (w *Watcher) Snapshot() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WatcherStats{
		Frames:    w.frames,
		Matches:   w.matches,
		QueryErrs: w.queryErrs,
		Locked:    w.locked,
		LastPoint: w.lastPoint,
	}
}
