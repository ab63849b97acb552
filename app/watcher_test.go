package app

import (
	"testing"

	"github.com/soocke/screen-capture-go/config"
	"github.com/soocke/screen-capture-go/domain/frame"
)

// colorView builds a small BGRA view with an optional target pixel set.
func colorView(w, h int, target *frame.Point, c frame.Color) *frame.View {
	pitch := w * 4
	buf := make([]byte, pitch*h)
	if target != nil {
		off := 4*target.X + pitch*target.Y
		buf[off] = c.B
		buf[off+1] = c.G
		buf[off+2] = c.R
		buf[off+3] = 255
	}
	return frame.NewView(buf, pitch, len(buf), frame.Region{Width: w, Height: h})
}

func watchConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.WatchR, cfg.WatchG, cfg.WatchB = 200, 40, 40
	cfg.WatchTolerance = 0
	return cfg
}

func TestWatcherLocksAndReleases(t *testing.T) {
	w := NewWatcher(nil, watchConfig())
	c := frame.Color{R: 200, G: 40, B: 40}

	w.OnFrame(colorView(8, 8, nil, c))
	if snap := w.Snapshot(); snap.Locked || snap.Matches != 0 {
		t.Fatalf("locked on empty frame: %+v", snap)
	}

	w.OnFrame(colorView(8, 8, &frame.Point{X: 3, Y: 2}, c))
	snap := w.Snapshot()
	if !snap.Locked || snap.Matches != 1 {
		t.Fatalf("expected lock after match: %+v", snap)
	}
	if snap.LastPoint != (frame.Point{X: 3, Y: 2}) {
		t.Fatalf("last point = %+v, want {3 2}", snap.LastPoint)
	}

	w.OnFrame(colorView(8, 8, nil, c))
	if snap := w.Snapshot(); snap.Locked {
		t.Fatalf("still locked after target vanished: %+v", snap)
	}
}

func TestWatcherScopedRegion(t *testing.T) {
	cfg := watchConfig()
	cfg.WatchX, cfg.WatchY, cfg.WatchW, cfg.WatchH = 4, 4, 4, 4
	w := NewWatcher(nil, cfg)
	c := frame.Color{R: 200, G: 40, B: 40}

	// Match outside the watched region is ignored.
	w.OnFrame(colorView(8, 8, &frame.Point{X: 1, Y: 1}, c))
	if snap := w.Snapshot(); snap.Locked {
		t.Fatalf("locked on out-of-region match: %+v", snap)
	}

	// Match inside the region reports region-relative coordinates.
	w.OnFrame(colorView(8, 8, &frame.Point{X: 5, Y: 6}, c))
	snap := w.Snapshot()
	if !snap.Locked {
		t.Fatalf("expected lock: %+v", snap)
	}
	if snap.LastPoint != (frame.Point{X: 1, Y: 2}) {
		t.Fatalf("last point = %+v, want {1 2} (region-relative)", snap.LastPoint)
	}
}

func TestWatcherReportsBadRegion(t *testing.T) {
	cfg := watchConfig()
	cfg.WatchX, cfg.WatchY, cfg.WatchW, cfg.WatchH = 0, 0, 100, 100
	w := NewWatcher(nil, cfg)

	w.OnFrame(colorView(8, 8, nil, frame.Color{}))
	snap := w.Snapshot()
	if snap.QueryErrs != 1 {
		t.Fatalf("query errors = %d, want 1", snap.QueryErrs)
	}
	if snap.Locked {
		t.Fatalf("locked despite failed query: %+v", snap)
	}
}
