package debug

// Capture instrumentation logger enabled when config.Debug is true.
// Emits session counters and goroutine count at a fixed interval so frame
// cadence, timeout skips and worker leaks show up in one log stream.

import (
	"log/slog"
	"runtime/metrics"
	"time"

	"github.com/soocke/screen-capture-go/domain/capture"
)

// StatsSource exposes session counters for periodic logging.
type StatsSource interface {
	Stats() capture.Stats
}

// StartStatsLogger launches a ticker that logs capture stats. It is
// lightweight; disable by running without the debug flag.
func StartStatsLogger(interval time.Duration, src StatsSource, logger *slog.Logger) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
		for range t.C {
			metrics.Read(samples)
			stats := src.Stats()
			logger.Info("capture-debug",
				slog.String("state", stats.State.String()),
				slog.Uint64("frames", stats.Frames),
				slog.Uint64("timeouts", stats.Timeouts),
				slog.Float64("avg_cycle_us", stats.AvgCycleMicros),
				slog.Duration("frame_age", stats.LatestFrameAge),
				slog.Uint64("goroutines", samples[0].Value.Uint64()),
			)
		}
	}()
}
