//go:build !windows

package debug

import (
	"log/slog"
	"time"
)

// StartMemLogger is a no-op off Windows; StartStatsLogger already covers the
// portable runtime counters.
func StartMemLogger(interval time.Duration, logger *slog.Logger) {}
