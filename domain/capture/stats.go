package capture

import "time"

// Stats summarises session behaviour for instrumentation.
type Stats struct {
	Frames         uint64
	Timeouts       uint64
	AvgCycle       time.Duration
	AvgCycleMicros float64
	LastFrame      time.Time
	LatestFrameAge time.Duration
	Sequence       uint64
	State          State
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	frames := s.frames.Load()
	total := s.cycleNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if frames > 0 && total > 0 {
		avg = time.Duration(total / frames)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	var last time.Time
	age := time.Duration(0)
	if nanos := s.lastFrame.Load(); nanos > 0 {
		last = time.Unix(0, nanos)
		age = time.Since(last)
	}
	return Stats{
		Frames:         frames,
		Timeouts:       s.timeouts.Load(),
		AvgCycle:       avg,
		AvgCycleMicros: avgMicros,
		LastFrame:      last,
		LatestFrameAge: age,
		Sequence:       s.sequence.Load(),
		State:          s.State(),
	}
}

func (s *Session) logStats() {
	if s.logger == nil {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"frames", stats.Frames,
		"timeouts", stats.Timeouts,
		"avg_cycle", stats.AvgCycle,
		"age", stats.LatestFrameAge,
	)
}
