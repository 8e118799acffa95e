package sim

// FrameClockConfig bounds how wall-clock frame cadence becomes simulation
// timesteps.
type FrameClockConfig struct {
	MinFrameMillis     int64   // frames shorter than this are rejected
	MaxFrameMillis     int64   // frames longer than this are clamped
	TypicalFrameMillis int64   // substituted elapsed time for clamped frames
	TimeDivisor        float64 // accepted millis are divided by this to get dt
}

// DefaultFrameClockConfig returns the reference client's timing constants.
func DefaultFrameClockConfig() FrameClockConfig {
	return FrameClockConfig{
		MinFrameMillis:     DefaultMinFrameMillis,
		MaxFrameMillis:     DefaultMaxFrameMillis,
		TypicalFrameMillis: DefaultTypicalFrameMillis,
		TimeDivisor:        DefaultTimeDivisor,
	}
}

// FrameClock turns an irregular, possibly-stalled frame cadence into a
// bounded, stable timestep. The explicit integrator diverges for large dt, so
// every dt handed to the simulator must come through here.
type FrameClock struct {
	cfg        FrameClockConfig
	lastMillis int64
}

// NewFrameClock creates a clock whose reference point is nowMillis.
func NewFrameClock(cfg FrameClockConfig, nowMillis int64) *FrameClock {
	return &FrameClock{cfg: cfg, lastMillis: nowMillis}
}

// Accept decides whether a frame arriving at nowMillis should be simulated.
// Rejected frames (elapsed below the minimum) return ok=false and do not
// advance the clock; the caller must skip both simulation and rendering for
// that tick. Overlong elapsed times are clamped to the typical frame before
// normalization.
func (fc *FrameClock) Accept(nowMillis int64) (dt float64, ok bool) {
	elapsed := nowMillis - fc.lastMillis
	if elapsed < fc.cfg.MinFrameMillis {
		return 0, false
	}
	if elapsed > fc.cfg.MaxFrameMillis {
		elapsed = fc.cfg.TypicalFrameMillis
	}
	fc.lastMillis = nowMillis
	return float64(elapsed) / fc.cfg.TimeDivisor, true
}
