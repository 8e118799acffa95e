package sim

// Simulation defaults. These match the reference client implementation exactly;
// the frame clock values in particular compensate for its explicit integrator,
// which is unstable for large timesteps.

const (
	DefaultSegments = 10     // edges per side; vertices per row = segments+1
	DefaultSize     = 1000.0 // physical side length of the cloth square

	DefaultStiffness = 1.0 // spring constant K, applied in velocity space
	DefaultGravity   = 1.0 // downward acceleration G, scaled by dt each step

	// Frame clock: frames shorter than MinFrameMillis are rejected outright,
	// frames longer than MaxFrameMillis are clamped to TypicalFrameMillis
	// (tab-suspend and stall protection). Accepted elapsed time is divided by
	// TimeDivisor to produce the simulation dt, so a typical 16ms frame steps
	// the cloth by dt=0.16.
	DefaultMinFrameMillis     = 14
	DefaultMaxFrameMillis     = 50
	DefaultTypicalFrameMillis = 16
	DefaultTimeDivisor        = 100.0

	// Wind impulse sampling ranges, per axis. Resampled uniformly on every
	// toggle, active or not.
	DefaultWindMinX = 1.0
	DefaultWindMaxX = 3.0
	DefaultWindMinY = 0.0
	DefaultWindMaxY = 1.0
	DefaultWindMinZ = 2.0
	DefaultWindMaxZ = 4.0
)
