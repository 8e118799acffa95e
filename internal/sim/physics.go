package sim

import "math"

// Simulator advances a Cloth one timestep at a time. It is stateless between
// steps; given the same cloth state, dt and wind, Step is deterministic.
//
// The integration scheme is a direct port of the reference client's and MUST
// keep its two quirks: spring impulses are added to velocity without a dt
// factor, and the dt-scaled velocity applied to positions in pass 2 is what
// gets stored for the next step. Normalizing either changes the visible
// motion.
type Simulator struct {
	Stiffness float64 // spring constant K
	Gravity   float64 // gravitational acceleration G
}

// NewSimulator returns a simulator with the given spring and gravity
// constants.
func NewSimulator(stiffness, gravity float64) Simulator {
	return Simulator{Stiffness: stiffness, Gravity: gravity}
}

// StepStats summarizes a completed step.
type StepStats struct {
	MaxStretch float64 `json:"max_stretch"` // largest |extension| over all springs visited
	MaxSpeed   float64 `json:"max_speed"`   // largest per-vertex displacement magnitude applied
}

// Step advances the whole grid by dt. The two passes must stay separate:
// pass 2 reads the fully-updated velocities of pass 1 for every vertex, never
// a half-updated mix.
func (s Simulator) Step(c *Cloth, dt float64, wind WindState) StepStats {
	var stats StepStats

	// Pass 1: accumulate spring, gravity and wind impulses into velocity.
	n := c.VertexCount()
	for i := 0; i < n; i++ {
		if c.IsPinned(i) {
			// Pin clamp overrides everything for this vertex this step.
			c.SetVelocity(i, Vector3{})
			continue
		}

		v := c.Velocity(i)
		pos := c.Position(i)

		c.ForEachNeighbor(i, func(j int, restLength float64) {
			other := c.Position(j)
			ext := pos.DistanceTo(other) - restLength
			// Coincident vertices normalize to the zero vector and
			// contribute no force.
			dir := other.Minus(pos).Normalize()
			v = v.Plus(dir.Times(ext * s.Stiffness))
			if abs := math.Abs(ext); abs > stats.MaxStretch {
				stats.MaxStretch = abs
			}
		})

		v.Y -= s.Gravity * dt

		if wind.Active {
			v = v.Plus(wind.Force.Times(dt))
		} else {
			// Inactive wind subtracts the last-sampled force instead of
			// doing nothing; this is the gust-release behavior of the
			// reference client, not a bug.
			v = v.Minus(wind.Force.Times(dt))
		}

		c.SetVelocity(i, v)
	}

	// Pass 2: integrate positions. The dt-scaled velocity is both applied to
	// the position and stored as the next step's velocity; parity with the
	// reference client requires storing the scaled value, not the raw one.
	maxSpeedSq := 0.0
	for i := 0; i < n; i++ {
		scaled := c.Velocity(i).Times(dt)
		c.ApplyDisplacement(i, scaled)
		c.SetVelocity(i, scaled)
		if sq := scaled.MagnitudeSquared(); sq > maxSpeedSq {
			maxSpeedSq = sq
		}
	}
	stats.MaxSpeed = math.Sqrt(maxSpeedSq)

	return stats
}
