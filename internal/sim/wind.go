package sim

import (
	"math/rand"
	"sync"
	"time"
)

// AxisRange bounds one axis of a wind force sample.
type AxisRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// WindProfile holds the per-axis sampling ranges for wind impulses.
type WindProfile struct {
	X AxisRange `json:"x"`
	Y AxisRange `json:"y"`
	Z AxisRange `json:"z"`
}

// DefaultWindProfile returns the reference client's wind ranges.
func DefaultWindProfile() WindProfile {
	return WindProfile{
		X: AxisRange{Min: DefaultWindMinX, Max: DefaultWindMaxX},
		Y: AxisRange{Min: DefaultWindMinY, Max: DefaultWindMaxY},
		Z: AxisRange{Min: DefaultWindMinZ, Max: DefaultWindMaxZ},
	}
}

// WindState is what the simulator reads every step: whether the gust is
// active and the last-sampled force. While inactive the simulator subtracts
// Force rather than ignoring it, so Force stays meaningful after release.
type WindState struct {
	Active bool    `json:"active"`
	Force  Vector3 `json:"force"`
}

// WindController owns the wind state. Toggle may be called from a different
// goroutine than the simulation loop (user input arrives asynchronously), so
// state access is mutex-guarded; the loop snapshots Current once per step.
type WindController struct {
	mu      sync.RWMutex
	profile WindProfile
	state   WindState
	rng     *rand.Rand
}

// NewWindController creates a controller in the inert state: inactive with a
// zero force, so the pre-first-toggle subtract branch is a no-op.
func NewWindController(profile WindProfile) *WindController {
	return NewSeededWindController(profile, time.Now().UnixNano())
}

// NewSeededWindController creates a controller with a fixed RNG seed for
// reproducible sampling.
func NewSeededWindController(profile WindProfile, seed int64) *WindController {
	return &WindController{
		profile: profile,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Toggle flips the active flag and resamples the force uniformly per axis.
// Resampling happens on every toggle, deactivations included.
func (wc *WindController) Toggle() WindState {
	wc.mu.Lock()
	defer wc.mu.Unlock()

	wc.state.Active = !wc.state.Active
	wc.state.Force = Vector3{
		X: sampleRange(wc.rng, wc.profile.X),
		Y: sampleRange(wc.rng, wc.profile.Y),
		Z: sampleRange(wc.rng, wc.profile.Z),
	}
	return wc.state
}

// Current returns a snapshot of the wind state.
func (wc *WindController) Current() WindState {
	wc.mu.RLock()
	defer wc.mu.RUnlock()
	return wc.state
}

// Profile returns the controller's sampling ranges.
func (wc *WindController) Profile() WindProfile {
	return wc.profile
}

func sampleRange(rng *rand.Rand, r AxisRange) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}
