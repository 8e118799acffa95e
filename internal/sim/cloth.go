// Package sim implements the mass-spring cloth simulation core: grid state,
// the explicit two-pass integrator, the frame clock that converts wall-clock
// frame cadence into bounded timesteps, and the toggleable wind impulse.
//
// The package is deliberately free of transport, persistence and logging
// concerns. The surrounding service drives it once per accepted frame and
// reads the position array back out for renderer clients.
package sim

import "math"

// Grid is the immutable lattice topology of a cloth: Segments edges per side
// over a square of physical side length Size.
type Grid struct {
	Segments int     `json:"segments"`
	Size     float64 `json:"size"`
}

// VertsPerRow returns the number of vertices along one side.
func (g Grid) VertsPerRow() int { return g.Segments + 1 }

// VertexCount returns the total number of vertices in the grid.
func (g Grid) VertexCount() int {
	vpr := g.VertsPerRow()
	return vpr * vpr
}

// StructuralLength is the rest length of axis-aligned (structural) springs.
func (g Grid) StructuralLength() float64 { return g.Size / float64(g.Segments) }

// ShearLength is the rest length of diagonal (shear) springs.
func (g Grid) ShearLength() float64 { return g.StructuralLength() * math.Sqrt2 }

// Coord maps a linear vertex index to its (column, row) grid coordinate.
func (g Grid) Coord(i int) (x, y int) {
	vpr := g.VertsPerRow()
	return i % vpr, i / vpr
}

// Index maps a (column, row) grid coordinate to its linear vertex index.
func (g Grid) Index(x, y int) int { return y*g.VertsPerRow() + x }

// Cloth holds the mutable per-vertex state of one simulated cloth. Positions
// and velocities are index-aligned, row-major, and owned exclusively by this
// struct: the simulator mutates them only through SetVelocity and
// ApplyDisplacement. The vertex count and the pinned set are fixed for the
// lifetime of the cloth.
type Cloth struct {
	grid       Grid
	positions  []Vector3
	velocities []Vector3
}

// NewCloth allocates a cloth laid out as a regular planar grid on the z=0
// plane, centered on the origin with the pinned row at the top, all
// velocities zero.
func NewCloth(segments int, size float64) *Cloth {
	grid := Grid{Segments: segments, Size: size}
	n := grid.VertexCount()
	c := &Cloth{
		grid:       grid,
		positions:  make([]Vector3, n),
		velocities: make([]Vector3, n),
	}

	step := grid.StructuralLength()
	half := size / 2
	for i := 0; i < n; i++ {
		x, y := grid.Coord(i)
		c.positions[i] = Vector3{
			X: float64(x)*step - half,
			Y: half - float64(y)*step,
			Z: 0,
		}
	}
	return c
}

// Grid returns the cloth's topology.
func (c *Cloth) Grid() Grid { return c.grid }

// VertexCount returns the number of vertices.
func (c *Cloth) VertexCount() int { return len(c.positions) }

// Position returns vertex i's current position.
func (c *Cloth) Position(i int) Vector3 { return c.positions[i] }

// Velocity returns vertex i's current velocity.
func (c *Cloth) Velocity(i int) Vector3 { return c.velocities[i] }

// SetVelocity replaces vertex i's velocity.
func (c *Cloth) SetVelocity(i int, v Vector3) { c.velocities[i] = v }

// ApplyDisplacement moves vertex i by delta.
func (c *Cloth) ApplyDisplacement(i int, delta Vector3) {
	c.positions[i] = c.positions[i].Plus(delta)
}

// IsPinned reports whether vertex i belongs to the pinned first row. Pinned
// vertices never change position or velocity during simulation.
func (c *Cloth) IsPinned(i int) bool { return i < c.grid.VertsPerRow() }

// ForEachNeighbor visits vertex i's spring neighbors with their rest lengths.
// Axis-aligned neighbors connect at the structural rest length, diagonals at
// the shear rest length. Visit order is fixed (left, right, up, down,
// upper-left, upper-right, down-left, down-right) so that floating-point
// force summation is reproducible run to run.
func (c *Cloth) ForEachNeighbor(i int, fn func(j int, restLength float64)) {
	vpr := c.grid.VertsPerRow()
	x, y := c.grid.Coord(i)
	structural := c.grid.StructuralLength()
	shear := c.grid.ShearLength()

	left := x > 0
	right := x < vpr-1
	up := y > 0
	down := y < vpr-1

	if left {
		fn(i-1, structural)
	}
	if right {
		fn(i+1, structural)
	}
	if up {
		fn(i-vpr, structural)
	}
	if down {
		fn(i+vpr, structural)
	}
	if up && left {
		fn(i-vpr-1, shear)
	}
	if up && right {
		fn(i-vpr+1, shear)
	}
	if down && left {
		fn(i+vpr-1, shear)
	}
	if down && right {
		fn(i+vpr+1, shear)
	}
}

// Positions exposes the backing position array in stable row-major order for
// per-frame encoding. Callers must treat it as read-only and must not retain
// it across steps; use Snapshot for a stable copy.
func (c *Cloth) Positions() []Vector3 { return c.positions }

// Snapshot returns a copy of the current positions.
func (c *Cloth) Snapshot() []Vector3 {
	out := make([]Vector3, len(c.positions))
	copy(out, c.positions)
	return out
}
