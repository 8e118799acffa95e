package sim

import (
	"testing"
)

const testDt = 0.16

// inertWind is the pre-first-toggle wind state: inactive, zero force.
var inertWind = WindState{}

func TestPinnedVerticesNeverMove(t *testing.T) {
	c := NewCloth(10, 1000)
	s := NewSimulator(1, 1)
	wind := WindState{Active: true, Force: Vector3{X: 2, Y: 0.5, Z: 3}}

	initial := c.Snapshot()
	for step := 0; step < 50; step++ {
		s.Step(c, testDt, wind)
	}

	vpr := c.Grid().VertsPerRow()
	for i := 0; i < vpr; i++ {
		if !c.Position(i).IsEqualTo(initial[i]) {
			t.Errorf("pinned vertex %d moved: %+v -> %+v", i, initial[i], c.Position(i))
		}
		if !c.Velocity(i).IsZero() {
			t.Errorf("pinned vertex %d has velocity %+v", i, c.Velocity(i))
		}
	}
}

func TestRestLengthGridIsStable(t *testing.T) {
	// At rest length every spring extension is zero, so with gravity off and
	// wind inert a step must not move anything beyond floating-point noise.
	c := NewCloth(10, 1000)
	s := NewSimulator(1, 0)

	initial := c.Snapshot()
	s.Step(c, testDt, inertWind)

	for i := 0; i < c.VertexCount(); i++ {
		if d := c.Position(i).DistanceTo(initial[i]); d > 1e-9 {
			t.Errorf("vertex %d drifted %g at rest", i, d)
		}
	}
}

func TestGravityOnlyStep(t *testing.T) {
	c := NewCloth(4, 400)
	s := NewSimulator(0, 1) // springs off

	i := c.VertexCount() - 1 // free corner
	before := c.Position(i)
	s.Step(c, testDt, inertWind)

	// Pass 1 leaves velocity.y = -G*dt; pass 2 scales by dt before applying
	// and storing.
	wantY := -(s.Gravity * testDt) * testDt
	if got := c.Velocity(i).Y; got != wantY {
		t.Errorf("stored velocity y = %g, want %g", got, wantY)
	}
	if want := before.Plus(c.Velocity(i)); !c.Position(i).IsEqualTo(want) {
		t.Errorf("position = %+v, want initial plus stored velocity %+v", c.Position(i), want)
	}
}

func TestPositionDeltaEqualsStoredVelocity(t *testing.T) {
	// The dt-scaled velocity applied to the position in pass 2 is exactly
	// what gets stored for the next step. Guard the quirk.
	c := NewCloth(6, 600)
	s := NewSimulator(1, 1)
	wind := WindState{Active: true, Force: Vector3{X: 1.5, Y: 0.25, Z: 2.5}}

	for step := 0; step < 10; step++ {
		before := c.Snapshot()
		s.Step(c, testDt, wind)
		for i := 0; i < c.VertexCount(); i++ {
			want := before[i].Plus(c.Velocity(i))
			if !c.Position(i).IsEqualTo(want) {
				t.Fatalf("step %d vertex %d: position %+v, want previous plus stored velocity %+v",
					step, i, c.Position(i), want)
			}
		}
	}
}

func TestWindActiveAddsForce(t *testing.T) {
	c := NewCloth(2, 200)
	s := NewSimulator(0, 0)
	force := Vector3{X: 2, Y: 0.5, Z: 3}

	i := c.VertexCount() - 1
	before := c.Position(i)
	s.Step(c, testDt, WindState{Active: true, Force: force})

	want := force.Times(testDt).Times(testDt)
	if !c.Velocity(i).IsEqualTo(want) {
		t.Errorf("active wind velocity = %+v, want %+v", c.Velocity(i), want)
	}
	if !c.Position(i).IsEqualTo(before.Plus(want)) {
		t.Errorf("active wind position = %+v, want %+v", c.Position(i), before.Plus(want))
	}
}

func TestWindInactiveSubtractsForce(t *testing.T) {
	// After a gust releases, the last-sampled force is subtracted each step,
	// not dropped. A free vertex must move against the wind direction.
	c := NewCloth(2, 200)
	s := NewSimulator(0, 0)
	force := Vector3{X: 2, Y: 0.5, Z: 3}

	i := c.VertexCount() - 1
	before := c.Position(i)
	s.Step(c, testDt, WindState{Active: false, Force: force})

	want := force.Times(testDt).Times(testDt).Invert()
	if !c.Velocity(i).IsEqualTo(want) {
		t.Errorf("inactive wind velocity = %+v, want %+v", c.Velocity(i), want)
	}
	if !c.Position(i).IsEqualTo(before.Plus(want)) {
		t.Errorf("inactive wind position = %+v, want %+v", c.Position(i), before.Plus(want))
	}
}

func TestCoincidentVerticesStayFinite(t *testing.T) {
	c := NewCloth(4, 400)
	s := NewSimulator(1, 1)

	// Collapse a free vertex onto its right neighbor; the zero-length spring
	// direction must contribute nothing rather than NaN.
	g := c.Grid()
	i := g.Index(2, 2)
	j := g.Index(3, 2)
	c.ApplyDisplacement(j, c.Position(i).Minus(c.Position(j)))

	for step := 0; step < 20; step++ {
		s.Step(c, testDt, inertWind)
	}

	for k := 0; k < c.VertexCount(); k++ {
		if !c.Position(k).IsFinite() {
			t.Fatalf("vertex %d position not finite after coincident start: %+v", k, c.Position(k))
		}
		if !c.Velocity(k).IsFinite() {
			t.Fatalf("vertex %d velocity not finite after coincident start: %+v", k, c.Velocity(k))
		}
	}
}

func TestGravitySagEndToEnd(t *testing.T) {
	// 10x10 grid, gravity 1, stiffness 1, wind inert, 100 steps of dt=0.16:
	// the pinned row holds, everything else ends lower than it started, and
	// no coordinate diverges.
	c := NewCloth(10, 1000)
	s := NewSimulator(1, 1)

	initial := c.Snapshot()
	for step := 0; step < 100; step++ {
		s.Step(c, testDt, inertWind)
	}

	vpr := c.Grid().VertsPerRow()
	for i := 0; i < c.VertexCount(); i++ {
		p := c.Position(i)
		if !p.IsFinite() {
			t.Fatalf("vertex %d diverged: %+v", i, p)
		}
		if i < vpr {
			if p.Y != initial[i].Y {
				t.Errorf("pinned vertex %d y = %f, want %f", i, p.Y, initial[i].Y)
			}
		} else {
			if p.Y >= initial[i].Y {
				t.Errorf("free vertex %d did not sag: y = %f, initial %f", i, p.Y, initial[i].Y)
			}
		}
	}
}

func TestStepDeterminism(t *testing.T) {
	run := func() []Vector3 {
		c := NewCloth(8, 800)
		s := NewSimulator(1, 1)
		wind := WindState{Active: true, Force: Vector3{X: 1.2, Y: 0.3, Z: 2.8}}
		for step := 0; step < 40; step++ {
			if step == 20 {
				wind.Active = false
			}
			s.Step(c, testDt, wind)
		}
		return c.Snapshot()
	}

	a := run()
	b := run()
	for i := range a {
		if !a[i].IsEqualTo(b[i]) {
			t.Errorf("non-deterministic: vertex %d run1=%+v run2=%+v", i, a[i], b[i])
		}
	}
}

func TestStepStatsReportStretchAndSpeed(t *testing.T) {
	c := NewCloth(6, 600)
	s := NewSimulator(1, 0)

	// Drag the bottom row down to stretch the last row of springs.
	g := c.Grid()
	vpr := g.VertsPerRow()
	for x := 0; x < vpr; x++ {
		c.ApplyDisplacement(g.Index(x, vpr-1), Vector3{Y: -80})
	}

	stats := s.Step(c, testDt, inertWind)
	if stats.MaxStretch < 70 {
		t.Errorf("MaxStretch = %f, want the ~80-unit vertical stretch to dominate", stats.MaxStretch)
	}
	if stats.MaxSpeed <= 0 {
		t.Errorf("MaxSpeed = %f, want > 0", stats.MaxSpeed)
	}

	// A cloth at rest reports ~zero stretch.
	rest := NewSimulator(1, 0).Step(NewCloth(6, 600), testDt, inertWind)
	if rest.MaxStretch > 1e-9 {
		t.Errorf("rest MaxStretch = %g, want ~0", rest.MaxStretch)
	}
}
