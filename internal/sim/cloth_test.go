package sim

import (
	"math"
	"testing"
)

func TestGridDerivedConstants(t *testing.T) {
	g := Grid{Segments: 10, Size: 1000}

	if g.VertsPerRow() != 11 {
		t.Errorf("VertsPerRow = %d, want 11", g.VertsPerRow())
	}
	if g.VertexCount() != 121 {
		t.Errorf("VertexCount = %d, want 121", g.VertexCount())
	}
	if g.StructuralLength() != 100 {
		t.Errorf("StructuralLength = %f, want 100", g.StructuralLength())
	}
	want := 100 * math.Sqrt2
	if g.ShearLength() != want {
		t.Errorf("ShearLength = %f, want %f", g.ShearLength(), want)
	}
}

func TestGridCoordRoundTrip(t *testing.T) {
	g := Grid{Segments: 4, Size: 100}
	for i := 0; i < g.VertexCount(); i++ {
		x, y := g.Coord(i)
		if got := g.Index(x, y); got != i {
			t.Errorf("Index(Coord(%d)) = %d", i, got)
		}
	}

	// Spot-check the row-major mapping.
	if x, y := g.Coord(7); x != 2 || y != 1 {
		t.Errorf("Coord(7) = (%d,%d), want (2,1)", x, y)
	}
}

func TestNewClothLayout(t *testing.T) {
	c := NewCloth(10, 1000)

	if c.VertexCount() != 121 {
		t.Fatalf("VertexCount = %d, want 121", c.VertexCount())
	}

	for i := 0; i < c.VertexCount(); i++ {
		p := c.Position(i)
		if p.Z != 0 {
			t.Fatalf("vertex %d not on z=0 plane: z=%f", i, p.Z)
		}
		if !c.Velocity(i).IsZero() {
			t.Fatalf("vertex %d has nonzero initial velocity", i)
		}
	}

	// Corners of a centered grid.
	if p := c.Position(0); p.X != -500 || p.Y != 500 {
		t.Errorf("vertex 0 at (%f,%f), want (-500,500)", p.X, p.Y)
	}
	if p := c.Position(120); p.X != 500 || p.Y != -500 {
		t.Errorf("vertex 120 at (%f,%f), want (500,-500)", p.X, p.Y)
	}

	// Adjacent vertices sit one structural length apart.
	d := c.Position(0).DistanceTo(c.Position(1))
	if d != c.Grid().StructuralLength() {
		t.Errorf("adjacent spacing = %f, want %f", d, c.Grid().StructuralLength())
	}
}

func TestPinnedSetIsFirstRow(t *testing.T) {
	c := NewCloth(10, 1000)
	vpr := c.Grid().VertsPerRow()

	for i := 0; i < c.VertexCount(); i++ {
		want := i < vpr
		if got := c.IsPinned(i); got != want {
			t.Errorf("IsPinned(%d) = %v, want %v", i, got, want)
		}
	}
}

func countNeighbors(c *Cloth, i int) int {
	n := 0
	c.ForEachNeighbor(i, func(int, float64) { n++ })
	return n
}

func TestNeighborCountsByGridPosition(t *testing.T) {
	c := NewCloth(10, 1000)
	g := c.Grid()
	max := g.VertsPerRow() - 1

	for i := 0; i < c.VertexCount(); i++ {
		x, y := g.Coord(i)
		onXEdge := x == 0 || x == max
		onYEdge := y == 0 || y == max

		want := 8
		switch {
		case onXEdge && onYEdge:
			want = 3
		case onXEdge || onYEdge:
			want = 5
		}

		if got := countNeighbors(c, i); got != want {
			t.Errorf("vertex %d at (%d,%d): %d neighbors, want %d", i, x, y, got, want)
		}
	}
}

func TestNeighborOrderAndRestLengths(t *testing.T) {
	c := NewCloth(4, 400)
	g := c.Grid()
	vpr := g.VertsPerRow()
	structural := g.StructuralLength()
	shear := g.ShearLength()

	// Interior vertex (2,2).
	i := g.Index(2, 2)
	type entry struct {
		j    int
		rest float64
	}
	var got []entry
	c.ForEachNeighbor(i, func(j int, rest float64) {
		got = append(got, entry{j, rest})
	})

	want := []entry{
		{i - 1, structural},       // left
		{i + 1, structural},       // right
		{i - vpr, structural},     // up
		{i + vpr, structural},     // down
		{i - vpr - 1, shear},      // upper-left
		{i - vpr + 1, shear},      // upper-right
		{i + vpr - 1, shear},      // down-left
		{i + vpr + 1, shear},      // down-right
	}

	if len(got) != len(want) {
		t.Fatalf("interior vertex has %d neighbors, want %d", len(got), len(want))
	}
	for k := range want {
		if got[k] != want[k] {
			t.Errorf("neighbor %d = %+v, want %+v", k, got[k], want[k])
		}
	}
}

func TestCornerNeighbors(t *testing.T) {
	c := NewCloth(4, 400)
	g := c.Grid()
	vpr := g.VertsPerRow()

	// Top-left corner: only right, down, down-right exist.
	var got []int
	c.ForEachNeighbor(0, func(j int, _ float64) { got = append(got, j) })
	want := []int{1, vpr, vpr + 1}
	if len(got) != len(want) {
		t.Fatalf("corner has %d neighbors, want %d", len(got), len(want))
	}
	for k := range want {
		if got[k] != want[k] {
			t.Errorf("corner neighbor %d = %d, want %d", k, got[k], want[k])
		}
	}
}

func TestApplyDisplacementAndSetVelocity(t *testing.T) {
	c := NewCloth(2, 100)

	before := c.Position(4)
	c.ApplyDisplacement(4, Vector3{X: 1, Y: -2, Z: 3})
	after := c.Position(4)
	if !after.IsEqualTo(before.Plus(Vector3{X: 1, Y: -2, Z: 3})) {
		t.Errorf("ApplyDisplacement: got %+v", after)
	}

	c.SetVelocity(4, Vector3{X: 5, Y: 6, Z: 7})
	if !c.Velocity(4).IsEqualTo(Vector3{X: 5, Y: 6, Z: 7}) {
		t.Errorf("SetVelocity: got %+v", c.Velocity(4))
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	c := NewCloth(2, 100)
	snap := c.Snapshot()

	c.ApplyDisplacement(0, Vector3{X: 42})
	if snap[0].X == c.Position(0).X {
		t.Error("snapshot shares backing storage with cloth")
	}
	if len(snap) != c.VertexCount() {
		t.Errorf("snapshot length = %d, want %d", len(snap), c.VertexCount())
	}
}
