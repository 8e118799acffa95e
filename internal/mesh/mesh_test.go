package mesh

import (
	"testing"

	"github.com/drapesim/backend/internal/sim"
)

func TestTriangleIndicesCountAndRange(t *testing.T) {
	g := sim.Grid{Segments: 10, Size: 1000}
	indices := TriangleIndices(g)

	want := 10 * 10 * 2 * 3
	if len(indices) != want {
		t.Fatalf("len(indices) = %d, want %d", len(indices), want)
	}
	max := uint32(g.VertexCount())
	for i, idx := range indices {
		if idx >= max {
			t.Fatalf("indices[%d] = %d out of range (%d vertices)", i, idx, max)
		}
	}
}

func TestTriangleIndicesFirstCell(t *testing.T) {
	g := sim.Grid{Segments: 2, Size: 100}
	indices := TriangleIndices(g)

	// Cell (0,0) with vertsPerRow=3: corners 0,1 top and 3,4 bottom.
	want := []uint32{0, 3, 1, 1, 3, 4}
	for i, w := range want {
		if indices[i] != w {
			t.Fatalf("indices[%d] = %d, want %d (full: %v)", i, indices[i], w, indices[:6])
		}
	}
}

func TestVertexNormalsFlatClothFacePlusZ(t *testing.T) {
	c := sim.NewCloth(4, 400)
	normals := VertexNormals(c.Positions(), c.Grid())

	if len(normals) != c.VertexCount() {
		t.Fatalf("len(normals) = %d, want %d", len(normals), c.VertexCount())
	}
	for i, n := range normals {
		if !n.IsEqualTo(sim.NewVector3(0, 0, 1)) {
			t.Errorf("normal[%d] = %v, want +z", i, n)
		}
	}
}

func TestVertexNormalsDegenerateFacesStayFinite(t *testing.T) {
	c := sim.NewCloth(4, 400)
	positions := c.Snapshot()

	// Collapse one row onto the next: every face touching it degenerates.
	g := c.Grid()
	for x := 0; x <= g.Segments; x++ {
		positions[g.Index(x, 1)] = positions[g.Index(x, 2)]
	}

	normals := VertexNormals(positions, g)
	for i, n := range normals {
		if !n.IsFinite() {
			t.Errorf("normal[%d] = %v not finite", i, n)
		}
	}
}

func TestFlatten(t *testing.T) {
	vs := []sim.Vector3{sim.NewVector3(1, 2, 3), sim.NewVector3(4, 5, 6)}
	flat := Flatten(vs)

	want := []float64{1, 2, 3, 4, 5, 6}
	if len(flat) != len(want) {
		t.Fatalf("len = %d, want %d", len(flat), len(want))
	}
	for i := range want {
		if flat[i] != want[i] {
			t.Errorf("flat[%d] = %f, want %f", i, flat[i], want[i])
		}
	}
}
