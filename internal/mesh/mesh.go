// Package mesh derives render geometry from the cloth position grid.
// The reference client owns materials and shading; the server only ships
// the index buffer once and, on request, recomputed vertex normals.
package mesh

import (
	"github.com/drapesim/backend/internal/sim"
)

// TriangleIndices builds the static index buffer for a cloth grid. Each
// grid cell is split into two triangles wound counter-clockwise when the
// flat cloth is viewed from +Z, matching the reference client's geometry.
func TriangleIndices(g sim.Grid) []uint32 {
	vpr := g.VertsPerRow()
	indices := make([]uint32, 0, g.Segments*g.Segments*6)
	for y := 0; y < g.Segments; y++ {
		for x := 0; x < g.Segments; x++ {
			topLeft := uint32(y*vpr + x)
			topRight := topLeft + 1
			bottomLeft := topLeft + uint32(vpr)
			bottomRight := bottomLeft + 1
			indices = append(indices,
				topLeft, bottomLeft, topRight,
				topRight, bottomLeft, bottomRight,
			)
		}
	}
	return indices
}

// VertexNormals recomputes smooth per-vertex normals from the current
// positions. Face normals are accumulated into every vertex they touch and
// the sums normalized at the end. Degenerate faces contribute a zero cross
// product and fall out of the sum, the same guard the spring pass applies
// to coincident vertices.
func VertexNormals(positions []sim.Vector3, g sim.Grid) []sim.Vector3 {
	normals := make([]sim.Vector3, len(positions))
	indices := TriangleIndices(g)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		edge1 := positions[b].Minus(positions[a])
		edge2 := positions[c].Minus(positions[a])
		face := edge1.Cross(edge2)
		normals[a] = normals[a].Plus(face)
		normals[b] = normals[b].Plus(face)
		normals[c] = normals[c].Plus(face)
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	return normals
}

// Flatten packs vectors into [x0 y0 z0 x1 y1 z1 ...] for frame payloads.
func Flatten(vs []sim.Vector3) []float64 {
	out := make([]float64, 0, len(vs)*3)
	for _, v := range vs {
		out = append(out, v.X, v.Y, v.Z)
	}
	return out
}
