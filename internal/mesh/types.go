// Package mesh tessellates a rotating ellipsoid into latitude rows of
// vertices and stitches adjacent rows into a triangle mesh.
package mesh

import (
	gomath "math"

	"github.com/Faultbox/geoidmesh/internal/geodesy"
	"github.com/Faultbox/geoidmesh/pkg/math"
)

// Vertex is one surface point with its position in the vertex buffers.
type Vertex struct {
	Index uint32
	geodesy.SurfacePoint
}

// Row is an ordered ring of vertices sharing one approximate latitude.
// Pole rows hold exactly one vertex.
type Row struct {
	Index          int
	ApproxLatitude float64
	Vertices       []Vertex
}

// Len returns the number of vertices in the row.
func (r Row) Len() int {
	return len(r.Vertices)
}

// IsPole reports whether the row is a single pole vertex.
func (r Row) IsPole() bool {
	return len(r.Vertices) == 1
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Mesh holds the complete tessellation ready for upload or export.
// Every 3 consecutive indices form one triangle wound counter-clockwise
// when seen from outside the ellipsoid.
type Mesh struct {
	Rows      []Row
	Positions []math.Vec3
	Normals   []math.Vec3
	TexCoords []math.Vec2
	Indices   []uint32

	// PhaseShift is the longitude rotation the mesh was built for, radians.
	PhaseShift float64

	vertices []Vertex
	bounds   Bounds
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Vertex returns the full record for buffer index i.
func (m *Mesh) Vertex(i uint32) (Vertex, bool) {
	if int(i) >= len(m.vertices) {
		return Vertex{}, false
	}
	return m.vertices[i], true
}

// Bounds returns the axis-aligned bounding box of all positions.
func (m *Mesh) Bounds() Bounds {
	return m.bounds
}

// appendVertex adds v to the flat buffers and grows the bounds.
func (m *Mesh) appendVertex(v Vertex) {
	m.vertices = append(m.vertices, v)
	m.Positions = append(m.Positions, v.Position)
	m.Normals = append(m.Normals, v.Normal)
	m.TexCoords = append(m.TexCoords, v.TexCoord)

	if len(m.vertices) == 1 {
		m.bounds = Bounds{Min: v.Position, Max: v.Position}
		return
	}
	m.bounds.Min = math.Vec3{
		X: gomath.Min(m.bounds.Min.X, v.Position.X),
		Y: gomath.Min(m.bounds.Min.Y, v.Position.Y),
		Z: gomath.Min(m.bounds.Min.Z, v.Position.Z),
	}
	m.bounds.Max = math.Vec3{
		X: gomath.Max(m.bounds.Max.X, v.Position.X),
		Y: gomath.Max(m.bounds.Max.Y, v.Position.Y),
		Z: gomath.Max(m.bounds.Max.Z, v.Position.Z),
	}
}
