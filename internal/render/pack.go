// Package render converts a mesh into GPU-ready buffers and a model matrix.
package render

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/geoidmesh/internal/mesh"
	"github.com/Faultbox/geoidmesh/pkg/math"
)

// Stride is the number of floats per interleaved vertex:
// position (3), normal (3), texture coordinate (2).
const Stride = 8

// ErrEmptyMesh is returned when there is nothing to pack.
var ErrEmptyMesh = errors.New("mesh has no vertices")

// Placement positions the planet in scene units.
type Placement struct {
	// Scale converts meters to scene units.
	Scale float32
	// Offset is the planet center in scene units.
	Offset mgl32.Vec3
	// Tilt rotates the polar axis around scene X, degrees.
	Tilt float32
}

// DefaultPlacement draws the planet at the origin, one scene unit per 1000 km.
func DefaultPlacement() Placement {
	return Placement{Scale: 1e-6}
}

// Model returns translation * rotation * scale.
func (p Placement) Model() mgl32.Mat4 {
	t := mgl32.Translate3D(p.Offset.X(), p.Offset.Y(), p.Offset.Z())
	r := mgl32.HomogRotate3DX(mgl32.DegToRad(p.Tilt))
	s := mgl32.Scale3D(p.Scale, p.Scale, p.Scale)
	return t.Mul4(r).Mul4(s)
}

// NormalMatrix returns the inverse transpose of the model's upper 3x3.
func (p Placement) NormalMatrix() mgl32.Mat3 {
	return p.Model().Mat3().Inv().Transpose()
}

// Apply maps a position in meters to scene units.
func (p Placement) Apply(v math.Vec3) mgl32.Vec3 {
	return p.Model().Mul4x1(toVec3(v).Vec4(1)).Vec3()
}

// Packed is an interleaved vertex buffer with its index buffer.
type Packed struct {
	Vertices []float32
	Indices  []uint32
	Model    mgl32.Mat4
	Normal   mgl32.Mat3
}

// VertexCount returns the number of interleaved vertices.
func (p *Packed) VertexCount() int {
	return len(p.Vertices) / Stride
}

// Pack interleaves the mesh buffers. Positions stay in meters; the model
// matrix carries the placement.
func Pack(m *mesh.Mesh, place Placement) (*Packed, error) {
	if m == nil || m.VertexCount() == 0 {
		return nil, ErrEmptyMesh
	}

	out := &Packed{
		Vertices: make([]float32, 0, m.VertexCount()*Stride),
		Indices:  make([]uint32, len(m.Indices)),
		Model:    place.Model(),
		Normal:   place.NormalMatrix(),
	}

	for i, p := range m.Positions {
		n := m.Normals[i]
		uv := m.TexCoords[i]
		out.Vertices = append(out.Vertices,
			float32(p.X), float32(p.Y), float32(p.Z),
			float32(n.X), float32(n.Y), float32(n.Z),
			float32(uv.X), float32(uv.Y),
		)
	}
	copy(out.Indices, m.Indices)

	return out, nil
}

func toVec3(v math.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}
