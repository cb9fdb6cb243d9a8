package server

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/geoidmesh/internal/mesh"
	"github.com/Faultbox/geoidmesh/internal/render"
)

// Message types sent to clients.
const (
	TypeMeshUpdate = "mesh_update"
	TypeError      = "error"
)

var (
	// ErrNoShift is returned for a request that carries neither field.
	ErrNoShift = errors.New("request needs phaseShift or hours")
	// ErrAmbiguousShift is returned for a request that carries both fields.
	ErrAmbiguousShift = errors.New("request has both phaseShift and hours")
)

// Request asks for a rebuild, either at an explicit phase shift in radians
// or at a time of day in hours.
type Request struct {
	PhaseShift *float64 `json:"phaseShift,omitempty"`
	Hours      *float64 `json:"hours,omitempty"`
}

// Shift resolves the requested phase shift in radians.
func (r Request) Shift() (float64, error) {
	switch {
	case r.PhaseShift != nil && r.Hours != nil:
		return 0, ErrAmbiguousShift
	case r.PhaseShift != nil:
		return *r.PhaseShift, nil
	case r.Hours != nil:
		return mesh.PhaseShiftForHours(*r.Hours), nil
	default:
		return 0, ErrNoShift
	}
}

// MeshUpdate carries one rebuilt mesh as an interleaved vertex buffer:
// Stride floats per vertex, position in meters, then normal, then texture
// coordinate. Model and NormalMatrix place the planet in the scene.
type MeshUpdate struct {
	Type         string     `json:"type"`
	Seq          uint64     `json:"seq"`
	PhaseShift   float64    `json:"phaseShift"`
	Vertices     int        `json:"vertices"`
	Triangles    int        `json:"triangles"`
	Stride       int        `json:"stride"`
	Buffer       []float32  `json:"buffer"`
	Indices      []uint32   `json:"indices"`
	Model        mgl32.Mat4 `json:"model"`
	NormalMatrix mgl32.Mat3 `json:"normalMatrix"`
	Camera       CameraView `json:"camera"`
}

// CameraView is a starting viewpoint that frames the whole mesh. Projection
// is built for Aspect; clients with another viewport rebuild it from FovY,
// Near and Far.
type CameraView struct {
	Eye        mgl32.Vec3 `json:"eye"`
	View       mgl32.Mat4 `json:"view"`
	Projection mgl32.Mat4 `json:"projection"`
	Aspect     float32    `json:"aspect"`
	FovY       float32    `json:"fovY"`
	Near       float32    `json:"near"`
	Far        float32    `json:"far"`
}

func newCameraView(m *mesh.Mesh, place render.Placement, view render.View) CameraView {
	cam := render.NewOrbitCamera()
	cam.FitToBounds(place.Bounds(m.Bounds()))
	cam.Orbit(mgl32.DegToRad(view.Yaw), mgl32.DegToRad(view.Pitch))
	return CameraView{
		Eye:        cam.Position(),
		View:       cam.ViewMatrix(),
		Projection: cam.ProjectionMatrix(view.Aspect),
		Aspect:     view.Aspect,
		FovY:       cam.FovY,
		Near:       cam.Near,
		Far:        cam.Far,
	}
}

// ErrorMessage reports a rejected request or failed rebuild.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
	Seq   uint64 `json:"seq,omitempty"`
}

func newMeshUpdate(seq uint64, m *mesh.Mesh, place render.Placement, view render.View) (*MeshUpdate, error) {
	packed, err := render.Pack(m, place)
	if err != nil {
		return nil, err
	}
	return &MeshUpdate{
		Type:         TypeMeshUpdate,
		Seq:          seq,
		PhaseShift:   m.PhaseShift,
		Vertices:     packed.VertexCount(),
		Triangles:    m.TriangleCount(),
		Stride:       render.Stride,
		Buffer:       packed.Vertices,
		Indices:      packed.Indices,
		Model:        packed.Model,
		NormalMatrix: packed.Normal,
		Camera:       newCameraView(m, place, view),
	}, nil
}

func newError(seq uint64, err error) *ErrorMessage {
	return &ErrorMessage{Type: TypeError, Error: err.Error(), Seq: seq}
}
