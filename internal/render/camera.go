package render

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/geoidmesh/internal/mesh"
)

// OrbitCamera orbits the planet center. The scene is Z-up, matching the
// polar axis of the mesh.
type OrbitCamera struct {
	// Center point to orbit around
	Center mgl32.Vec3

	// Spherical coordinates
	Distance float32 // Distance from center
	Pitch    float32 // Elevation above the equatorial plane, radians
	Yaw      float32 // Rotation around the polar axis, radians

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Projection
	FovY float32 // degrees
	Near float32
	Far  float32
}

// NewOrbitCamera creates an orbit camera sized for a planet of radius ~6.4
// scene units, which is what DefaultPlacement produces for the Earth.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:    20,
		Pitch:       0.3,
		MinDistance: 7,
		MaxDistance: 200,
		MinPitch:    -1.5,
		MaxPitch:    1.5,
		FovY:        45,
		Near:        0.1,
		Far:         400,
	}
}

// Position returns the camera position in scene space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	cp := float32(gomath.Cos(float64(c.Pitch)))
	sp := float32(gomath.Sin(float64(c.Pitch)))
	cy := float32(gomath.Cos(float64(c.Yaw)))
	sy := float32(gomath.Sin(float64(c.Yaw)))
	return c.Center.Add(mgl32.Vec3{cp * cy, cp * sy, sp}.Mul(c.Distance))
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 0, 1})
}

// ProjectionMatrix returns a perspective projection for the given aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// Orbit moves the camera to the given angles, keeping pitch and distance
// inside the constraints.
func (c *OrbitCamera) Orbit(yaw, pitch float32) {
	c.Yaw = yaw
	c.Pitch = mgl32.Clamp(pitch, c.MinPitch, c.MaxPitch)
	c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// View is the starting viewpoint offered to clients.
type View struct {
	Yaw    float32 // degrees around the polar axis
	Pitch  float32 // degrees above the equatorial plane
	Aspect float32 // width / height of the client viewport
}

// DefaultView looks at longitude 0 from slightly above the equator.
func DefaultView() View {
	return View{Pitch: 20, Aspect: 16.0 / 9}
}

// FitToBounds centers the camera on the box and backs off until a sphere
// around it fills the vertical field of view.
func (c *OrbitCamera) FitToBounds(lo, hi mgl32.Vec3) {
	c.Center = lo.Add(hi).Mul(0.5)
	radius := hi.Sub(lo).Len() / 2
	if radius <= 0 {
		return
	}

	half := float64(mgl32.DegToRad(c.FovY)) / 2
	c.Distance = radius / float32(gomath.Sin(half)) * 1.1
	c.MinDistance = radius * 1.05
	c.MaxDistance = c.Distance * 10
	c.Near = radius * 0.01
	c.Far = c.MaxDistance + radius*2
}

// Bounds returns the scene-space box enclosing b after placement.
func (p Placement) Bounds(b mesh.Bounds) (lo, hi mgl32.Vec3) {
	for i := 0; i < 8; i++ {
		corner := b.Min
		if i&1 != 0 {
			corner.X = b.Max.X
		}
		if i&2 != 0 {
			corner.Y = b.Max.Y
		}
		if i&4 != 0 {
			corner.Z = b.Max.Z
		}
		v := p.Apply(corner)
		if i == 0 {
			lo, hi = v, v
			continue
		}
		for k := 0; k < 3; k++ {
			if v[k] < lo[k] {
				lo[k] = v[k]
			}
			if v[k] > hi[k] {
				hi[k] = v[k]
			}
		}
	}
	return lo, hi
}
