package geodesy

import (
	"fmt"
	gomath "math"

	"github.com/golang/geo/s1"

	"github.com/Faultbox/geoidmesh/pkg/math"
)

// Surface evaluation constants.
const (
	// PoleLatitude is the |latitude| at or above which a point is treated as a pole.
	PoleLatitude = 89.999

	// EquatorLatitude is the |latitude| below which a point is treated as equatorial.
	EquatorLatitude = 1e-5

	// LatitudeStep is the forward-difference step used to build the meridian
	// tangent, radians.
	LatitudeStep = 1e-7

	// CentrifugalTolerance bounds |dot(centrifugal, radial) - 1|.
	CentrifugalTolerance = 1e-6

	// DefaultGravityTolerance bounds dot(gravity+centrifugal, normal) + 1.
	DefaultGravityTolerance = 1e-3
)

// Model evaluates surface points for one ellipsoid and physics setup.
type Model struct {
	Ellipsoid Ellipsoid
	Physics   Physics

	// SelfCheck enables the internal geometry cross-checks.
	SelfCheck bool

	// GravityTolerance for the gravity-normal check; zero means the default.
	GravityTolerance float64
}

// NewModel returns a model with self-checks enabled.
func NewModel(e Ellipsoid, p Physics) Model {
	return Model{
		Ellipsoid:        e,
		Physics:          p,
		SelfCheck:        true,
		GravityTolerance: DefaultGravityTolerance,
	}
}

// Validate checks the ellipsoid and physics parameters.
func (m Model) Validate() error {
	if err := m.Ellipsoid.Validate(); err != nil {
		return err
	}
	return m.Physics.Validate()
}

// SurfacePoint is everything known about one point of the surface.
type SurfacePoint struct {
	// ApproxLatitude is the parametric latitude the point was generated for, degrees.
	ApproxLatitude float64
	// GeodeticLatitude is derived from the normal, degrees.
	GeodeticLatitude float64
	// Longitude in degrees, in [-180, 180].
	Longitude float64

	Position math.Vec3
	Normal   math.Vec3
	TexCoord math.Vec2

	Velocity         math.Vec3
	CentrifugalAccel math.Vec3
	GravityAccel     math.Vec3
	Acceleration     math.Vec3
}

// IsPole reports whether the point was generated as a pole.
func (p SurfacePoint) IsPole() bool {
	return gomath.Abs(p.ApproxLatitude) >= PoleLatitude
}

// Surface evaluates the point at the given approximate latitude and longitude
// (degrees) with the planet rotated by shift radians around its polar axis.
// The shift turns position and normal together; latitude and texture
// coordinates stay attached to the body.
func (m Model) Surface(approxLat, lon, shift float64) (SurfacePoint, error) {
	pt := SurfacePoint{
		ApproxLatitude: approxLat,
		Longitude:      lon,
	}

	lat := s1.Angle(approxLat) * s1.Degree
	lonAngle := s1.Angle(lon) * s1.Degree
	spin := math.QuatFromAxisAngle(math.UnitZ, shift)

	switch {
	case gomath.Abs(approxLat) >= PoleLatitude:
		sign := 1.0
		if approxLat < 0 {
			sign = -1.0
		}
		pt.Position = math.Vec3{X: 0, Y: 0, Z: sign * m.Ellipsoid.Minor}
		pt.Normal = math.UnitZ.Scale(sign)
		pt.GeodeticLatitude = sign * 90

	case gomath.Abs(approxLat) < EquatorLatitude:
		pt.Position = spin.Rotate(m.Ellipsoid.Point(lat, lonAngle))
		n, err := pt.Position.XY().Normalize()
		if err != nil {
			return SurfacePoint{}, fmt.Errorf("equatorial normal at lon %.6f: %w", lon, err)
		}
		pt.Normal = n
		pt.GeodeticLatitude = geodeticLatitude(n)

	default:
		pos := m.Ellipsoid.Point(lat, lonAngle)
		n, err := m.meridianNormal(pos, lat, lonAngle, approxLat, lon)
		if err != nil {
			return SurfacePoint{}, err
		}
		pt.Position = spin.Rotate(pos)
		pt.Normal = spin.Rotate(n)
		pt.GeodeticLatitude = geodeticLatitude(pt.Normal)
	}

	pt.TexCoord = math.Vec2{
		X: (lon + 180) / 360,
		Y: 1 - (pt.GeodeticLatitude+90)/180,
	}

	if !pt.IsPole() {
		if err := m.rotation(&pt); err != nil {
			return SurfacePoint{}, err
		}
	}

	g, err := GravitationalAcceleration(pt.Position, m.Physics.GM)
	if err != nil {
		return SurfacePoint{}, fmt.Errorf("gravity at lat %.6f lon %.6f: %w", approxLat, lon, err)
	}
	pt.GravityAccel = g
	pt.Acceleration = g.Add(pt.CentrifugalAccel)

	if m.SelfCheck && m.Physics.GM > 0 {
		if err := m.checkGravityNormal(pt); err != nil {
			return SurfacePoint{}, err
		}
	}

	return pt, nil
}

// meridianNormal builds the outward normal from the tangent toward higher
// parametric latitude.
func (m Model) meridianNormal(pos math.Vec3, lat, lon s1.Angle, approxLat, lonDeg float64) (math.Vec3, error) {
	ahead := m.Ellipsoid.Point(lat+s1.Angle(LatitudeStep), lon)

	if m.SelfCheck && ahead.Z < pos.Z {
		return math.Vec3{}, &GeometryError{
			Check:     CheckDeltaZ,
			Value:     ahead.Z - pos.Z,
			Latitude:  approxLat,
			Longitude: lonDeg,
		}
	}

	tangent, err := ahead.Sub(pos).Normalize()
	if err != nil {
		return math.Vec3{}, fmt.Errorf("meridian tangent at lat %.6f lon %.6f: %w", approxLat, lonDeg, err)
	}

	if up := tangent.Dot(math.UnitZ); m.SelfCheck && up < 0 {
		return math.Vec3{}, &GeometryError{
			Check:     CheckTangentUp,
			Value:     up,
			Latitude:  approxLat,
			Longitude: lonDeg,
		}
	}

	n, err := math.MakePerpendicular(tangent, math.UnitZ)
	if err != nil {
		return math.Vec3{}, fmt.Errorf("surface normal at lat %.6f lon %.6f: %w", approxLat, lonDeg, err)
	}
	if pos.Z < 0 {
		n = n.Neg()
	}
	return n, nil
}

// rotation fills velocity and centrifugal acceleration by finite differences
// over one time step of spin before and after the point.
func (m Model) rotation(pt *SurfacePoint) error {
	dt := m.Physics.TimeStep
	step := m.Physics.RotationRate * dt
	if step == 0 {
		return nil
	}

	turn := math.QuatFromAxisAngle(math.UnitZ, step)
	ahead := turn.Rotate(pt.Position)
	behind := turn.Conjugate().Rotate(pt.Position)

	vAhead := ahead.Sub(pt.Position).Scale(1 / dt)
	vBehind := pt.Position.Sub(behind).Scale(1 / dt)

	pt.Velocity = vAhead
	pt.CentrifugalAccel = vAhead.Sub(vBehind).Scale(1 / dt).Neg()

	if !m.SelfCheck {
		return nil
	}

	radial, err := pt.Position.XY().Normalize()
	if err != nil {
		return fmt.Errorf("radial direction at lat %.6f lon %.6f: %w", pt.ApproxLatitude, pt.Longitude, err)
	}
	c, err := pt.CentrifugalAccel.Normalize()
	if err != nil {
		return fmt.Errorf("centrifugal direction at lat %.6f lon %.6f: %w", pt.ApproxLatitude, pt.Longitude, err)
	}
	if d := c.Dot(radial); gomath.Abs(d-1) > CentrifugalTolerance {
		return &GeometryError{
			Check:     CheckCentrifugalRadial,
			Value:     d,
			Latitude:  pt.ApproxLatitude,
			Longitude: pt.Longitude,
		}
	}
	return nil
}

func (m Model) checkGravityNormal(pt SurfacePoint) error {
	tol := m.GravityTolerance
	if tol <= 0 {
		tol = DefaultGravityTolerance
	}
	total, err := pt.Acceleration.Normalize()
	if err != nil {
		return fmt.Errorf("total acceleration at lat %.6f lon %.6f: %w", pt.ApproxLatitude, pt.Longitude, err)
	}
	if d := total.Dot(pt.Normal); d > -1+tol {
		return &GeometryError{
			Check:     CheckGravityNormal,
			Value:     d,
			Latitude:  pt.ApproxLatitude,
			Longitude: pt.Longitude,
		}
	}
	return nil
}

// GravitationalAcceleration returns the point-mass gravity at pos, pointing
// toward the origin with magnitude gm/|pos|^2.
func GravitationalAcceleration(pos math.Vec3, gm float64) (math.Vec3, error) {
	dir, err := pos.Normalize()
	if err != nil {
		return math.Vec3{}, err
	}
	r2 := pos.LengthSquared()
	return dir.Scale(-gm / r2), nil
}

// geodeticLatitude is the complement of the angle between n and the polar
// axis, 90 - acos(n.z) degrees, evaluated as asin for accuracy near the poles.
func geodeticLatitude(n math.Vec3) float64 {
	z := gomath.Max(-1, gomath.Min(n.Z, 1))
	return s1.Angle(gomath.Asin(z)).Degrees()
}
