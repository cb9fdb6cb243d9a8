// Package geodesy computes positions, surface normals, geodetic latitude and
// the acceleration field on the surface of a rotating oblate ellipsoid.
package geodesy

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/golang/geo/s1"

	"github.com/Faultbox/geoidmesh/pkg/math"
)

// Parameter validation errors.
var (
	ErrInvalidEllipsoid = errors.New("invalid ellipsoid")
	ErrInvalidPhysics   = errors.New("invalid physics parameters")
)

// Ellipsoid is an oblate spheroid given by its equatorial (major) and
// polar (minor) radii in meters.
type Ellipsoid struct {
	Major float64 `yaml:"major"`
	Minor float64 `yaml:"minor"`
}

// WGS84 is the reference ellipsoid used for the Earth.
var WGS84 = Ellipsoid{
	Major: 6378137.0,
	Minor: 6356752.314245,
}

// Validate checks Major >= Minor > 0.
func (e Ellipsoid) Validate() error {
	if !(e.Minor > 0) {
		return fmt.Errorf("%w: minor radius %v must be positive", ErrInvalidEllipsoid, e.Minor)
	}
	if e.Major < e.Minor {
		return fmt.Errorf("%w: major radius %v is smaller than minor radius %v", ErrInvalidEllipsoid, e.Major, e.Minor)
	}
	return nil
}

// Flattening returns (Major - Minor) / Major.
func (e Ellipsoid) Flattening() float64 {
	return (e.Major - e.Minor) / e.Major
}

// Point returns the parametric surface point for the given latitude and
// longitude. The latitude here drives the parametrization only; it is not the
// geodetic latitude of the returned point.
func (e Ellipsoid) Point(lat, lon s1.Angle) math.Vec3 {
	cosLat := gomath.Cos(lat.Radians())
	return math.Vec3{
		X: e.Major * cosLat * gomath.Cos(lon.Radians()),
		Y: e.Major * cosLat * gomath.Sin(lon.Radians()),
		Z: e.Minor * gomath.Sin(lat.Radians()),
	}
}

// Physical constants for the default Earth model.
const (
	// GravitationalConstant in m^3 kg^-1 s^-2.
	GravitationalConstant = 6.6740831e-11

	// EarthMass in kilograms.
	EarthMass = 5.97237e24

	// EarthRotationRate is the sidereal rotation rate in radians per second.
	EarthRotationRate = 7.2921159e-5
)

// Physics holds the rotation and gravity parameters of the planet.
type Physics struct {
	// RotationRate is the angular speed around the polar axis, rad/s.
	RotationRate float64 `yaml:"rotation_rate"`

	// GM is the gravitational parameter G*M, m^3/s^2.
	GM float64 `yaml:"gm"`

	// TimeStep is the finite-difference step used for velocity and
	// centrifugal acceleration, seconds.
	TimeStep float64 `yaml:"time_step"`
}

// EarthPhysics returns the default rotation and gravity parameters.
func EarthPhysics() Physics {
	return Physics{
		RotationRate: EarthRotationRate,
		GM:           GravitationalConstant * EarthMass,
		TimeStep:     1.0,
	}
}

// PhysicsFromMass builds physics parameters from a planet mass in kilograms,
// as received from an ephemeris source.
func PhysicsFromMass(massKg, rotationRate float64) Physics {
	return Physics{
		RotationRate: rotationRate,
		GM:           GravitationalConstant * massKg,
		TimeStep:     1.0,
	}
}

// Validate checks that rates are non-negative and the time step is positive.
func (p Physics) Validate() error {
	if p.RotationRate < 0 {
		return fmt.Errorf("%w: rotation rate %v is negative", ErrInvalidPhysics, p.RotationRate)
	}
	if p.GM < 0 {
		return fmt.Errorf("%w: GM %v is negative", ErrInvalidPhysics, p.GM)
	}
	if !(p.TimeStep > 0) {
		return fmt.Errorf("%w: time step %v must be positive", ErrInvalidPhysics, p.TimeStep)
	}
	return nil
}
