// Package math provides the vector and quaternion types used by the geoid mesh.
package math

import (
	"errors"
	"math"
)

// DegenerateEpsilon is the squared length below which a vector cannot be
// measured or normalized.
const DegenerateEpsilon = 1e-20

// ErrDegenerateVector is returned when a near-zero vector is measured or normalized.
var ErrDegenerateVector = errors.New("degenerate vector: length too short")

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

// UnitZ points straight up through the north pole.
var UnitZ = Vec3{0, 0, 1}

// Neg returns -v.
func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// LengthSquared returns the squared magnitude.
func (v Vec3) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Length returns the magnitude.
func (v Vec3) Length() (float64, error) {
	ls := v.LengthSquared()
	if ls < DegenerateEpsilon {
		return 0, ErrDegenerateVector
	}
	return math.Sqrt(ls), nil
}

// Normalize returns a unit vector.
func (v Vec3) Normalize() (Vec3, error) {
	l, err := v.Length()
	if err != nil {
		return Vec3{}, err
	}
	inv := 1.0 / l
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}, nil
}

// XY returns v with the Z component dropped, as used for the radius of
// rotation around the polar axis.
func (v Vec3) XY() Vec3 {
	return Vec3{v.X, v.Y, 0}
}

// MakePerpendicular returns the unit vector obtained by removing from b its
// projection onto a. a must already be unit length.
func MakePerpendicular(a, b Vec3) (Vec3, error) {
	return b.Sub(a.Scale(a.Dot(b))).Normalize()
}

// ApproxEqual reports whether every component of v and other differs by at most eps.
func (v Vec3) ApproxEqual(other Vec3, eps float64) bool {
	return math.Abs(v.X-other.X) <= eps &&
		math.Abs(v.Y-other.Y) <= eps &&
		math.Abs(v.Z-other.Z) <= eps
}
