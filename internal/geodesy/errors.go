package geodesy

import (
	"errors"
	"fmt"
)

// ErrGeometryInconsistency is matched by every failed internal cross-check.
var ErrGeometryInconsistency = errors.New("geometry inconsistency")

// Names of the internal cross-checks.
const (
	CheckDeltaZ            = "delta-z"
	CheckTangentUp         = "tangent-up"
	CheckCentrifugalRadial = "centrifugal-radial"
	CheckGravityNormal     = "gravity-normal"
)

// GeometryError reports a cross-check that fell outside its tolerance.
type GeometryError struct {
	Check     string
	Value     float64
	Latitude  float64
	Longitude float64
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry inconsistency: %s = %.10f at lat %.6f lon %.6f",
		e.Check, e.Value, e.Latitude, e.Longitude)
}

// Unwrap lets errors.Is match ErrGeometryInconsistency.
func (e *GeometryError) Unwrap() error {
	return ErrGeometryInconsistency
}
