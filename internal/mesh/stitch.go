package mesh

import (
	"errors"
	"fmt"
)

// ErrRowMismatch is matched by every stitching precondition failure.
var ErrRowMismatch = errors.New("row mismatch")

// Stitch cases.
const (
	CaseEqual           = "equal"
	CaseDoubling        = "doubling"
	CaseDoublingReverse = "doubling-reverse"
	CaseNorthPole       = "north-pole"
	CaseSouthPole       = "south-pole"
)

// RowMismatchError reports two rows whose vertex counts do not fit the
// requested stitch case. UpperRow is the row nearer the north pole.
type RowMismatchError struct {
	UpperRow   int
	LowerRow   int
	UpperCount int
	LowerCount int
	Case       string
}

func (e *RowMismatchError) Error() string {
	return fmt.Sprintf("row mismatch (%s): row %d has %d vertices, row %d has %d",
		e.Case, e.UpperRow, e.UpperCount, e.LowerRow, e.LowerCount)
}

// Unwrap lets errors.Is match ErrRowMismatch.
func (e *RowMismatchError) Unwrap() error {
	return ErrRowMismatch
}

func mismatch(stitchCase string, upper, lower Row) error {
	return &RowMismatchError{
		UpperRow:   upper.Index,
		LowerRow:   lower.Index,
		UpperCount: upper.Len(),
		LowerCount: lower.Len(),
		Case:       stitchCase,
	}
}

// StitchEqual joins two rings of the same count with one quad (two
// triangles) per column gap: 2(N-1) triangles.
func StitchEqual(upper, lower Row) ([]uint32, error) {
	n := upper.Len()
	if n < 2 || lower.Len() != n {
		return nil, mismatch(CaseEqual, upper, lower)
	}

	f, s := upper.indices(), lower.indices()
	out := make([]uint32, 0, 6*(n-1))
	for i := 0; i < n-1; i++ {
		out = append(out,
			f[i], s[i], s[i+1],
			s[i+1], f[i+1], f[i],
		)
	}
	return out, nil
}

// StitchDoubling joins a sparse upper ring of N vertices to a dense lower
// ring of 2N vertices, used while moving away from the north pole:
// 3N-2 triangles. The dense ring must hold exactly 2N vertices; a longer
// ring would leave its tail unstitched, so any other count is a mismatch.
func StitchDoubling(upper, lower Row) ([]uint32, error) {
	n := upper.Len()
	if n < 2 || lower.Len() != 2*n {
		return nil, mismatch(CaseDoubling, upper, lower)
	}

	s, d := upper.indices(), lower.indices()
	out := make([]uint32, 0, 3*(3*n-2))
	out = append(out, s[0], d[0], d[1])
	for i := 1; i < n; i++ {
		out = append(out,
			s[i], d[2*i], d[2*i+1],
			s[i], d[2*i-1], d[2*i],
			d[2*i-1], s[i], s[i-1],
		)
	}
	return out, nil
}

// StitchDoublingReverse joins a dense upper ring of 2N vertices to a sparse
// lower ring of N vertices, used while approaching the south pole. It mirrors
// StitchDoubling, emits the same number of triangles and has the same
// exactly-2N precondition.
func StitchDoublingReverse(upper, lower Row) ([]uint32, error) {
	n := lower.Len()
	if n < 2 || upper.Len() != 2*n {
		return nil, mismatch(CaseDoublingReverse, upper, lower)
	}

	d, b := upper.indices(), lower.indices()
	out := make([]uint32, 0, 3*(3*n-2))
	out = append(out, b[0], d[1], d[0])
	for i := 1; i < n; i++ {
		out = append(out,
			b[i], d[2*i+1], d[2*i],
			b[i], d[2*i], d[2*i-1],
			d[2*i-1], b[i-1], b[i],
		)
	}
	return out, nil
}

// StitchNorthPole fans the north pole vertex into the first ring.
func StitchNorthPole(pole, ring Row) ([]uint32, error) {
	if !pole.IsPole() || ring.Len() != FirstRingVertexes {
		return nil, mismatch(CaseNorthPole, pole, ring)
	}
	p, r := pole.Vertices[0].Index, ring.indices()
	return []uint32{
		p, r[0], r[1],
		p, r[1], r[2],
		p, r[2], r[3],
	}, nil
}

// StitchSouthPole fans the last ring into the south pole vertex with the
// opposite winding of StitchNorthPole.
func StitchSouthPole(ring, pole Row) ([]uint32, error) {
	if !pole.IsPole() || ring.Len() != FirstRingVertexes {
		return nil, mismatch(CaseSouthPole, ring, pole)
	}
	p, r := pole.Vertices[0].Index, ring.indices()
	return []uint32{
		p, r[3], r[2],
		p, r[2], r[1],
		p, r[1], r[0],
	}, nil
}

// stitchRows picks the case for two adjacent rings from their counts.
func stitchRows(upper, lower Row) ([]uint32, error) {
	switch {
	case upper.Len() == lower.Len():
		return StitchEqual(upper, lower)
	case lower.Len() > upper.Len():
		return StitchDoubling(upper, lower)
	default:
		return StitchDoublingReverse(upper, lower)
	}
}
