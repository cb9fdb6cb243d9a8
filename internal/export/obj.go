// Package export writes meshes in interchange formats.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/geoidmesh/internal/mesh"
)

// ErrNoMesh is returned when asked to export a nil or empty mesh.
var ErrNoMesh = errors.New("no mesh to export")

// OBJOptions controls Wavefront OBJ output.
type OBJOptions struct {
	// Scale multiplies every position, e.g. 1e-3 for kilometers.
	Scale float64
	// Comment is written as a header line when non-empty.
	Comment string
}

// WriteOBJ writes m as Wavefront OBJ with positions in meters.
func WriteOBJ(w io.Writer, m *mesh.Mesh) error {
	return WriteOBJWithOptions(w, m, OBJOptions{Scale: 1})
}

// WriteOBJWithOptions writes m as Wavefront OBJ: one v, vt and vn line per
// vertex and one f line per triangle, with 1-based indices.
func WriteOBJWithOptions(w io.Writer, m *mesh.Mesh, opts OBJOptions) error {
	if m == nil || m.VertexCount() == 0 {
		return ErrNoMesh
	}
	if opts.Scale == 0 {
		opts.Scale = 1
	}

	bw := bufio.NewWriter(w)

	if opts.Comment != "" {
		fmt.Fprintf(bw, "# %s\n", opts.Comment)
	}
	fmt.Fprintf(bw, "# vertices %d triangles %d phase %.9f\n", m.VertexCount(), m.TriangleCount(), m.PhaseShift)

	for _, p := range m.Positions {
		fmt.Fprintf(bw, "v %.6f %.6f %.6f\n", p.X*opts.Scale, p.Y*opts.Scale, p.Z*opts.Scale)
	}
	for _, uv := range m.TexCoords {
		fmt.Fprintf(bw, "vt %.9f %.9f\n", uv.X, uv.Y)
	}
	for _, n := range m.Normals {
		fmt.Fprintf(bw, "vn %.9f %.9f %.9f\n", n.X, n.Y, n.Z)
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i]+1, m.Indices[i+1]+1, m.Indices[i+2]+1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing obj: %w", err)
	}
	return nil
}
