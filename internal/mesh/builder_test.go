package mesh

import (
	"errors"
	gomath "math"
	"reflect"
	"testing"

	"github.com/Faultbox/geoidmesh/internal/geodesy"
	"github.com/Faultbox/geoidmesh/pkg/math"
)

func cross(a, b math.Vec3) math.Vec3 {
	return math.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func newBuilder(t *testing.T, opts Options, options ...BuilderOption) *Builder {
	t.Helper()
	b, err := NewBuilder(opts, options...)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func tenDegree() Options {
	opts := DefaultOptions()
	opts.RowLatitudeDelta = 10
	return opts
}

func TestFirstRingScenario(t *testing.T) {
	m, err := newBuilder(t, tenDegree()).Build(0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := m.Rows[0].Len(); got != 1 {
		t.Fatalf("pole row: %d vertices, want 1", got)
	}
	first := m.Rows[1]
	if first.ApproxLatitude != 80 {
		t.Errorf("first ring latitude %v, want 80", first.ApproxLatitude)
	}
	if first.Len() != 4 {
		t.Fatalf("first ring: %d vertices, want 4", first.Len())
	}

	wantLon := []float64{-180, -60, 60, 180}
	wantTex := []float64{0, 1.0 / 3, 2.0 / 3, 1}
	for i, v := range first.Vertices {
		if v.Longitude != wantLon[i] {
			t.Errorf("vertex %d longitude %v, want %v", i, v.Longitude, wantLon[i])
		}
		if gomath.Abs(v.TexCoord.X-wantTex[i]) > 1e-12 {
			t.Errorf("vertex %d tex X %v, want %v", i, v.TexCoord.X, wantTex[i])
		}
	}

	// The seam vertices share a location but not a texture coordinate
	a, b := first.Vertices[0], first.Vertices[3]
	if !a.Position.ApproxEqual(b.Position, 1e-6) {
		t.Errorf("seam positions differ: %+v vs %+v", a.Position, b.Position)
	}
}

func TestBuildMeshDefaults(t *testing.T) {
	m, err := BuildMesh(0)
	if err != nil {
		t.Fatalf("BuildMesh: %v", err)
	}
	if len(m.Rows) != 37 {
		t.Errorf("rows: got %d, want 37", len(m.Rows))
	}
	if m.Rows[18].Len() != 128 || m.Rows[18].ApproxLatitude != 0 {
		t.Errorf("equator row: %d vertices at %v", m.Rows[18].Len(), m.Rows[18].ApproxLatitude)
	}
}

func TestMeshBuffers(t *testing.T) {
	for _, delta := range []float64{5, 10, 45, 90} {
		opts := DefaultOptions()
		opts.RowLatitudeDelta = delta
		m, err := newBuilder(t, opts).Build(0.25)
		if err != nil {
			t.Fatalf("delta %v: Build: %v", delta, err)
		}

		if len(m.Indices)%3 != 0 {
			t.Errorf("delta %v: index count %d is not a multiple of 3", delta, len(m.Indices))
		}
		for _, idx := range m.Indices {
			if int(idx) >= len(m.Positions) {
				t.Fatalf("delta %v: index %d out of range %d", delta, idx, len(m.Positions))
			}
		}
		if len(m.Normals) != len(m.Positions) || len(m.TexCoords) != len(m.Positions) {
			t.Errorf("delta %v: buffer lengths differ", delta)
		}

		for i, n := range m.Normals {
			if l := gomath.Sqrt(n.LengthSquared()); gomath.Abs(l-1) > 1e-9 {
				t.Errorf("delta %v: vertex %d |normal| = %v", delta, i, l)
			}
			if !m.TexCoords[i].InUnitSquare() {
				t.Errorf("delta %v: vertex %d tex %+v", delta, i, m.TexCoords[i])
			}
		}
	}
}

func TestGenerationOrder(t *testing.T) {
	m, err := newBuilder(t, tenDegree()).Build(0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var want uint32
	for _, row := range m.Rows {
		for _, v := range row.Vertices {
			if v.Index != want {
				t.Fatalf("row %d: index %d, want %d", row.Index, v.Index, want)
			}
			got, ok := m.Vertex(v.Index)
			if !ok || got.Position != m.Positions[v.Index] {
				t.Errorf("Vertex(%d) does not match the position buffer", v.Index)
			}
			want++
		}
	}
	if int(want) != m.VertexCount() {
		t.Errorf("vertex count %d, rows hold %d", m.VertexCount(), want)
	}

	north, _ := m.Vertex(0)
	south, _ := m.Vertex(uint32(m.VertexCount() - 1))
	if north.Normal.Z != 1 || south.Normal.Z != -1 {
		t.Errorf("pole normals: north %+v south %+v", north.Normal, south.Normal)
	}
	if _, ok := m.Vertex(uint32(m.VertexCount())); ok {
		t.Error("Vertex past the end should report false")
	}
}

func TestTriangleCount(t *testing.T) {
	for _, opts := range []Options{DefaultOptions(), tenDegree()} {
		m, err := newBuilder(t, opts).Build(0)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}

		want := 6
		for i := 1; i < len(m.Rows)-2; i++ {
			a, b := m.Rows[i].Len(), m.Rows[i+1].Len()
			if a == b {
				want += 2 * (a - 1)
			} else {
				want += 3*min(a, b) - 2
			}
		}
		if got := m.TriangleCount(); got != want {
			t.Errorf("delta %v: %d triangles, want %d", opts.RowLatitudeDelta, got, want)
		}
	}
}

func TestWindingFacesOutward(t *testing.T) {
	for _, delta := range []float64{5, 10, 45, 90} {
		opts := DefaultOptions()
		opts.RowLatitudeDelta = delta
		m, err := newBuilder(t, opts).Build(1.0)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}

		for i := 0; i+2 < len(m.Indices); i += 3 {
			a := m.Positions[m.Indices[i]]
			b := m.Positions[m.Indices[i+1]]
			c := m.Positions[m.Indices[i+2]]
			n := cross(b.Sub(a), c.Sub(a))
			centroid := a.Add(b).Add(c).Scale(1.0 / 3)
			if n.Dot(centroid) <= 0 {
				t.Errorf("delta %v: triangle %d (%d %d %d) faces inward", delta, i/3,
					m.Indices[i], m.Indices[i+1], m.Indices[i+2])
			}
		}
	}
}

func TestEveryVertexIsStitched(t *testing.T) {
	m, err := newBuilder(t, tenDegree()).Build(0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	used := make([]bool, m.VertexCount())
	for _, idx := range m.Indices {
		used[idx] = true
	}
	for i, u := range used {
		if !u {
			t.Errorf("vertex %d is not part of any triangle", i)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	b := newBuilder(t, DefaultOptions())
	m1, err := b.Build(0.5)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	m2, err := b.Build(0.5)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(m1.Positions, m2.Positions) ||
		!reflect.DeepEqual(m1.Normals, m2.Normals) ||
		!reflect.DeepEqual(m1.TexCoords, m2.TexCoords) ||
		!reflect.DeepEqual(m1.Indices, m2.Indices) {
		t.Error("two builds with the same parameters differ")
	}
}

func TestPhaseShiftKeepsTopology(t *testing.T) {
	b := newBuilder(t, tenDegree())
	m1, err := b.Build(0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	m2, err := b.Build(gomath.Pi / 3)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(m1.Indices, m2.Indices) {
		t.Error("phase shift changed the index buffer")
	}
	if m2.PhaseShift != gomath.Pi/3 {
		t.Errorf("PhaseShift: got %v", m2.PhaseShift)
	}
	if reflect.DeepEqual(m1.Positions, m2.Positions) {
		t.Error("phase shift did not move any vertex")
	}
}

func TestBounds(t *testing.T) {
	m, err := BuildMesh(0)
	if err != nil {
		t.Fatalf("BuildMesh: %v", err)
	}
	bb := m.Bounds()
	e := geodesy.WGS84
	if gomath.Abs(bb.Max.Z-e.Minor) > 1e-6 || gomath.Abs(bb.Min.Z+e.Minor) > 1e-6 {
		t.Errorf("Z bounds: %+v", bb)
	}
	if bb.Max.X > e.Major+1e-6 || bb.Min.X < -e.Major-1e-6 {
		t.Errorf("X bounds exceed the equatorial radius: %+v", bb)
	}
	for _, p := range m.Positions {
		if p.X < bb.Min.X || p.Y < bb.Min.Y || p.Z < bb.Min.Z ||
			p.X > bb.Max.X || p.Y > bb.Max.Y || p.Z > bb.Max.Z {
			t.Fatalf("position %+v outside bounds %+v", p, bb)
		}
	}
}

type recordingObserver struct {
	stats []BuildStats
	errs  []error
}

func (r *recordingObserver) ObserveBuild(stats BuildStats, err error) {
	r.stats = append(r.stats, stats)
	r.errs = append(r.errs, err)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	m, err := newBuilder(t, tenDegree(), WithObserver(obs)).Build(0.1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(obs.stats) != 1 {
		t.Fatalf("observer called %d times, want 1", len(obs.stats))
	}
	s := obs.stats[0]
	if obs.errs[0] != nil {
		t.Errorf("unexpected error: %v", obs.errs[0])
	}
	if s.Rows != len(m.Rows) || s.Vertices != m.VertexCount() || s.Triangles != m.TriangleCount() {
		t.Errorf("stats %+v do not match mesh", s)
	}
	if s.PhaseShift != 0.1 {
		t.Errorf("phase shift: got %v", s.PhaseShift)
	}
}

func TestBuildAbortsOnGeometryError(t *testing.T) {
	opts := tenDegree()
	opts.Ellipsoid = geodesy.Ellipsoid{Major: 6378137, Minor: 3000000}
	obs := &recordingObserver{}

	m, err := newBuilder(t, opts, WithObserver(obs)).Build(0)
	if m != nil {
		t.Error("no mesh should be returned on failure")
	}
	if !errors.Is(err, geodesy.ErrGeometryInconsistency) {
		t.Fatalf("expected ErrGeometryInconsistency, got %v", err)
	}
	if len(obs.errs) != 1 || obs.errs[0] == nil {
		t.Errorf("observer should see the failure, got %v", obs.errs)
	}

	// The same shape builds once self-checks are off
	opts.SelfCheck = false
	if _, err := newBuilder(t, opts).Build(0); err != nil {
		t.Errorf("Build without self-checks: %v", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr error
	}{
		{"defaults", func(*Options) {}, nil},
		{"delta 15", func(o *Options) { o.RowLatitudeDelta = 15 }, nil},
		{"delta 7", func(o *Options) { o.RowLatitudeDelta = 7 }, ErrInvalidOptions},
		{"delta zero", func(o *Options) { o.RowLatitudeDelta = 0 }, ErrInvalidOptions},
		{"delta too big", func(o *Options) { o.RowLatitudeDelta = 180 }, ErrInvalidOptions},
		{"cap not power of two", func(o *Options) { o.MaxVertexesPerRow = 100 }, ErrInvalidOptions},
		{"cap too small", func(o *Options) { o.MaxVertexesPerRow = 2 }, ErrInvalidOptions},
		{"cap 256", func(o *Options) { o.MaxVertexesPerRow = 256 }, nil},
		{"negative tolerance", func(o *Options) { o.GravityTolerance = -1 }, ErrInvalidOptions},
		{"bad ellipsoid", func(o *Options) { o.Ellipsoid.Minor = -1 }, geodesy.ErrInvalidEllipsoid},
		{"bad physics", func(o *Options) { o.Physics.TimeStep = 0 }, geodesy.ErrInvalidPhysics},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if _, err := NewBuilder(opts); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewBuilder: expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTotalRows(t *testing.T) {
	tests := []struct {
		delta float64
		want  int
	}{
		{5, 37},
		{10, 19},
		{45, 5},
		{90, 3},
		{2.5, 73},
	}
	for _, tt := range tests {
		o := Options{RowLatitudeDelta: tt.delta}
		if got := o.TotalRows(); got != tt.want {
			t.Errorf("TotalRows(%v) = %d, want %d", tt.delta, got, tt.want)
		}
	}
}

func TestPhaseShiftForHours(t *testing.T) {
	tests := []struct {
		hours float64
		want  float64
	}{
		{0, 0},
		{0.5, gomath.Pi / 24},
		{6, gomath.Pi / 2},
		{24, 2 * gomath.Pi},
		{-12, -gomath.Pi},
	}
	for _, tt := range tests {
		if got := PhaseShiftForHours(tt.hours); gomath.Abs(got-tt.want) > 1e-12 {
			t.Errorf("PhaseShiftForHours(%v) = %v, want %v", tt.hours, got, tt.want)
		}
	}
}
