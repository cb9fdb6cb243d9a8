package mesh

import (
	"errors"
	"fmt"
	gomath "math"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/geoidmesh/internal/geodesy"
	"github.com/Faultbox/geoidmesh/internal/logger"
)

// ErrInvalidOptions is returned for tessellation options that cannot produce
// a closed mesh.
var ErrInvalidOptions = errors.New("invalid mesh options")

// Options configures tessellation.
type Options struct {
	Ellipsoid geodesy.Ellipsoid
	Physics   geodesy.Physics

	// RowLatitudeDelta is the latitude spacing between rows in degrees.
	// It must divide 90 evenly so the equator gets its own row.
	RowLatitudeDelta float64

	// MaxVertexesPerRow caps ring density; a power of two, at least 4.
	MaxVertexesPerRow int

	SelfCheck        bool
	GravityTolerance float64
}

// DefaultOptions returns a WGS84 Earth with 5 degree rows capped at 128.
func DefaultOptions() Options {
	return Options{
		Ellipsoid:         geodesy.WGS84,
		Physics:           geodesy.EarthPhysics(),
		RowLatitudeDelta:  5,
		MaxVertexesPerRow: 128,
		SelfCheck:         true,
		GravityTolerance:  geodesy.DefaultGravityTolerance,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if err := o.Ellipsoid.Validate(); err != nil {
		return err
	}
	if err := o.Physics.Validate(); err != nil {
		return err
	}
	if !(o.RowLatitudeDelta > 0) || o.RowLatitudeDelta > 90 {
		return fmt.Errorf("%w: row latitude delta %v must be in (0, 90]", ErrInvalidOptions, o.RowLatitudeDelta)
	}
	steps := 90 / o.RowLatitudeDelta
	if gomath.Abs(steps-gomath.Round(steps)) > 1e-9 {
		return fmt.Errorf("%w: row latitude delta %v does not divide 90", ErrInvalidOptions, o.RowLatitudeDelta)
	}
	if n := o.MaxVertexesPerRow; n < FirstRingVertexes || n&(n-1) != 0 {
		return fmt.Errorf("%w: max vertexes per row %d must be a power of two >= %d", ErrInvalidOptions, n, FirstRingVertexes)
	}
	if o.GravityTolerance < 0 || o.GravityTolerance >= 2 {
		return fmt.Errorf("%w: gravity tolerance %v must be in [0, 2)", ErrInvalidOptions, o.GravityTolerance)
	}
	return nil
}

// TotalRows returns the number of rows from pole to pole, both poles included.
func (o Options) TotalRows() int {
	return int(gomath.Round(180/o.RowLatitudeDelta)) + 1
}

// PhaseShiftForHours converts a time of day in hours to a rotation angle in
// radians at 15 degrees per hour.
func PhaseShiftForHours(hours float64) float64 {
	return hours * 2 * gomath.Pi / 24
}

// BuildStats summarizes one build for observers.
type BuildStats struct {
	PhaseShift float64
	Rows       int
	Vertices   int
	Triangles  int
	Duration   time.Duration
}

// Observer is notified after every build attempt. err is nil on success.
type Observer interface {
	ObserveBuild(stats BuildStats, err error)
}

// Builder produces meshes for one set of options. It holds no mutable state
// between builds and is safe for concurrent use.
type Builder struct {
	opts     Options
	model    geodesy.Model
	observer Observer
	log      *zap.Logger
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithObserver reports every build to o.
func WithObserver(o Observer) BuilderOption {
	return func(b *Builder) { b.observer = o }
}

// WithLogger replaces the component logger.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.log = l }
}

// NewBuilder validates opts and returns a Builder.
func NewBuilder(opts Options, options ...BuilderOption) (*Builder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	b := &Builder{
		opts: opts,
		model: geodesy.Model{
			Ellipsoid:        opts.Ellipsoid,
			Physics:          opts.Physics,
			SelfCheck:        opts.SelfCheck,
			GravityTolerance: opts.GravityTolerance,
		},
		log: logger.Named("mesh"),
	}
	for _, o := range options {
		o(b)
	}
	return b, nil
}

// Options returns the options the builder was created with.
func (b *Builder) Options() Options {
	return b.opts
}

// Model returns the surface model used for every vertex.
func (b *Builder) Model() geodesy.Model {
	return b.model
}

// BuildMesh builds a mesh with DefaultOptions.
func BuildMesh(shift float64) (*Mesh, error) {
	b, err := NewBuilder(DefaultOptions())
	if err != nil {
		return nil, err
	}
	return b.Build(shift)
}

// Build tessellates the ellipsoid rotated by shift radians. Any vertex or
// stitching error aborts the build and no mesh is returned.
func (b *Builder) Build(shift float64) (*Mesh, error) {
	start := time.Now()
	m, err := b.build(shift)

	stats := BuildStats{
		PhaseShift: shift,
		Duration:   time.Since(start),
	}
	if err == nil {
		stats.Rows = len(m.Rows)
		stats.Vertices = m.VertexCount()
		stats.Triangles = m.TriangleCount()
	}
	if b.observer != nil {
		b.observer.ObserveBuild(stats, err)
	}

	if err != nil {
		b.log.Warn("mesh build failed", zap.Float64("phase_shift", shift), zap.Error(err))
		return nil, err
	}

	b.log.Debug("mesh built",
		zap.Float64("phase_shift", shift),
		zap.Int("rows", stats.Rows),
		zap.Int("vertices", stats.Vertices),
		zap.Int("triangles", stats.Triangles),
		zap.Duration("took", stats.Duration),
	)
	return m, nil
}

func (b *Builder) build(shift float64) (*Mesh, error) {
	total := b.opts.TotalRows()
	m := &Mesh{
		PhaseShift: shift,
		Rows:       make([]Row, 0, total),
	}

	var next uint32
	for i := 0; i < total; i++ {
		count := RowVertexCount(i, total, b.opts.MaxVertexesPerRow)
		row, err := BuildRow(b.model, i, RowLatitude(i, total), count, shift, next)
		if err != nil {
			return nil, err
		}
		for _, v := range row.Vertices {
			m.appendVertex(v)
		}
		next += uint32(row.Len())
		m.Rows = append(m.Rows, row)
	}

	tris, err := StitchNorthPole(m.Rows[0], m.Rows[1])
	if err != nil {
		return nil, err
	}
	m.Indices = append(m.Indices, tris...)

	for i := 1; i < total-2; i++ {
		tris, err := stitchRows(m.Rows[i], m.Rows[i+1])
		if err != nil {
			return nil, err
		}
		m.Indices = append(m.Indices, tris...)
	}

	tris, err = StitchSouthPole(m.Rows[total-2], m.Rows[total-1])
	if err != nil {
		return nil, err
	}
	m.Indices = append(m.Indices, tris...)

	return m, nil
}
