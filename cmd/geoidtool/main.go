// geoidtool is a CLI utility for inspecting and exporting ellipsoid meshes.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Faultbox/geoidmesh/internal/config"
	"github.com/Faultbox/geoidmesh/internal/export"
	"github.com/Faultbox/geoidmesh/internal/mesh"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "rows":
		cmdRows(args)
	case "vertex", "v":
		cmdVertex(args)
	case "obj", "export":
		cmdOBJ(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`geoidtool - ellipsoid mesh utility

Usage:
  geoidtool <command> [options]

Commands:
  info [-delta d] [-max n]              Show mesh statistics
  rows [-delta d] [-max n]              Show the row schedule
  vertex [-shift r | -hours h] <lat> <lon>  Show one surface point
  obj [-delta d] [-hours h] [-scale s] <out.obj>  Export Wavefront OBJ
  config [-o path]                      Write the effective config as YAML

Every command takes -config <file>. The ellipsoid and physics come from
that file, or from ./geoidmesh.yaml or the user config when it is omitted.
Put negative coordinates after "--".

Examples:
  geoidtool info -delta 10
  geoidtool rows -config mars.yaml
  geoidtool vertex -- -33.9 18.4
  geoidtool obj -hours 6 -scale 0.001 earth.obj`)
}

// meshFlags holds the config file and tessellation overrides shared by
// several commands.
type meshFlags struct {
	config    *string
	delta     *float64
	maxPerRow *int
}

func addMeshFlags(fs *flag.FlagSet) meshFlags {
	return meshFlags{
		config:    configFlag(fs),
		delta:     fs.Float64("delta", 0, "Row latitude spacing in degrees (0 = config)"),
		maxPerRow: fs.Int("max", 0, "Maximum vertexes per row (0 = config)"),
	}
}

func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "", "Path to config file (default: search ./geoidmesh.yaml, then the user config)")
}

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadFrom(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func (f meshFlags) options() mesh.Options {
	opts := loadConfig(*f.config).MeshOptions()
	if *f.delta > 0 {
		opts.RowLatitudeDelta = *f.delta
	}
	if *f.maxPerRow > 0 {
		opts.MaxVertexesPerRow = *f.maxPerRow
	}
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return opts
}

func newBuilder(opts mesh.Options) *mesh.Builder {
	b, err := mesh.NewBuilder(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return b
}

func buildMesh(opts mesh.Options, shift float64) *mesh.Mesh {
	m, err := newBuilder(opts).Build(shift)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Build failed: %v\n", err)
		os.Exit(1)
	}
	return m
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	mf := addMeshFlags(fs)
	fs.Parse(args)

	opts := mf.options()
	start := time.Now()
	m := buildMesh(opts, 0)
	took := time.Since(start)

	e := opts.Ellipsoid
	b := m.Bounds()
	fmt.Printf("Ellipsoid:  a=%.3f m  b=%.6f m  f=1/%.6f\n", e.Major, e.Minor, 1/e.Flattening())
	fmt.Printf("Physics:    omega=%.9g rad/s  GM=%.6g m^3/s^2\n", opts.Physics.RotationRate, opts.Physics.GM)
	fmt.Printf("Rows:       %d (every %g deg, max %d per row)\n", len(m.Rows), opts.RowLatitudeDelta, opts.MaxVertexesPerRow)
	fmt.Printf("Vertices:   %d\n", m.VertexCount())
	fmt.Printf("Triangles:  %d\n", m.TriangleCount())
	fmt.Printf("Bounds:     (%.1f, %.1f, %.1f) .. (%.1f, %.1f, %.1f)\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	fmt.Printf("Self-check: %v\n", opts.SelfCheck)
	fmt.Printf("Built in:   %v\n", took)
}

func cmdRows(args []string) {
	fs := flag.NewFlagSet("rows", flag.ExitOnError)
	mf := addMeshFlags(fs)
	fs.Parse(args)

	opts := mf.options()
	total := opts.TotalRows()

	fmt.Printf("%4s  %9s  %8s\n", "row", "latitude", "vertexes")
	sum := 0
	for i := 0; i < total; i++ {
		n := mesh.RowVertexCount(i, total, opts.MaxVertexesPerRow)
		sum += n
		fmt.Printf("%4d  %9.3f  %8d\n", i, mesh.RowLatitude(i, total), n)
	}
	fmt.Fprintf(os.Stderr, "\n(%d rows, %d vertexes)\n", total, sum)
}

func cmdVertex(args []string) {
	fs := flag.NewFlagSet("vertex", flag.ExitOnError)
	cfgPath := configFlag(fs)
	shift := fs.Float64("shift", 0, "Phase shift in radians")
	hours := fs.Float64("hours", -1, "Time of day in hours (overrides -shift)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: geoidtool vertex [-shift r | -hours h] <lat> <lon>")
		os.Exit(1)
	}
	lat, err := strconv.ParseFloat(fs.Arg(0), 64)
	if err != nil || lat < -90 || lat > 90 {
		fmt.Fprintf(os.Stderr, "Invalid latitude: %s\n", fs.Arg(0))
		os.Exit(1)
	}
	lon, err := strconv.ParseFloat(fs.Arg(1), 64)
	if err != nil || lon < -180 || lon > 180 {
		fmt.Fprintf(os.Stderr, "Invalid longitude: %s\n", fs.Arg(1))
		os.Exit(1)
	}
	if *hours >= 0 {
		*shift = mesh.PhaseShiftForHours(*hours)
	}

	model := newBuilder(loadConfig(*cfgPath).MeshOptions()).Model()
	p, err := model.Surface(lat, lon, *shift)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Latitude:     %.6f (parametric)  %.6f (geodetic)\n", p.ApproxLatitude, p.GeodeticLatitude)
	fmt.Printf("Longitude:    %.6f\n", p.Longitude)
	fmt.Printf("Position:     %.3f %.3f %.3f\n", p.Position.X, p.Position.Y, p.Position.Z)
	fmt.Printf("Normal:       %.9f %.9f %.9f\n", p.Normal.X, p.Normal.Y, p.Normal.Z)
	fmt.Printf("TexCoord:     %.6f %.6f\n", p.TexCoord.X, p.TexCoord.Y)
	fmt.Printf("Velocity:     %.6f %.6f %.6f\n", p.Velocity.X, p.Velocity.Y, p.Velocity.Z)
	fmt.Printf("Centrifugal:  %.9f %.9f %.9f\n", p.CentrifugalAccel.X, p.CentrifugalAccel.Y, p.CentrifugalAccel.Z)
	fmt.Printf("Gravity:      %.6f %.6f %.6f\n", p.GravityAccel.X, p.GravityAccel.Y, p.GravityAccel.Z)
	fmt.Printf("Acceleration: %.6f %.6f %.6f\n", p.Acceleration.X, p.Acceleration.Y, p.Acceleration.Z)
}

func cmdOBJ(args []string) {
	fs := flag.NewFlagSet("obj", flag.ExitOnError)
	mf := addMeshFlags(fs)
	hours := fs.Float64("hours", 0, "Time of day in hours")
	scale := fs.Float64("scale", 1, "Position scale (0.001 = kilometers)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: geoidtool obj [-delta d] [-hours h] [-scale s] <out.obj>")
		os.Exit(1)
	}

	opts := mf.options()
	m := buildMesh(opts, mesh.PhaseShiftForHours(*hours))

	out, err := os.Create(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating file: %v\n", err)
		os.Exit(1)
	}

	comment := fmt.Sprintf("geoidmesh a=%g b=%g delta=%g hours=%g", opts.Ellipsoid.Major, opts.Ellipsoid.Minor, opts.RowLatitudeDelta, *hours)
	werr := export.WriteOBJWithOptions(out, m, export.OBJOptions{Scale: *scale, Comment: comment})
	if cerr := out.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", werr)
		os.Exit(1)
	}

	fmt.Printf("Exported: %s (%d vertices, %d triangles)\n", fs.Arg(0), m.VertexCount(), m.TriangleCount())
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	cfgPath := configFlag(fs)
	out := fs.String("o", config.UserConfigPath(), "Output path")
	fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	if err := config.Save(cfg, *out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote: %s\n", *out)
}
