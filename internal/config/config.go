// Package config handles geoid mesh configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/geoidmesh/internal/geodesy"
	"github.com/Faultbox/geoidmesh/internal/mesh"
	"github.com/Faultbox/geoidmesh/internal/render"
)

// Config holds all settings.
type Config struct {
	Ellipsoid    geodesy.Ellipsoid  `yaml:"ellipsoid"`
	Physics      PhysicsConfig      `yaml:"physics"`
	Tessellation TessellationConfig `yaml:"tessellation"`
	Render       RenderConfig       `yaml:"render"`
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// PhysicsConfig holds the planet's rotation and mass. Mass arrives as
// kilograms the way ephemeris tables list it.
type PhysicsConfig struct {
	RotationRate float64 `yaml:"rotation_rate"` // rad/s
	Mass         float64 `yaml:"mass"`          // kg
	TimeStep     float64 `yaml:"time_step"`     // seconds
}

// TessellationConfig holds mesh density settings.
type TessellationConfig struct {
	RowLatitudeDelta  float64 `yaml:"row_latitude_delta"` // degrees
	MaxVertexesPerRow int     `yaml:"max_vertexes_per_row"`
	SelfCheck         bool    `yaml:"self_check"`
	GravityTolerance  float64 `yaml:"gravity_tolerance"`
}

// RenderConfig places the planet in scene units and sets the starting
// camera offered to clients.
type RenderConfig struct {
	Scale  float32    `yaml:"scale"`  // scene units per meter
	Offset [3]float32 `yaml:"offset"` // planet center in scene units
	Tilt   float32    `yaml:"tilt"`   // axial tilt, degrees

	CameraYaw   float32 `yaml:"camera_yaw"`   // degrees
	CameraPitch float32 `yaml:"camera_pitch"` // degrees
	Aspect      float32 `yaml:"aspect"`       // viewport width / height
}

// ServerConfig holds the mesh streaming server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	RequestsPerSec  float64       `yaml:"requests_per_sec"` // per connection
	Burst           int           `yaml:"burst"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	MaxMessageBytes int64         `yaml:"max_message_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Ellipsoid: geodesy.WGS84,
		Physics: PhysicsConfig{
			RotationRate: geodesy.EarthRotationRate,
			Mass:         geodesy.EarthMass,
			TimeStep:     1.0,
		},
		Tessellation: TessellationConfig{
			RowLatitudeDelta:  5,
			MaxVertexesPerRow: 128,
			SelfCheck:         true,
			GravityTolerance:  geodesy.DefaultGravityTolerance,
		},
		Render: RenderConfig{
			Scale:       1e-6,
			CameraPitch: 20,
			Aspect:      16.0 / 9,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			RequestsPerSec:  5,
			Burst:           2,
			WriteTimeout:    10 * time.Second,
			MaxMessageBytes: 4096,
			ShutdownTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// MeshOptions converts the geometry sections to builder options.
func (c *Config) MeshOptions() mesh.Options {
	p := geodesy.PhysicsFromMass(c.Physics.Mass, c.Physics.RotationRate)
	p.TimeStep = c.Physics.TimeStep
	return mesh.Options{
		Ellipsoid:         c.Ellipsoid,
		Physics:           p,
		RowLatitudeDelta:  c.Tessellation.RowLatitudeDelta,
		MaxVertexesPerRow: c.Tessellation.MaxVertexesPerRow,
		SelfCheck:         c.Tessellation.SelfCheck,
		GravityTolerance:  c.Tessellation.GravityTolerance,
	}
}

// Placement converts the render section to a scene placement.
func (c *Config) Placement() render.Placement {
	return render.Placement{
		Scale:  c.Render.Scale,
		Offset: c.Render.Offset,
		Tilt:   c.Render.Tilt,
	}
}

// View converts the camera fields of the render section.
func (c *Config) View() render.View {
	return render.View{
		Yaw:    c.Render.CameraYaw,
		Pitch:  c.Render.CameraPitch,
		Aspect: c.Render.Aspect,
	}
}

// Validate checks every section that has constraints.
func (c *Config) Validate() error {
	if err := c.MeshOptions().Validate(); err != nil {
		return err
	}
	if c.Server.RequestsPerSec <= 0 || c.Server.Burst < 1 {
		return fmt.Errorf("server rate limit %v/s burst %d must be positive", c.Server.RequestsPerSec, c.Server.Burst)
	}
	if c.Render.Scale <= 0 {
		return fmt.Errorf("render scale %v must be positive", c.Render.Scale)
	}
	if c.Render.Aspect <= 0 {
		return fmt.Errorf("render aspect %v must be positive", c.Render.Aspect)
	}
	return nil
}
