// Package config handles meshprep configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Config holds all settings for one run. It is built once and passed by
// value to the components that need it.
type Config struct {
	Input       string         `yaml:"input" toml:"input"`
	Output      string         `yaml:"output" toml:"output"`
	PackageName string         `yaml:"package_name" toml:"package_name"`
	Mesh        MeshConfig     `yaml:"mesh" toml:"mesh"`
	Pipeline    PipelineConfig `yaml:"pipeline" toml:"pipeline"`
	Logging     LoggingConfig  `yaml:"logging" toml:"logging"`
}

// MeshConfig holds mesh simplification settings.
type MeshConfig struct {
	Ratio           float64 `yaml:"ratio" toml:"ratio"`                       // Visual triangles to keep (0, 1]
	CollisionRatio  float64 `yaml:"collision_ratio" toml:"collision_ratio"`   // 0 = unset
	ConvexCollision bool    `yaml:"convex_collision" toml:"convex_collision"` // Convex hulls for collision
	MinTriangles    int     `yaml:"min_triangles" toml:"min_triangles"`       // Copy meshes below this
	SourceDir       string  `yaml:"source_dir" toml:"source_dir"`
	VisualDir       string  `yaml:"visual_dir" toml:"visual_dir"`
	CollisionDir    string  `yaml:"collision_dir" toml:"collision_dir"`
}

// PipelineConfig holds the stage sequence for the build command.
type PipelineConfig struct {
	Stages []StageConfig `yaml:"stages" toml:"stages"`
	Skip   []string      `yaml:"skip" toml:"skip"`
	Deploy DeployConfig  `yaml:"deploy" toml:"deploy"`
}

// StageConfig describes an external pipeline stage run as a command.
// The mesh stage is named "meshes" and has no command.
type StageConfig struct {
	Name    string   `yaml:"name" toml:"name"`
	Command []string `yaml:"command" toml:"command"`
	Dir     string   `yaml:"dir" toml:"dir"`
}

// DeployConfig holds settings for copying results into a package.
type DeployConfig struct {
	Target string     `yaml:"target" toml:"target"`
	Files  []CopySpec `yaml:"files" toml:"files"`
}

// CopySpec copies one file into the deploy target.
type CopySpec struct {
	From string `yaml:"from" toml:"from"`
	To   string `yaml:"to" toml:"to"` // relative to the target
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// MeshStageName is the pipeline name of the mesh simplification stage.
const MeshStageName = "meshes"

// Placeholders expanded in stage commands when the pipeline is built.
const (
	PlaceholderInput   = "{input}"
	PlaceholderOutput  = "{output}"
	PlaceholderPackage = "{package}"
)

// Validation errors.
var (
	ErrInvalidRatio     = errors.New("ratio must be in (0, 1]")
	ErrInvalidThreshold = errors.New("min_triangles must not be negative")
	ErrMissingDir       = errors.New("directory not configured")
	ErrMissingInput     = errors.New("input document not configured")
)

// Default returns a Config with the defaults of a standalone mesh run.
func Default() *Config {
	return &Config{
		Input:  "robot_simplified.urdf",
		Output: "robot_sim.urdf",
		Mesh: MeshConfig{
			Ratio:           0.1,
			CollisionRatio:  0,
			ConvexCollision: false,
			MinTriangles:    50000,
			SourceDir:       "assets/",
			VisualDir:       "meshes/visual/",
			CollisionDir:    "meshes/collision/",
		},
		Pipeline: PipelineConfig{
			Stages: []StageConfig{
				{Name: "structure", Command: []string{"python3", "urdf_simplify.py", "robot.urdf"}},
				{Name: "limits", Command: []string{"python3", "apply_joint_limits.py"}},
				{Name: MeshStageName},
				{Name: "split", Command: []string{"python3", "split_urdf.py", "-i", PlaceholderOutput, "-p", PlaceholderPackage}},
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// BuildDefault returns the defaults of the build pipeline. The mesh stage
// reads the document written by the limits stage and writes the one the
// split stage reads; collision meshes become convex hulls.
func BuildDefault() *Config {
	cfg := Default()
	cfg.Input = "robot_with_limits.urdf"
	cfg.Output = "robot_gazebo.urdf"
	cfg.Mesh.Ratio = 0.2
	cfg.Mesh.ConvexCollision = true
	return cfg
}

// SeparateCollision reports whether collision meshes get their own
// treatment and directory.
func (m MeshConfig) SeparateCollision() bool {
	return m.ConvexCollision || m.CollisionRatio > 0
}

// EffectiveCollisionRatio returns the collision ratio, defaulting to the
// visual ratio.
func (m MeshConfig) EffectiveCollisionRatio() float64 {
	if m.CollisionRatio > 0 {
		return m.CollisionRatio
	}
	return m.Ratio
}

// Validate checks the settings a mesh run depends on.
func (c *Config) Validate() error {
	if c.Input == "" {
		return ErrMissingInput
	}
	m := c.Mesh
	if !(m.Ratio > 0 && m.Ratio <= 1) {
		return fmt.Errorf("%w: ratio %g", ErrInvalidRatio, m.Ratio)
	}
	if m.CollisionRatio < 0 || m.CollisionRatio > 1 {
		return fmt.Errorf("%w: collision_ratio %g", ErrInvalidRatio, m.CollisionRatio)
	}
	if m.MinTriangles < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, m.MinTriangles)
	}
	if m.SourceDir == "" {
		return fmt.Errorf("%w: source_dir", ErrMissingDir)
	}
	if m.VisualDir == "" {
		return fmt.Errorf("%w: visual_dir", ErrMissingDir)
	}
	if m.SeparateCollision() && m.CollisionDir == "" {
		return fmt.Errorf("%w: collision_dir", ErrMissingDir)
	}
	return nil
}

// Paths are the filesystem locations of one mesh run.
type Paths struct {
	SourceDir    string
	VisualDir    string
	CollisionDir string // empty when collision meshes are not separate
}

// Resolve returns the mesh directories relative to the directory of the
// input document, the way references inside the document are relative to
// it.
func (c *Config) Resolve() (Paths, error) {
	abs, err := filepath.Abs(c.Input)
	if err != nil {
		return Paths{}, err
	}
	base := filepath.Dir(abs)

	join := func(dir string) string {
		if filepath.IsAbs(dir) {
			return filepath.Clean(dir)
		}
		return filepath.Join(base, dir)
	}

	p := Paths{
		SourceDir: join(c.Mesh.SourceDir),
		VisualDir: join(c.Mesh.VisualDir),
	}
	if c.Mesh.SeparateCollision() {
		p.CollisionDir = join(c.Mesh.CollisionDir)
	}
	return p, nil
}
