package config

import "flag"

// Flags holds command-line overrides bound to a FlagSet.
type Flags struct {
	fs *flag.FlagSet

	Config          string
	Debug           bool
	LogFile         string
	Input           string
	Output          string
	PackageName     string
	Ratio           float64
	CollisionRatio  float64
	ConvexCollision bool
	MinTriangles    int
	SourceDir       string
	VisualDir       string
	CollisionDir    string
}

// RegisterFlags binds the configuration flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.Config, "config", "", "Path to config file (.yaml or .toml)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
	fs.StringVar(&f.Input, "i", "", "Input geometry document")
	fs.StringVar(&f.Input, "input", "", "Input geometry document")
	fs.StringVar(&f.Output, "o", "", "Output geometry document")
	fs.StringVar(&f.Output, "output", "", "Output geometry document")
	fs.StringVar(&f.PackageName, "package", "", "Package name prepended to rewritten references")
	fs.Float64Var(&f.Ratio, "r", 0, "Target ratio of triangles to keep for visual meshes")
	fs.Float64Var(&f.Ratio, "ratio", 0, "Target ratio of triangles to keep for visual meshes")
	fs.Float64Var(&f.CollisionRatio, "collision-ratio", 0, "Ratio for collision meshes when not using convex hulls")
	fs.BoolVar(&f.ConvexCollision, "convex-collision", false, "Use convex hulls for collision meshes")
	fs.IntVar(&f.MinTriangles, "min-triangles", 0, "Copy meshes with fewer triangles unchanged")
	fs.StringVar(&f.SourceDir, "source-dir", "", "Directory containing the original STL meshes")
	fs.StringVar(&f.VisualDir, "visual-dir", "", "Output directory for visual meshes")
	fs.StringVar(&f.CollisionDir, "collision-dir", "", "Output directory for collision meshes")
	return f
}

// set returns the names of flags given on the command line.
func (f *Flags) set() map[string]bool {
	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) {
		set[fl.Name] = true
	})
	return set
}

// applyFlags applies CLI flag overrides to the config. Only flags that were
// given explicitly override file values.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	set := f.set()
	given := func(names ...string) bool {
		for _, n := range names {
			if set[n] {
				return true
			}
		}
		return false
	}

	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if set["log-file"] {
		cfg.Logging.LogFile = f.LogFile
	}
	if given("i", "input") {
		cfg.Input = f.Input
	}
	if given("o", "output") {
		cfg.Output = f.Output
	}
	if set["package"] {
		cfg.PackageName = f.PackageName
	}
	if given("r", "ratio") {
		cfg.Mesh.Ratio = f.Ratio
	}
	if set["collision-ratio"] {
		cfg.Mesh.CollisionRatio = f.CollisionRatio
	}
	if set["convex-collision"] {
		cfg.Mesh.ConvexCollision = f.ConvexCollision
	}
	if set["min-triangles"] {
		cfg.Mesh.MinTriangles = f.MinTriangles
	}
	if set["source-dir"] {
		cfg.Mesh.SourceDir = f.SourceDir
	}
	if set["visual-dir"] {
		cfg.Mesh.VisualDir = f.VisualDir
	}
	if set["collision-dir"] {
		cfg.Mesh.CollisionDir = f.CollisionDir
	}
}
