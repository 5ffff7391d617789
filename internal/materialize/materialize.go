// Package materialize decides how each referenced mesh is processed and
// writes the visual and collision assets.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/meshprep/internal/config"
	"github.com/Faultbox/meshprep/internal/decimate"
	"github.com/Faultbox/meshprep/internal/fileutil"
	"github.com/Faultbox/meshprep/internal/hull"
	"github.com/Faultbox/meshprep/pkg/mesh"
	"github.com/Faultbox/meshprep/pkg/stl"
)

// Treatment is what happened to a mesh's visual asset.
type Treatment int

const (
	TreatmentMissing  Treatment = iota // Source file not found, skipped
	TreatmentBypass                    // Below threshold, copied as-is
	TreatmentDecimate                  // Decimated at the visual ratio
)

// String returns a short treatment name.
func (t Treatment) String() string {
	switch t {
	case TreatmentMissing:
		return "skip"
	case TreatmentBypass:
		return "copy"
	case TreatmentDecimate:
		return "decimate"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// CollisionMode is how a mesh's collision asset was produced.
type CollisionMode int

const (
	CollisionNone     CollisionMode = iota // Collision shares the visual asset
	CollisionHull                          // Convex hull
	CollisionDecimate                      // Decimated at the collision ratio
	CollisionCopy                          // Copied as-is
)

// String returns a short mode name.
func (c CollisionMode) String() string {
	switch c {
	case CollisionNone:
		return "none"
	case CollisionHull:
		return "convex"
	case CollisionDecimate:
		return "decimate"
	case CollisionCopy:
		return "copy"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// MeshReport is the outcome for one mesh basename.
type MeshReport struct {
	Name          string
	Treatment     Treatment
	Visual        mesh.Reduction
	CollisionMode CollisionMode
	Collision     mesh.Reduction
	SourceBytes   int64
	VisualBytes   int64
}

// Materializer processes meshes from the source directory into the visual
// and collision output directories.
type Materializer struct {
	cfg   config.MeshConfig
	paths config.Paths
	log   *zap.Logger
}

// New returns a Materializer. paths.CollisionDir empty means collision
// meshes are not produced separately.
func New(cfg config.MeshConfig, paths config.Paths, log *zap.Logger) *Materializer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Materializer{cfg: cfg, paths: paths, log: log}
}

// Run processes every name in order and returns the accumulated summary.
// Missing sources are skipped; any other failure stops the run. ctx is
// checked between meshes.
func (m *Materializer) Run(ctx context.Context, names []string) (*Summary, error) {
	if err := os.MkdirAll(m.paths.VisualDir, 0755); err != nil {
		return nil, fmt.Errorf("creating visual dir: %w", err)
	}
	if m.paths.CollisionDir != "" {
		if err := os.MkdirAll(m.paths.CollisionDir, 0755); err != nil {
			return nil, fmt.Errorf("creating collision dir: %w", err)
		}
	}

	summary := &Summary{
		SeparateCollision: m.paths.CollisionDir != "",
		ConvexCollision:   m.cfg.ConvexCollision,
		MinTriangles:      m.cfg.MinTriangles,
		SourceDir:         m.cfg.SourceDir,
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report, err := m.Process(name)
		if err != nil {
			return nil, fmt.Errorf("processing %s: %w", name, err)
		}
		summary.add(report)
	}
	return summary, nil
}

// Process handles a single mesh basename.
func (m *Materializer) Process(name string) (MeshReport, error) {
	report := MeshReport{Name: name}
	src := filepath.Join(m.paths.SourceDir, name)

	info, err := os.Stat(src)
	if errors.Is(err, os.ErrNotExist) {
		m.log.Warn("mesh not found in source dir, skipping",
			zap.String("mesh", name),
			zap.String("source_dir", m.paths.SourceDir))
		report.Treatment = TreatmentMissing
		return report, nil
	}
	if err != nil {
		return report, err
	}
	report.SourceBytes = info.Size()

	triangles, err := stl.CountTriangles(src)
	if err != nil {
		return report, err
	}

	visualPath := filepath.Join(m.paths.VisualDir, name)
	job := &meshJob{src: src}

	if triangles < m.cfg.MinTriangles {
		if err := fileutil.Copy(src, visualPath); err != nil {
			return report, err
		}
		report.Treatment = TreatmentBypass
		report.Visual = mesh.Reduction{Original: triangles, Final: triangles}
		report.VisualBytes = report.SourceBytes
		m.log.Debug("mesh under threshold, copied",
			zap.String("mesh", name),
			zap.Int("triangles", triangles),
			zap.Int("min_triangles", m.cfg.MinTriangles))

		if err := m.collision(job, name, &report, true); err != nil {
			return report, err
		}
		return report, nil
	}

	res, err := job.decimate(visualPath, m.cfg.Ratio)
	if err != nil {
		return report, fmt.Errorf("decimating visual mesh: %w", err)
	}
	report.Treatment = TreatmentDecimate
	report.Visual = res
	if report.VisualBytes, err = fileutil.Size(visualPath); err != nil {
		return report, err
	}
	m.log.Debug("visual mesh decimated",
		zap.String("mesh", name),
		zap.Int("original", res.Original),
		zap.Int("final", res.Final))

	if err := m.collision(job, name, &report, false); err != nil {
		return report, err
	}
	return report, nil
}

// collision writes the collision asset when collision meshes are separate.
func (m *Materializer) collision(job *meshJob, name string, report *MeshReport, bypassed bool) error {
	if m.paths.CollisionDir == "" {
		return nil
	}
	dst := filepath.Join(m.paths.CollisionDir, name)

	var (
		res mesh.Reduction
		err error
	)
	switch {
	case m.cfg.ConvexCollision:
		report.CollisionMode = CollisionHull
		res, err = job.hull(dst)
		if err == nil && res.Final > res.Original {
			m.log.Debug("hull has more triangles than the source mesh, source is open or degenerate",
				zap.String("mesh", name),
				zap.Int("original", res.Original),
				zap.Int("hull", res.Final))
		}
	case bypassed:
		report.CollisionMode = CollisionCopy
		res = report.Visual
		err = fileutil.Copy(job.src, dst)
	default:
		report.CollisionMode = CollisionDecimate
		res, err = job.decimate(dst, m.cfg.EffectiveCollisionRatio())
	}
	if err != nil {
		return fmt.Errorf("collision mesh (%s): %w", report.CollisionMode, err)
	}
	report.Collision = res
	return nil
}

// meshJob loads the source geometry at most once per mesh.
type meshJob struct {
	src  string
	mesh *mesh.Mesh
}

func (j *meshJob) load() (*mesh.Mesh, error) {
	if j.mesh == nil {
		m, err := mesh.Load(j.src)
		if err != nil {
			return nil, err
		}
		j.mesh = m
	}
	return j.mesh, nil
}

func (j *meshJob) decimate(dst string, ratio float64) (mesh.Reduction, error) {
	src, err := j.load()
	if err != nil {
		return mesh.Reduction{}, err
	}
	if src.TriangleCount() == 0 {
		return mesh.Reduction{}, fileutil.Copy(j.src, dst)
	}
	out, res, err := decimate.Decimate(src, ratio)
	if err != nil {
		return mesh.Reduction{}, err
	}
	return res, out.Save(dst)
}

func (j *meshJob) hull(dst string) (mesh.Reduction, error) {
	src, err := j.load()
	if err != nil {
		return mesh.Reduction{}, err
	}
	if src.TriangleCount() == 0 {
		return mesh.Reduction{}, fileutil.Copy(j.src, dst)
	}
	out, res, err := hull.Compute(src)
	if err != nil {
		return mesh.Reduction{}, err
	}
	return res, out.Save(dst)
}
