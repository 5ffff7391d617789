// Package meshprep runs the mesh simplification stage: inventory, asset
// materialization and document rewrite.
package meshprep

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Faultbox/meshprep/internal/config"
	"github.com/Faultbox/meshprep/internal/materialize"
	"github.com/Faultbox/meshprep/internal/urdf"
)

// Result describes a finished run.
type Result struct {
	Paths   config.Paths
	Meshes  []string
	Summary *materialize.Summary
	Output  string
}

// Run simplifies every mesh cfg.Input references and writes the rewritten
// document to cfg.Output. Human-readable progress goes to report. The
// document is parsed before any mesh is touched; on error no output
// document is written.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger, report io.Writer) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if report == nil {
		report = io.Discard
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	doc, err := urdf.Load(cfg.Input)
	if err != nil {
		return nil, err
	}

	paths, err := cfg.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolving directories: %w", err)
	}

	names := doc.Meshes()
	log.Info("mesh inventory resolved",
		zap.String("input", cfg.Input),
		zap.Int("meshes", len(names)),
		zap.String("source_dir", paths.SourceDir))

	fmt.Fprintf(report, "Found %d unique STL meshes in %s\n", len(names), cfg.Input)
	fmt.Fprintf(report, "Reading originals from: %s\n", paths.SourceDir)
	switch {
	case cfg.Mesh.ConvexCollision:
		fmt.Fprintln(report, "Collision mode: CONVEX HULL")
	case paths.CollisionDir != "":
		fmt.Fprintf(report, "Collision mode: decimate at %.0f%%\n", cfg.Mesh.EffectiveCollisionRatio()*100)
	}
	fmt.Fprintln(report)

	summary, err := materialize.New(cfg.Mesh, paths, log).Run(ctx, names)
	if err != nil {
		return nil, err
	}
	summary.Print(report)

	target := urdf.Target{
		Package:   cfg.PackageName,
		VisualDir: cfg.Mesh.VisualDir,
	}
	if paths.CollisionDir != "" {
		target.CollisionDir = cfg.Mesh.CollisionDir
	}
	if err := urdf.Rewrite(doc, target).WriteFile(cfg.Output); err != nil {
		return nil, fmt.Errorf("writing %s: %w", cfg.Output, err)
	}

	log.Info("document written",
		zap.String("output", cfg.Output),
		zap.Int("original_triangles", summary.OriginalTriangles),
		zap.Int("visual_triangles", summary.VisualTriangles),
		zap.Int("missing", len(summary.Missing())))
	fmt.Fprintf(report, "\nURDF written: %s\n", cfg.Output)

	return &Result{
		Paths:   paths,
		Meshes:  names,
		Summary: summary,
		Output:  cfg.Output,
	}, nil
}
