package pipeline

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/Faultbox/meshprep/internal/config"
	"github.com/Faultbox/meshprep/internal/meshprep"
)

// MeshStage runs mesh simplification in process.
type MeshStage struct {
	cfg    *config.Config
	log    *zap.Logger
	report io.Writer
}

// NewMeshStage creates the mesh stage for cfg.
func NewMeshStage(cfg *config.Config, log *zap.Logger, report io.Writer) *MeshStage {
	return &MeshStage{cfg: cfg, log: log, report: report}
}

func (s *MeshStage) Name() string { return config.MeshStageName }

// Describe summarizes the stage settings.
func (s *MeshStage) Describe() string {
	mode := "visual only"
	switch {
	case s.cfg.Mesh.ConvexCollision:
		mode = "visual + convex collision"
	case s.cfg.Mesh.SeparateCollision():
		mode = "visual + decimated collision"
	}
	return "Decimate meshes (" + mode + "): " + s.cfg.Input + " -> " + s.cfg.Output
}

func (s *MeshStage) Run(ctx context.Context) error {
	_, err := meshprep.Run(ctx, s.cfg, s.log, s.report)
	return err
}
