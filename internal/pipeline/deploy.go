package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshprep/internal/config"
	"github.com/Faultbox/meshprep/internal/fileutil"
)

// DeployStageName is the pipeline name of the deploy stage.
const DeployStageName = "deploy"

// ErrNoTarget is returned when the deploy target directory does not exist.
var ErrNoTarget = errors.New("target directory does not exist")

// DeployStage copies processed meshes and extra files into a description
// package.
type DeployStage struct {
	Target       string
	VisualDir    string
	CollisionDir string // empty when collision meshes are not separate
	Files        []config.CopySpec

	log *zap.Logger
	out io.Writer
}

// NewDeployStage creates a deploy stage.
func NewDeployStage(target string, paths config.Paths, files []config.CopySpec, log *zap.Logger, out io.Writer) *DeployStage {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &DeployStage{
		Target:       target,
		VisualDir:    paths.VisualDir,
		CollisionDir: paths.CollisionDir,
		Files:        files,
		log:          log,
		out:          out,
	}
}

func (s *DeployStage) Name() string { return DeployStageName }

// Describe names the target.
func (s *DeployStage) Describe() string {
	return "Deploying to " + s.Target
}

func (s *DeployStage) Run(ctx context.Context) error {
	info, err := os.Stat(s.Target)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNoTarget, s.Target)
	}

	for _, f := range s.Files {
		dst := filepath.Join(s.Target, f.To)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if err := fileutil.Copy(f.From, dst); err != nil {
			return fmt.Errorf("deploying %s: %w", f.From, err)
		}
		fmt.Fprintf(s.out, "  Copied: %s\n", dst)
	}

	dirs := []struct{ kind, src string }{
		{"visual", s.VisualDir},
		{"collision", s.CollisionDir},
	}
	for _, d := range dirs {
		if d.src == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := filepath.Join(s.Target, "meshes", d.kind)
		n, err := copyMeshes(d.src, dst)
		if err != nil {
			return fmt.Errorf("deploying %s meshes: %w", d.kind, err)
		}
		s.log.Info("meshes deployed", zap.String("kind", d.kind), zap.Int("count", n), zap.String("dest", dst))
		fmt.Fprintf(s.out, "  Copied: %d %s meshes -> %s\n", n, d.kind, dst)
	}
	return nil
}

// copyMeshes copies every .stl file in src into dst and returns how many
// were copied.
func copyMeshes(src, dst string) (int, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return 0, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".stl") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := fileutil.Copy(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
			return 0, err
		}
	}
	return len(names), nil
}
