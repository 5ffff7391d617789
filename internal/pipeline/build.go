package pipeline

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshprep/internal/config"
)

// FromConfig builds a runner for the configured stage list. The mesh stage
// runs in process; the others run their commands with output sent to
// stdout and stderr. A deploy stage is appended when a target is set.
// Command arguments may name the mesh stage's documents and the package
// through the config placeholders.
func FromConfig(cfg *config.Config, log *zap.Logger, stdout, stderr io.Writer) (*Runner, error) {
	r := NewRunner(log, stdout, cfg.Pipeline.Skip...)
	expand := strings.NewReplacer(
		config.PlaceholderInput, cfg.Input,
		config.PlaceholderOutput, cfg.Output,
		config.PlaceholderPackage, cfg.PackageName,
	)

	for _, sc := range cfg.Pipeline.Stages {
		if sc.Name == config.MeshStageName {
			r.Add(NewMeshStage(cfg, log, stdout))
			continue
		}
		args := make([]string, len(sc.Command))
		for i, a := range sc.Command {
			args[i] = expand.Replace(a)
		}
		s, err := NewCommandStage(sc.Name, args, WithDir(sc.Dir), WithOutput(stdout, stderr))
		if err != nil {
			return nil, err
		}
		r.Add(s)
	}

	if cfg.Pipeline.Deploy.Target != "" {
		paths, err := cfg.Resolve()
		if err != nil {
			return nil, fmt.Errorf("resolving directories: %w", err)
		}
		r.Add(NewDeployStage(cfg.Pipeline.Deploy.Target, paths, cfg.Pipeline.Deploy.Files, log, stdout))
	}
	return r, nil
}
