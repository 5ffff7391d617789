// Package pipeline runs the description build as an ordered list of
// stages, stopping at the first failure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Stage is one step of the build.
type Stage interface {
	Name() string
	Run(ctx context.Context) error
}

// Describer is implemented by stages that can print what they will do.
type Describer interface {
	Describe() string
}

// ErrStageFailed marks a stage that returned an error.
var ErrStageFailed = errors.New("stage failed")

// StageError reports which stage failed.
type StageError struct {
	Stage string
	Step  int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Stage, e.Err)
}

// Unwrap returns both the sentinel and the stage's own error.
func (e *StageError) Unwrap() []error {
	return []error{ErrStageFailed, e.Err}
}

// Runner executes stages in order.
type Runner struct {
	stages []Stage
	skip   map[string]bool
	log    *zap.Logger
	out    io.Writer
}

// NewRunner creates a Runner. Stages named in skip are not run.
func NewRunner(log *zap.Logger, out io.Writer, skip ...string) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	r := &Runner{
		skip: make(map[string]bool, len(skip)),
		log:  log,
		out:  out,
	}
	for _, name := range skip {
		r.skip[name] = true
	}
	return r
}

// Add appends stages.
func (r *Runner) Add(stages ...Stage) {
	r.stages = append(r.stages, stages...)
}

// Stages returns the configured stages in order.
func (r *Runner) Stages() []Stage {
	return r.stages
}

// Run executes every stage that is not skipped. It returns a *StageError
// for the first stage that fails; later stages do not run.
func (r *Runner) Run(ctx context.Context) error {
	total := len(r.stages)
	for i, s := range r.stages {
		step := i + 1
		if r.skip[s.Name()] {
			fmt.Fprintf(r.out, "\n-- Skipping step %d (%s)\n", step, s.Name())
			r.log.Info("stage skipped", zap.String("stage", s.Name()), zap.Int("step", step))
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		r.banner(fmt.Sprintf("Step %d/%d: %s", step, total, s.Name()), s)
		r.log.Info("stage started", zap.String("stage", s.Name()), zap.Int("step", step))

		if err := s.Run(ctx); err != nil {
			r.log.Error("stage failed", zap.String("stage", s.Name()), zap.Error(err))
			fmt.Fprintf(r.out, "\nERROR: %s failed: %v\n", s.Name(), err)
			return &StageError{Stage: s.Name(), Step: step, Err: err}
		}
		r.log.Info("stage finished", zap.String("stage", s.Name()))
	}
	return nil
}

func (r *Runner) banner(title string, s Stage) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(r.out, "\n%s\n  %s\n", rule, title)
	if d, ok := s.(Describer); ok {
		fmt.Fprintf(r.out, "  %s\n", d.Describe())
	}
	fmt.Fprintf(r.out, "%s\n\n", rule)
}
