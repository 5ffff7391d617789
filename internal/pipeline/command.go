package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ErrNoCommand is returned for an external stage without a command.
var ErrNoCommand = errors.New("stage has no command")

// CommandStage runs an external program.
type CommandStage struct {
	name   string
	args   []string
	dir    string
	stdout io.Writer
	stderr io.Writer
}

// CommandOption configures a CommandStage.
type CommandOption func(*CommandStage)

// WithDir runs the command in dir.
func WithDir(dir string) CommandOption {
	return func(s *CommandStage) {
		s.dir = dir
	}
}

// WithOutput sends the command's stdout and stderr to the given writers.
func WithOutput(stdout, stderr io.Writer) CommandOption {
	return func(s *CommandStage) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// NewCommandStage creates a stage that runs command[0] with the remaining
// arguments.
func NewCommandStage(name string, command []string, opts ...CommandOption) (*CommandStage, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoCommand)
	}
	s := &CommandStage{name: name, args: command}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *CommandStage) Name() string { return s.name }

// Describe returns the command line.
func (s *CommandStage) Describe() string {
	return "$ " + strings.Join(s.args, " ")
}

// Run executes the command and waits for it. A non-zero exit is an error.
func (s *CommandStage) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.args[0], s.args[1:]...)
	cmd.Dir = s.dir
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("exit code %d", exitErr.ExitCode())
		}
		return err
	}
	return nil
}
