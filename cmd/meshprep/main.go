// meshprep prepares robot description meshes for simulation: it decimates
// visual meshes, builds collision meshes and rewrites the description.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/meshprep/internal/config"
	"github.com/Faultbox/meshprep/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "simplify", "run":
		cmdSimplify(args)
	case "inventory", "ls":
		cmdInventory(args)
	case "info":
		cmdInfo(args)
	case "build":
		cmdBuild(args)
	case "watch":
		cmdWatch(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshprep - robot description mesh preparation

Usage:
  meshprep <command> [options]

Commands:
  simplify [options]            Decimate meshes and write the rewritten description
  inventory [options] [doc]     List the STL meshes a description references
  info <file.stl>               Show STL triangle count, size and bounds
  build [options] <target>      Run the full build pipeline and deploy to a package
  watch [options]               Rerun simplify when the description or sources change
  config [options] [-out path]  Print or save the effective configuration

Common options:
  -config <path>                Config file (.yaml or .toml)
  -i, -input <doc>              Input description (default robot_simplified.urdf)
  -o, -output <doc>             Output description (default robot_sim.urdf)
  -r, -ratio <r>                Visual triangle ratio to keep (default 0.1)
  -convex-collision             Use convex hulls for collision meshes
  -collision-ratio <r>          Collision decimation ratio (default: visual ratio)
  -min-triangles <n>            Copy meshes under n triangles (default 50000)
  -source-dir, -visual-dir, -collision-dir <dir>
  -debug, -log-file <path>

Examples:
  meshprep simplify -r 0.2 -convex-collision
  meshprep inventory -i robot_with_limits.urdf
  meshprep build ../dual_arm_description -skip structure,limits`)
}

// exit is replaced in tests.
var exit = os.Exit

// fatal prints err, flushes the log and exits with status 1.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	logger.Sync()
	exit(1)
}

// env is the state shared by commands that take configuration flags.
type env struct {
	fs    *flag.FlagSet
	flags *config.Flags
	cfg   *config.Config
	log   *zap.Logger
}

// setup parses the common flags plus any the command adds, loads the
// configuration and starts the logger.
func setup(name string, args []string, extra func(fs *flag.FlagSet)) *env {
	return setupOver(config.Default(), name, args, extra)
}

// setupOver is setup with base as the defaults under the config file.
func setupOver(base *config.Config, name string, args []string, extra func(fs *flag.FlagSet)) *env {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	if extra != nil {
		extra(fs)
	}
	fs.Parse(args)

	cfg, err := config.LoadOver(base, flags)
	if err != nil {
		fatal(fmt.Errorf("config: %w", err))
	}

	log, err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	if err != nil {
		fatal(fmt.Errorf("logger: %w", err))
	}
	log = log.With(zap.String("run", uuid.NewString()))
	logger.Sugar.Debugf("config: %+v", cfg)

	return &env{fs: fs, flags: flags, cfg: cfg, log: log}
}

// signalContext is canceled on interrupt or terminate.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
