package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshprep/internal/config"
	"github.com/Faultbox/meshprep/internal/logger"
	"github.com/Faultbox/meshprep/internal/meshprep"
	"github.com/Faultbox/meshprep/internal/pipeline"
	"github.com/Faultbox/meshprep/internal/urdf"
	"github.com/Faultbox/meshprep/internal/watch"
	"github.com/Faultbox/meshprep/pkg/stl"
)

func cmdSimplify(args []string) {
	e := setup("simplify", args, nil)
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	if _, err := meshprep.Run(ctx, e.cfg, e.log, os.Stdout); err != nil {
		e.log.Error("simplify failed", zap.Error(err))
		fatal(err)
	}
	fmt.Printf("\nDone! Use '%s' for simulation.\n", e.cfg.Output)
}

func cmdInventory(args []string) {
	e := setup("inventory", args, nil)
	defer logger.Sync()

	if e.fs.NArg() > 0 {
		e.cfg.Input = e.fs.Arg(0)
	}

	doc, err := urdf.Load(e.cfg.Input)
	if err != nil {
		fatal(err)
	}
	paths, err := e.cfg.Resolve()
	if err != nil {
		fatal(err)
	}

	names := doc.Meshes()
	fmt.Printf("Document: %s\n", e.cfg.Input)
	fmt.Printf("Source:   %s\n", paths.SourceDir)
	fmt.Printf("Meshes:   %d\n\n", len(names))

	missing := 0
	for _, name := range names {
		path := filepath.Join(paths.SourceDir, name)
		n, err := stl.CountTriangles(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			missing++
			fmt.Printf("  %-40s  %10s\n", name, "missing")
		case err != nil:
			fmt.Printf("  %-40s  %10s  (%v)\n", name, "unreadable", err)
		default:
			fmt.Printf("  %-40s  %10d tri\n", name, n)
		}
	}
	if missing > 0 {
		fmt.Printf("\n%d of %d meshes not found in %s\n", missing, len(names), e.cfg.Mesh.SourceDir)
	}
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshprep info <file.stl>")
		os.Exit(1)
	}
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		fatal(err)
	}
	declared, err := stl.CountTriangles(path)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("File:      %s\n", path)
	fmt.Printf("Size:      %.2f MB\n", float64(info.Size())/(1024*1024))
	fmt.Printf("Triangles: %d\n", declared)

	s, err := stl.Read(path)
	if err != nil {
		fmt.Printf("Facets:    unreadable (%v)\n", err)
		return
	}
	if header := stl.HeaderText(s); header != "" {
		fmt.Printf("Header:    %s\n", header)
	}
	lo, hi := stl.Bounds(s)
	fmt.Printf("Bounds:    [%.4f %.4f %.4f] - [%.4f %.4f %.4f]\n", lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
}

func cmdBuild(args []string) {
	var skip string
	e := setupOver(config.BuildDefault(), "build", args, func(fs *flag.FlagSet) {
		fs.StringVar(&skip, "skip", "", "Comma-separated stage names to skip")
	})
	defer logger.Sync()

	if e.fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshprep build [options] <target>")
		os.Exit(1)
	}
	target, err := filepath.Abs(e.fs.Arg(0))
	if err != nil {
		fatal(err)
	}

	cfg := e.cfg
	cfg.Pipeline.Deploy.Target = target
	if cfg.PackageName == "" {
		cfg.PackageName = filepath.Base(target)
	}
	for _, name := range strings.Split(skip, ",") {
		if name = strings.TrimSpace(name); name != "" {
			cfg.Pipeline.Skip = append(cfg.Pipeline.Skip, name)
		}
	}

	fmt.Printf("Target package: %s\n", cfg.PackageName)
	fmt.Printf("Target path:    %s\n", target)
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		fatal(fmt.Errorf("%w: %s", pipeline.ErrNoTarget, target))
	}

	runner, err := pipeline.FromConfig(cfg, e.log, os.Stdout, os.Stderr)
	if err != nil {
		fatal(err)
	}

	ctx, stop := signalContext()
	defer stop()

	if err := runner.Run(ctx); err != nil {
		fatal(err)
	}

	fmt.Printf("\nDone! Package '%s' updated.\n", cfg.PackageName)
	fmt.Printf("  Mesh paths:   package://%s/meshes/visual|collision/*.stl\n", cfg.PackageName)
}

func cmdWatch(args []string) {
	var debounce = watch.DefaultDebounce
	e := setup("watch", args, func(fs *flag.FlagSet) {
		fs.DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before rerunning")
	})
	defer logger.Sync()

	paths, err := e.cfg.Resolve()
	if err != nil {
		fatal(err)
	}

	w, err := watch.New(e.log, debounce)
	if err != nil {
		fatal(err)
	}
	defer w.Close()

	if err := w.AddFile(e.cfg.Input); err != nil {
		fatal(err)
	}
	if err := w.AddDir(paths.SourceDir); err != nil {
		fatal(err)
	}
	w.Ignore(e.cfg.Output)
	w.Ignore(paths.VisualDir)
	w.Ignore(paths.CollisionDir)

	ctx, stop := signalContext()
	defer stop()

	e.log.Info("watching for changes",
		zap.String("input", e.cfg.Input),
		zap.String("source_dir", paths.SourceDir))

	err = w.Run(ctx, func(ctx context.Context) error {
		_, err := meshprep.Run(ctx, e.cfg, e.log, os.Stdout)
		return err
	})
	if err != nil {
		fatal(err)
	}
}

func cmdConfig(args []string) {
	var out string
	e := setup("config", args, func(fs *flag.FlagSet) {
		fs.StringVar(&out, "out", "", "Write the configuration to this file instead of stdout")
	})
	defer logger.Sync()

	if out != "" {
		if err := e.cfg.SaveTo(out); err != nil {
			fatal(err)
		}
		fmt.Printf("Config written: %s\n", out)
		return
	}

	data, err := e.cfg.Marshal("yaml")
	if err != nil {
		fatal(err)
	}
	os.Stdout.Write(data)
}
