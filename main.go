// Package main provides the entry point for the string-weaver command.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"string-weaver/internal/config"
	"string-weaver/internal/version"
	"string-weaver/internal/weave"
)

const appName = "string-weaver"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "", "TOML run configuration")
	target := flag.String("target", "", "Target image to weave (PNG, JPEG or TIFF)")
	boardName := flag.String("board", "", "Board spec name or JSON spec file")
	rows := flag.Int("rows", 0, "Board raster rows (without -board)")
	cols := flag.Int("cols", 0, "Board raster columns (without -board)")
	anchors := flag.Int("anchors", 0, "Number of anchors to lay out (0 = board default)")
	iterations := flag.Int("iterations", 0, "Maximum number of strands")
	intensity := flag.Float64("intensity", 0, "Intensity step per strand, in (0,1]")
	termination := flag.String("termination", "", "Termination: bounded, convergent or both")
	raster := flag.String("raster", "", "Strand raster: uniform or antialiased")
	workers := flag.Int("workers", -1, "Goroutines per step (0 = all CPUs)")
	photo := flag.String("photo", "", "Board photograph for nail detection")
	calib := flag.Bool("calibrate", false, "Fit device coordinates from markers in -photo")
	homography := flag.Bool("homography", false, "Use a projective instead of an affine fit")
	canvasOut := flag.String("canvas", "", "Output canvas PNG")
	seqOut := flag.String("sequence", "", "Output anchor sequence")
	coordsOut := flag.String("coords", "", "Output device coordinates")
	projectOut := flag.String("project", "", "Output run file")
	verbose := flag.Bool("v", false, "Debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	dumpConfig := flag.Bool("dump-config", false, "Print the effective configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String(appName))
		return
	}

	var cfg config.File
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg = config.Default()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "board":
			cfg.Board.Spec = *boardName
		case "rows":
			cfg.Board.Rows = *rows
		case "cols":
			cfg.Board.Cols = *cols
		case "anchors":
			cfg.Weave.Anchors = *anchors
		case "iterations":
			cfg.Weave.MaxIterations = *iterations
		case "intensity":
			cfg.Weave.IntensityStep = *intensity
		case "termination":
			cfg.Weave.Termination = *termination
		case "raster":
			cfg.Weave.Raster = *raster
		case "workers":
			cfg.Weave.Workers = *workers
		case "photo":
			cfg.Board.Photo = *photo
		case "calibrate":
			cfg.Board.Calibrate = *calib
		case "homography":
			cfg.Board.Homography = *homography
		case "canvas":
			cfg.Output.Canvas = *canvasOut
		case "sequence":
			cfg.Output.Sequence = *seqOut
		case "coords":
			cfg.Output.Coordinates = *coordsOut
		case "project":
			cfg.Output.Project = *projectOut
		}
	})

	if *dumpConfig {
		if err := cfg.Write(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *target == "" && flag.NArg() > 0 {
		*target = flag.Arg(0)
	}
	if *target == "" {
		fmt.Println("Usage: string-weaver [-config run.toml] [-board name] [-photo board.jpg] -target <image>")
		os.Exit(1)
	}

	if *verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)
		weave.SetLogger(logger)
	}

	log.Printf("Starting %s v%s", appName, version.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, *target); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		stop()
		os.Exit(1)
	}
}
