package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"string-weaver/internal/board"
	"string-weaver/internal/calibrate"
	"string-weaver/internal/config"
	"string-weaver/internal/export"
	"string-weaver/internal/imaging"
	"string-weaver/internal/nails"
	"string-weaver/internal/project"
	"string-weaver/internal/weave"
)

const progressEvery = 250

// run executes one weave described by cfg against the target image.
func run(ctx context.Context, cfg config.File, targetPath string) error {
	wc, err := cfg.WeaveConfig()
	if err != nil {
		return err
	}

	var spec board.Spec
	shape := weave.Shape{Rows: cfg.Board.Rows, Cols: cfg.Board.Cols}
	if cfg.Board.Spec != "" {
		spec, err = board.Resolve(cfg.Board.Spec)
		if err != nil {
			return err
		}
		shape = spec.Shape()
		wc.AnchorCount = cfg.AnchorCount(spec.AnchorCount())
		log.Printf("Board %s: %s raster, %d anchors", spec.Name(), shape, wc.AnchorCount)
	}

	var photo image.Image
	var anchors []weave.Anchor
	if cfg.Board.Photo != "" {
		photo, err = imaging.Load(cfg.Board.Photo)
		if err != nil {
			return err
		}
		params := cfg.Nails.WithResolution(min(shape.Rows, shape.Cols))
		found, err := nails.DetectNails(photo, params)
		if err != nil {
			return fmt.Errorf("nail detection failed: %w", err)
		}
		if found.Shape != shape {
			log.Printf("Photo raster %s replaces board raster %s", found.Shape, shape)
			shape = found.Shape
		}
		anchors = found.Anchors
		log.Printf("Detected %d nails in %s", len(anchors), cfg.Board.Photo)
	} else {
		anchors, err = weave.Layout(shape, wc.AnchorCount)
		if err != nil {
			return err
		}
		if len(anchors) != wc.AnchorCount {
			log.Printf("Laid out %d anchors (asked for %d)", len(anchors), wc.AnchorCount)
		}
	}

	gray, err := imaging.LoadGray(targetPath)
	if err != nil {
		return err
	}
	fitted, err := imaging.FitToShape(gray, shape)
	if err != nil {
		return err
	}

	eng, err := weave.New(weave.BufferFromGray(fitted), anchors, wc)
	if err != nil {
		return err
	}
	eng.OnStep = func(s weave.StepResult) {
		if s.Iteration%progressEvery == 0 {
			log.Printf("Step %d: %d -> %d (mean %.1f)", s.Iteration, s.From, s.To, s.Mean)
		}
	}

	res, runErr := eng.Run(ctx)
	if runErr != nil {
		if !errors.Is(runErr, context.Canceled) {
			return runErr
		}
		// Keep what was woven so far.
		log.Printf("%v; saving partial result", runErr)
		res = eng.Result()
	}
	log.Printf("Wove %d strands (%s), residual mean %.1f", res.Iterations, res.Reason, res.ResidualMean)

	proj := project.New(strings.TrimSuffix(filepath.Base(targetPath), filepath.Ext(targetPath)), cfg.Board.Spec)
	projPath := cfg.Output.Project
	if projPath == "" {
		projPath = project.DefaultPath(targetPath)
	}
	proj.TargetPath = project.Rel(projPath, targetPath)
	proj.PhotoPath = project.Rel(projPath, cfg.Board.Photo)
	proj.Shape = shape
	proj.Config = wc
	proj.Anchors = eng.Anchors()
	proj.SetResult(*res)

	transform, err := deviceTransform(cfg, spec, photo, proj)
	if err != nil {
		return err
	}

	if path := cfg.Output.Canvas; path != "" {
		if err := imaging.SavePNG(path, eng.Canvas().Gray()); err != nil {
			return err
		}
		proj.CanvasPath = project.Rel(projPath, path)
	}
	if path := cfg.Output.Sequence; path != "" {
		if err := writeFile(path, func(f *os.File) error { return export.WriteSequence(f, res.Sequence) }); err != nil {
			return err
		}
		proj.SequencePath = project.Rel(projPath, path)
	}
	if path := cfg.Output.Coordinates; path != "" {
		pts, err := export.Export(res.Sequence, proj.Anchors, transform)
		if err != nil {
			return err
		}
		if err := writeFile(path, func(f *os.File) error { return export.WriteCoordinates(f, pts) }); err != nil {
			return err
		}
		proj.CoordinatesPath = project.Rel(projPath, path)
	}

	if err := proj.Save(projPath); err != nil {
		return fmt.Errorf("failed to save run file: %w", err)
	}
	log.Printf("Saved %s", projPath)
	return runErr
}

// deviceTransform picks how anchors map to machine coordinates: a fit to
// the photographed markers, the board's nominal scale, or raw pixels.
func deviceTransform(cfg config.File, spec board.Spec, photo image.Image, proj *project.File) (export.Transform, error) {
	if !cfg.Board.Calibrate {
		if spec != nil {
			return export.FromMapper(spec.PixelMapper()), nil
		}
		return nil, nil
	}
	if photo == nil || spec == nil {
		return nil, fmt.Errorf("calibration needs both a board spec and a board photo")
	}

	params := cfg.Markers
	params.Resolution = min(proj.Shape.Rows, proj.Shape.Cols)
	markers, err := nails.DetectMarkers(photo, params)
	if err != nil {
		return nil, fmt.Errorf("marker detection failed: %w", err)
	}
	physical := spec.MarkerPositions()
	cal := &project.Calibration{Markers: markers}

	if cfg.Board.Homography {
		h, corners, err := calibrate.FitCorners(markers, physical)
		if err != nil {
			return nil, err
		}
		cal.Homography = &h
		cal.MeanError = calibrate.MeanError(h, corners[:], physical[:])
		proj.Calibration = cal
		log.Printf("Homography fit from %d markers, mean error %.3f mm", len(markers), cal.MeanError)
		return calibrate.AnchorTransform(h), nil
	}

	corners, err := calibrate.OrderCorners(markers)
	if err != nil {
		return nil, err
	}
	a, err := calibrate.FitAffine(corners[:], physical[:])
	if err != nil {
		return nil, fmt.Errorf("failed to fit affine calibration: %w", err)
	}
	cal.Affine = &a
	cal.MeanError = calibrate.MeanError(a, corners[:], physical[:])
	proj.Calibration = cal
	log.Printf("Affine fit from %d markers, mean error %.3f mm", len(markers), cal.MeanError)
	return calibrate.AnchorTransform(a), nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
