// Package project provides the run file that records a weave and its inputs.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"string-weaver/internal/weave"
	"string-weaver/pkg/geometry"
)

// Ext is the run file extension.
const Ext = ".weave.json"

// File represents a weave run file (.weave.json).
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Board    string    `json:"board,omitempty"`

	// Input paths (relative to the run file)
	TargetPath string `json:"target"`
	PhotoPath  string `json:"photo,omitempty"`

	Shape   weave.Shape    `json:"shape"`
	Config  weave.Config   `json:"config"`
	Anchors []weave.Anchor `json:"anchors"`

	// Outcome
	Sequence     []int   `json:"sequence"`
	Reason       string  `json:"reason"`
	Converged    bool    `json:"converged"`
	ResidualMean float64 `json:"residual_mean"`
	ElapsedMS    int64   `json:"elapsed_ms"`

	// Calibration, when markers were fitted
	Calibration *Calibration `json:"calibration,omitempty"`

	// Output paths (relative to the run file)
	CanvasPath      string `json:"canvas,omitempty"`
	SequencePath    string `json:"sequence_file,omitempty"`
	CoordinatesPath string `json:"coordinates,omitempty"`
}

// Calibration records the fitted pixel-to-device mapping.
type Calibration struct {
	Markers    []geometry.Point2D        `json:"markers"`
	Affine     *geometry.AffineTransform `json:"affine,omitempty"`
	Homography *geometry.Homography      `json:"homography,omitempty"`
	MeanError  float64                   `json:"mean_error"`
}

// New creates a new run file.
func New(name, board string) *File {
	now := time.Now()
	return &File{
		Version:  1,
		Name:     name,
		Created:  now,
		Modified: now,
		Board:    board,
	}
}

// SetResult copies the outcome of a finished run.
func (p *File) SetResult(res weave.Result) {
	p.Sequence = res.Sequence
	p.Reason = res.Reason.String()
	p.Converged = res.Converged
	p.ResidualMean = res.ResidualMean
	p.ElapsedMS = res.Elapsed.Milliseconds()
	p.Modified = time.Now()
}

// Validate checks that every sequence entry names a recorded anchor and
// consecutive entries differ.
func (p *File) Validate() error {
	for i, idx := range p.Sequence {
		if idx < 0 || idx >= len(p.Anchors) {
			return fmt.Errorf("sequence step %d: anchor %d out of range [0,%d)", i, idx, len(p.Anchors))
		}
		if i > 0 && p.Sequence[i-1] == idx {
			return fmt.Errorf("sequence step %d repeats anchor %d", i, idx)
		}
	}
	return nil
}

// Load loads a run file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}
	if err := proj.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run file %s: %w", path, err)
	}

	return &proj, nil
}

// Save saves the run file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Rel returns path relative to the run file's directory, or path unchanged
// when no relative form exists.
func Rel(projectPath, path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(filepath.Dir(projectPath), path)
	if err != nil {
		return path
	}
	return rel
}

// Abs resolves a path stored in the run file against its directory.
func Abs(projectPath, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(projectPath), path)
}

// DefaultPath derives the run file name from the target image path.
func DefaultPath(targetPath string) string {
	base := strings.TrimSuffix(targetPath, filepath.Ext(targetPath))
	return base + Ext
}
