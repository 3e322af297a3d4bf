package weave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
)

// StopReason records why a run reached the done state.
type StopReason int

const (
	// StopNone means the run has not stopped yet.
	StopNone StopReason = iota
	// StopIterationLimit means MaxIterations steps were applied.
	StopIterationLimit
	// StopConverged means the residual mean reached BrightnessThreshold.
	StopConverged
)

// maxSequencePrealloc caps the capacity reserved for the sequence up front;
// longer runs grow it by append.
const maxSequencePrealloc = 1 << 16

func (r StopReason) String() string {
	switch r {
	case StopIterationLimit:
		return "iteration limit"
	case StopConverged:
		return "converged"
	default:
		return "running"
	}
}

// StepResult describes one applied weave step.
type StepResult struct {
	Iteration int     // 1-based step number
	From, To  int     // anchor indices
	Strand    *Strand // the strand that was applied
	Mean      float64 // residual mean along the strand before it was applied
}

// Result summarises a finished run.
type Result struct {
	Sequence     []int
	Iterations   int
	Reason       StopReason
	Converged    bool
	ResidualMean float64
	Elapsed      time.Duration
}

// Engine owns the residual buffer, the output canvas and the weave state
// for one run. It is not safe for concurrent use; the Index it reads from is.
type Engine struct {
	cfg   Config
	idx   *Index
	delta float64

	residual    *Buffer
	canvas      *Buffer
	residualSum float64

	current  int
	sequence []int
	done     bool
	reason   StopReason

	// OnStep, if set, is called after every applied step.
	OnStep func(StepResult)
}

// New validates cfg, builds the candidate index for anchors over the
// target's shape and prepares a fresh run. Nothing is mutated on error.
func New(target *Buffer, anchors []Anchor, cfg Config) (*Engine, error) {
	if err := cfg.Validate(len(anchors)); err != nil {
		return nil, err
	}
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("invalid target: %w", err)
	}
	idx, err := BuildIndex(anchors, target.Shape, cfg.Raster, 0)
	if err != nil {
		return nil, err
	}
	return NewWithIndex(target, idx, cfg)
}

// NewWithIndex prepares a run over an existing candidate index, letting
// several runs share one index.
func NewWithIndex(target *Buffer, idx *Index, cfg Config) (*Engine, error) {
	if err := cfg.Validate(idx.Len()); err != nil {
		return nil, err
	}
	if cfg.Raster != idx.Mode() {
		return nil, fmt.Errorf("%w: config raster mode %s, index built with %s",
			ErrConfig, cfg.Raster, idx.Mode())
	}
	e := &Engine{cfg: cfg, idx: idx, delta: float64(cfg.Delta())}
	if err := e.Reset(target); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset starts a fresh run on a new target, reusing the candidate index.
func (e *Engine) Reset(target *Buffer) error {
	if err := target.Validate(); err != nil {
		return fmt.Errorf("invalid target: %w", err)
	}
	if target.Shape != e.idx.Shape() {
		return fmt.Errorf("%w: target shape %s does not match board %s",
			ErrConfig, target.Shape, e.idx.Shape())
	}
	e.residual = target.Clone()
	e.canvas = NewFilledBuffer(target.Shape, White)
	e.residualSum = floats.Sum(e.residual.Pix)
	e.current = 0
	e.sequence = append(make([]int, 0, min(e.cfg.MaxIterations, maxSequencePrealloc)+1), 0)
	e.done = false
	e.reason = StopNone
	return nil
}

// stopReason evaluates the termination policy for the current state.
func (e *Engine) stopReason() StopReason {
	mode := e.cfg.Termination
	if mode == TerminateConvergent || mode == TerminateBoth {
		if e.ResidualMean() >= e.cfg.BrightnessThreshold {
			return StopConverged
		}
	}
	if e.Iterations() >= e.cfg.MaxIterations {
		return StopIterationLimit
	}
	return StopNone
}

// Step performs one weave step: pick the darkest strand leaving the current
// anchor, apply it to both buffers and move to its other end. Once the
// termination policy is met the engine turns done and Step returns ErrDone
// without touching any buffer.
func (e *Engine) Step() (StepResult, error) {
	if e.done {
		return StepResult{}, ErrDone
	}
	if reason := e.stopReason(); reason != StopNone {
		e.done = true
		e.reason = reason
		return StepResult{}, ErrDone
	}

	from := e.current
	strand, mean := e.darkest(e.idx.Candidates(from))
	e.apply(strand)

	e.current = strand.Other(from)
	e.sequence = append(e.sequence, e.current)

	res := StepResult{
		Iteration: e.Iterations(),
		From:      from,
		To:        e.current,
		Strand:    strand,
		Mean:      mean,
	}
	Logger().Debug("weave step", "iter", res.Iteration, "from", from, "to", e.current, "mean", mean)
	if e.OnStep != nil {
		e.OnStep(res)
	}
	return res, nil
}

// Run steps until the termination policy is met or ctx is cancelled.
// Cancellation is checked between steps, so buffers are always left in a
// consistent post-step state.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	Logger().Info("weave started",
		"anchors", e.idx.Len(), "board", e.idx.Shape().String(),
		"delta", e.cfg.Delta(), "termination", e.cfg.Termination.String(),
		"max_iterations", e.cfg.MaxIterations)

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("weave interrupted after %d steps: %w", e.Iterations(), err)
		}
		if _, err := e.Step(); err != nil {
			if errors.Is(err, ErrDone) {
				break
			}
			return nil, err
		}
	}

	res := e.Result()
	res.Elapsed = time.Since(start)
	if e.cfg.Termination == TerminateConvergent && !res.Converged {
		Logger().Warn("weave hit iteration ceiling before converging",
			"iterations", res.Iterations, "residual_mean", res.ResidualMean,
			"threshold", e.cfg.BrightnessThreshold)
	}
	Logger().Info("weave finished",
		"iterations", res.Iterations, "reason", res.Reason.String(),
		"residual_mean", res.ResidualMean, "elapsed", res.Elapsed)
	return res, nil
}

// darkest returns the candidate with the smallest weighted residual mean.
// Ties go to the earliest candidate in list order.
func (e *Engine) darkest(candidates []*Strand) (*Strand, float64) {
	workers := e.cfg.Workers
	if workers <= 1 || len(candidates) < 2*workers {
		k, m := minMean(candidates, e.residual)
		return candidates[k], m
	}

	type best struct {
		k    int
		mean float64
	}
	chunk := (len(candidates) + workers - 1) / workers
	results := make([]best, 0, workers)
	for lo := 0; lo < len(candidates); lo += chunk {
		results = append(results, best{k: -1})
	}

	var wg sync.WaitGroup
	for w := range results {
		lo := w * chunk
		hi := min(lo+chunk, len(candidates))
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			k, m := minMean(candidates[lo:hi], e.residual)
			results[w] = best{k: lo + k, mean: m}
		}(w, lo, hi)
	}
	wg.Wait()

	// Reduce in chunk order; strict < keeps the first minimum.
	win := results[0]
	for _, r := range results[1:] {
		if r.mean < win.mean {
			win = r
		}
	}
	return candidates[win.k], win.mean
}

func minMean(candidates []*Strand, residual *Buffer) (int, float64) {
	bestK := 0
	bestMean := candidates[0].Mean(residual)
	for k := 1; k < len(candidates); k++ {
		if m := candidates[k].Mean(residual); m < bestMean {
			bestK, bestMean = k, m
		}
	}
	return bestK, bestMean
}

// apply brightens the residual and darkens the canvas along the strand,
// clamping both to the gray range.
func (e *Engine) apply(s *Strand) {
	res, canvas := e.residual.Pix, e.canvas.Pix
	for k, off := range s.offsets {
		d := e.delta * s.weights[k]
		old := res[off]
		v := min(White, old+d)
		res[off] = v
		e.residualSum += v - old
		canvas[off] = max(Black, canvas[off]-d)
	}
}

// Done reports whether the engine has reached its terminal state.
func (e *Engine) Done() bool {
	return e.done
}

// Reason returns why the engine stopped, or StopNone while running.
func (e *Engine) Reason() StopReason {
	return e.reason
}

// Current returns the index of the anchor the thread currently rests on.
func (e *Engine) Current() int {
	return e.current
}

// Iterations returns the number of applied steps.
func (e *Engine) Iterations() int {
	return len(e.sequence) - 1
}

// Sequence returns a copy of the visited anchor indices. The start anchor
// is recorded as the first element, so its length is Iterations()+1.
func (e *Engine) Sequence() []int {
	return append([]int(nil), e.sequence...)
}

// ResidualMean returns the mean intensity of the residual buffer.
func (e *Engine) ResidualMean() float64 {
	return e.residualSum / float64(len(e.residual.Pix))
}

// Residual returns a copy of the residual buffer.
func (e *Engine) Residual() *Buffer {
	return e.residual.Clone()
}

// Canvas returns a copy of the output canvas.
func (e *Engine) Canvas() *Buffer {
	return e.canvas.Clone()
}

// Anchors returns the anchor list the engine weaves over.
func (e *Engine) Anchors() []Anchor {
	return e.idx.Anchors()
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Result returns a snapshot of the run so far.
func (e *Engine) Result() *Result {
	return &Result{
		Sequence:     e.Sequence(),
		Iterations:   e.Iterations(),
		Reason:       e.reason,
		Converged:    e.reason == StopConverged,
		ResidualMean: e.ResidualMean(),
	}
}
