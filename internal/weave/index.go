package weave

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Strand is the straight segment between two distinct anchors together with
// its cached pixel footprint. A and B are anchor indices stored in canonical
// order: anchors[A] sorts before anchors[B]. A strand is never mutated after
// the index that owns it has been built.
type Strand struct {
	A, B int

	path      []Sample
	offsets   []int
	weights   []float64
	weightSum float64
}

func newStrand(anchors []Anchor, i, j int, shape Shape, mode RasterMode) (*Strand, error) {
	if anchors[j].Less(anchors[i]) {
		i, j = j, i
	}
	path, err := Rasterize(anchors[i], anchors[j], shape, mode)
	if err != nil {
		return nil, err
	}
	s := &Strand{
		A:       i,
		B:       j,
		path:    path,
		offsets: make([]int, len(path)),
		weights: make([]float64, len(path)),
	}
	for k, p := range path {
		s.offsets[k] = p.Pixel.offset(shape)
		s.weights[k] = p.Weight
		s.weightSum += p.Weight
	}
	return s, nil
}

// Other returns the endpoint of the strand that is not anchor.
func (s *Strand) Other(anchor int) int {
	if anchor == s.A {
		return s.B
	}
	return s.A
}

// Has reports whether anchor is one of the strand's endpoints.
func (s *Strand) Has(anchor int) bool {
	return anchor == s.A || anchor == s.B
}

// Path returns the pixel footprint from anchor A to anchor B.
// The returned slice is shared and must not be modified.
func (s *Strand) Path() []Sample {
	return s.path
}

// Mean returns the coverage-weighted mean intensity of buf along the strand.
func (s *Strand) Mean(buf *Buffer) float64 {
	var sum float64
	pix := buf.Pix
	for k, off := range s.offsets {
		sum += pix[off] * s.weights[k]
	}
	return sum / s.weightSum
}

// Index maps every anchor to the strands connecting it to all other anchors.
// Each unordered pair is rasterized once and shared between both endpoints.
// An Index is read-only after BuildIndex returns and may be shared between
// engines and goroutines.
type Index struct {
	anchors    []Anchor
	shape      Shape
	mode       RasterMode
	candidates [][]*Strand
	strands    int
}

// BuildIndex rasterizes every anchor pair. Any invalid anchor aborts the
// whole build. workers <= 0 uses one worker per CPU.
func BuildIndex(anchors []Anchor, shape Shape, mode RasterMode, workers int) (*Index, error) {
	n := len(anchors)
	if n < 2 {
		return nil, fmt.Errorf("%w: %d anchors, need at least 2", ErrConfig, n)
	}
	seen := make(map[Anchor]int, n)
	for i, a := range anchors {
		if !a.In(shape) {
			return nil, fmt.Errorf("%w: anchor %d %s outside board %s", ErrGeometry, i, a, shape)
		}
		if prev, ok := seen[a]; ok {
			return nil, fmt.Errorf("%w: anchors %d and %d both at %s", ErrGeometry, prev, i, a)
		}
		seen[a] = i
	}

	start := time.Now()

	type pair struct{ i, j int }
	pairs := make([]pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, pair{i, j})
		}
	}

	strands := make([]*Strand, len(pairs))
	errs := make([]error, len(pairs))

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	perWorker := (len(pairs) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * perWorker
		hi := min(lo+perWorker, len(pairs))
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for k := lo; k < hi; k++ {
				strands[k], errs[k] = newStrand(anchors, pairs[k].i, pairs[k].j, shape, mode)
			}
		}(lo, hi)
	}
	wg.Wait()

	for k, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failed to rasterize strand %d-%d: %w", pairs[k].i, pairs[k].j, err)
		}
	}

	candidates := make([][]*Strand, n)
	for i := range candidates {
		candidates[i] = make([]*Strand, 0, n-1)
	}
	// Pairs are enumerated with i as the outer loop, so every list receives
	// its lower-indexed partners before its higher ones and stays sorted by
	// the other anchor's index.
	for k, p := range pairs {
		candidates[p.i] = append(candidates[p.i], strands[k])
		candidates[p.j] = append(candidates[p.j], strands[k])
	}

	idx := &Index{
		anchors:    append([]Anchor(nil), anchors...),
		shape:      shape,
		mode:       mode,
		candidates: candidates,
		strands:    len(pairs),
	}
	Logger().Info("candidate index built",
		"anchors", n, "strands", len(pairs), "raster", mode.String(),
		"elapsed", time.Since(start))
	return idx, nil
}

// Candidates returns the strands leaving anchor i, ordered by the other
// anchor's index. The slice is shared and must not be modified.
func (x *Index) Candidates(i int) []*Strand {
	return x.candidates[i]
}

// Anchors returns a copy of the anchor list the index was built from.
func (x *Index) Anchors() []Anchor {
	return append([]Anchor(nil), x.anchors...)
}

// Len returns the number of anchors.
func (x *Index) Len() int {
	return len(x.anchors)
}

// Strands returns the number of distinct strands.
func (x *Index) Strands() int {
	return x.strands
}

// Shape returns the board shape the strands were rasterized for.
func (x *Index) Shape() Shape {
	return x.shape
}

// Mode returns the raster mode used to build the index.
func (x *Index) Mode() RasterMode {
	return x.mode
}
