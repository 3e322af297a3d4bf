package weave_test

import (
	"context"
	"fmt"

	"string-weaver/internal/weave"
)

func Example() {
	shape := weave.Shape{Rows: 4, Cols: 4}
	anchors, err := weave.Layout(shape, 4)
	if err != nil {
		fmt.Println(err)
		return
	}

	cfg := weave.DefaultConfig()
	cfg.IntensityStep = 0.5
	cfg.Termination = weave.TerminateBounded
	cfg.MaxIterations = 1

	e, err := weave.New(weave.NewFilledBuffer(shape, 127), anchors, cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	res, err := e.Run(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(anchors)
	fmt.Println(res.Sequence, res.Reason)
	// Output:
	// [(0,0) (3,0) (3,3) (0,3)]
	// [0 1] iteration limit
}
