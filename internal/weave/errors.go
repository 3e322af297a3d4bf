package weave

import "errors"

var (
	// ErrConfig indicates an invalid configuration value. It is reported
	// before any buffer is touched.
	ErrConfig = errors.New("weave: invalid configuration")
	// ErrGeometry indicates a degenerate or out-of-bounds anchor pair.
	ErrGeometry = errors.New("weave: invalid geometry")
	// ErrDone is returned by Step once the engine has reached its terminal state.
	ErrDone = errors.New("weave: engine is done")
)
