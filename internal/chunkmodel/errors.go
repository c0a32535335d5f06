package chunkmodel

import (
	"errors"
	"fmt"
)

// ErrNotBuilt is returned by row operations before ChunkDom or after Reset.
var ErrNotBuilt = errors.New("chunk model has no rows")

// ErrDestroyed is returned by ChunkDom once the model has been destroyed.
var ErrDestroyed = errors.New("chunk model destroyed")

// ErrMarkupMismatch means inserted markup did not yield one element per
// chunk child, usually because a row template is malformed for its context.
var ErrMarkupMismatch = errors.New("markup element count does not match chunk children")

// MaterializationError reports a chunk whose markup could not be generated or
// inserted. The chunk stays unrendered so a later GetRow retries it.
type MaterializationError struct {
	Chunk string // dotted chunk id
	Path  []int
	Depth int
	Err   error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("materialize chunk %s (path %v, depth %d): %v", e.Chunk, e.Path, e.Depth, e.Err)
}

func (e *MaterializationError) Unwrap() error {
	return e.Err
}
