package chunktree

import (
	"errors"
	"fmt"
)

// ErrInvalidSize is returned by Build when the chunk size is not positive.
var ErrInvalidSize = errors.New("chunk size must be positive")

// ErrDestroyed is returned by lookups on a destroyed tree.
var ErrDestroyed = errors.New("chunk tree destroyed")

// ErrOutOfRange matches any *OutOfRangeError via errors.Is.
var ErrOutOfRange = errors.New("row index out of range")

// OutOfRangeError reports a row index the tree does not cover.
type OutOfRangeError struct {
	Index int
	Min   int
	Max   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("row index %d outside covered range [%d,%d]", e.Index, e.Min, e.Max)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
