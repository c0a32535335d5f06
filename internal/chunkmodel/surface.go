package chunkmodel

import "github.com/dgallion1/chunkgrid/internal/chunktree"

// Node is a handle to one element of the rendering surface.
type Node interface {
	// SetInnerMarkup replaces the element's content with the parsed markup.
	SetInnerMarkup(markup string) error
	// Children returns the element children in document order.
	Children() []Node
	SetHeight(px int)
	AddClass(class string)
	HasClass(class string) bool
}

// Layouter is implemented by surface nodes that can be forced to compute
// their layout before a class change is applied.
type Layouter interface {
	ComputeLayout()
}

// Template is the named markup a provider produced for one row.
type Template struct {
	Name   string
	Markup string
}

// TemplateProvider supplies row markup and aggregate row heights.
type TemplateProvider[R any] interface {
	chunktree.HeightProvider[R]
	Template(row R) (Template, error)
}

// Scheduler runs a callback on the next render frame.
type Scheduler interface {
	RequestFrame(fn func())
}
