// Package chunkmodel binds a chunk tree to a rendering surface. Markup for a
// chunk's children is generated and inserted only when a row inside that
// chunk is first requested, and height changes are written back only to the
// surface elements whose chunk height actually changed.
//
// A Model is not safe for concurrent use; callers serialise GetRow and
// UpdateAllChunkHeights.
package chunkmodel

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/chunkgrid/internal/chunktree"
)

// Model owns one chunk tree and the surface it is rendered into.
type Model[R any] struct {
	opts      Options
	templates TemplateProvider[R]
	frames    Scheduler
	log       *slog.Logger

	rows    []R
	size    int
	tree    *chunktree.Tree[R]
	surface Node

	// generation changes on every Reset so deferred callbacks can tell
	// whether the chunks they captured are still live.
	generation uint64
	destroyed  bool

	observers map[int]func(Event)
	nextObs   int
}

// New creates an empty model. Call ChunkDom to attach rows and a surface.
func New[R any](opts Options, templates TemplateProvider[R], frames Scheduler, log *slog.Logger) *Model[R] {
	if frames == nil {
		frames = &FrameQueue{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Model[R]{
		opts:      opts.WithDefaults(),
		templates: templates,
		frames:    frames,
		log:       log.With("component", "chunkmodel"),
		observers: make(map[int]func(Event)),
	}
}

// Options returns the effective options.
func (m *Model[R]) Options() Options { return m.opts }

// Tree returns the current chunk tree, or nil before ChunkDom.
func (m *Model[R]) Tree() *chunktree.Tree[R] { return m.tree }

// Surface returns the attachment root passed to ChunkDom.
func (m *Model[R]) Surface() Node { return m.surface }

// ChunkDom builds the chunk tree over rows and keeps root as the surface
// attachment point. No markup is inserted until GetRow. Any previous tree is
// reset first. A destroyed model cannot be rebuilt.
func (m *Model[R]) ChunkDom(rows []R, size int, startMarkup, endMarkup string, root Node) (Node, error) {
	if m.destroyed {
		return nil, ErrDestroyed
	}
	if root == nil {
		return nil, errors.New("chunkDom: nil surface root")
	}
	if m.tree != nil {
		m.Reset()
	}
	tree, err := chunktree.Build(rows, size, startMarkup, endMarkup, m.templates)
	if err != nil {
		return nil, err
	}
	m.rows = rows
	m.size = size
	m.tree = tree
	m.surface = root

	m.log.Debug("chunkDom", "rows", len(rows), "size", size, "levels", tree.Levels(),
		"height", tree.Node(tree.Root()).Height)
	m.emit(Event{Kind: EventChunkDom, Count: len(rows)})
	return root, nil
}

// GetRowIndexes returns the sibling-index path to rowIndex without touching
// the surface.
func (m *Model[R]) GetRowIndexes(rowIndex int) ([]int, error) {
	if m.tree == nil {
		return nil, ErrNotBuilt
	}
	return m.tree.ResolvePath(rowIndex)
}

// GetRow returns the surface element for rowIndex, materializing each chunk
// on the way down that has not been rendered yet. Chunks off the path stay
// unrendered.
func (m *Model[R]) GetRow(rowIndex int) (Node, error) {
	path, err := m.GetRowIndexes(rowIndex)
	if err != nil {
		return nil, err
	}

	id := m.tree.Root()
	el := m.surface
	for depth, idx := range path {
		n := m.tree.Node(id)
		if !n.Rendered {
			if err := m.materialize(id, el); err != nil {
				return nil, &MaterializationError{Chunk: m.tree.ID(id), Path: path, Depth: depth, Err: err}
			}
		}
		children := el.Children()
		if idx >= len(children) {
			return nil, &MaterializationError{
				Chunk: m.tree.ID(id),
				Path:  path,
				Depth: depth,
				Err:   fmt.Errorf("surface has %d children, want index %d", len(children), idx),
			}
		}
		el = children[idx]
		if !n.IsLeaf() {
			id = n.Children()[idx]
		}
	}
	return el, nil
}

func (m *Model[R]) materialize(id chunktree.NodeID, el Node) error {
	n := m.tree.Node(id)
	markup, err := m.childrenMarkup(n)
	if err != nil {
		return err
	}
	if err := el.SetInnerMarkup(markup); err != nil {
		return err
	}
	children := el.Children()
	if len(children) != n.Len() {
		return fmt.Errorf("%w: got %d elements for %d children", ErrMarkupMismatch, len(children), n.Len())
	}
	n.Rendered = true

	for _, c := range children {
		if l, ok := c.(Layouter); ok {
			l.ComputeLayout()
		}
	}
	chunkID := m.tree.ID(id)
	if len(children) > 0 && children[0].HasClass(m.opts.ChunkMarkerClass) {
		m.scheduleReady(chunkID, children)
	}

	m.log.Debug("materialized", "chunk", chunkID, "children", len(children))
	m.emit(Event{Kind: EventMaterialized, Chunk: chunkID, Count: len(children)})
	return nil
}

// scheduleReady adds the ready class once the new chunk wrappers have been
// laid out, so transitions keyed on it start from the computed styles.
func (m *Model[R]) scheduleReady(chunkID string, children []Node) {
	gen := m.generation
	class := m.opts.ReadyClass
	m.frames.RequestFrame(func() {
		if m.destroyed || m.generation != gen {
			m.log.Warn("ready class skipped, chunks no longer live", "chunk", chunkID)
			return
		}
		for _, c := range children {
			c.AddClass(class)
		}
	})
}

func (m *Model[R]) childrenMarkup(n *chunktree.Node) (string, error) {
	var b strings.Builder
	if n.IsLeaf() {
		for i := n.Min; i <= n.Max; i++ {
			tpl, err := m.templates.Template(m.rows[i])
			if err != nil {
				return "", fmt.Errorf("template for row %d: %w", i, err)
			}
			b.WriteString(tpl.Markup)
		}
		return b.String(), nil
	}
	for _, c := range n.Children() {
		b.WriteString(m.tree.Node(c).Stub(""))
	}
	return b.String(), nil
}

// UpdateOption modifies an UpdateAllChunkHeights call.
type UpdateOption func(*updateConfig)

type updateConfig struct {
	ranged bool
	count  int
}

// WithRange marks the change as possibly touching count rows anywhere in the
// tree, forcing a full recalculation first.
func WithRange(count int) UpdateOption {
	return func(c *updateConfig) {
		c.ranged = true
		c.count = count
	}
}

// UpdateAllChunkHeights recomputes the height of rowIndex's leaf chunk and
// its ancestors, then writes every dirty chunk height into the surface and
// clears the flags. It returns the number of surface elements written.
func (m *Model[R]) UpdateAllChunkHeights(rowIndex int, opts ...UpdateOption) (int, error) {
	if m.tree == nil {
		return 0, ErrNotBuilt
	}
	var cfg updateConfig
	for _, o := range opts {
		o(&cfg)
	}

	written := 0
	if cfg.ranged {
		changed := m.tree.ForceRecalc()
		written += m.syncHeights()
		m.log.Debug("forced height recalc", "row", rowIndex, "range", cfg.count, "changed", changed)
	}

	path, err := m.tree.ResolvePath(rowIndex)
	if err != nil {
		return written, err
	}
	leaf, err := m.tree.ChunkAt(path)
	if err != nil {
		return written, err
	}
	m.tree.UpdateHeight(leaf)
	written += m.syncHeights()

	m.emit(Event{Kind: EventHeightsSynced, Row: rowIndex, Count: written})
	return written, nil
}

// syncHeights walks the tree and the surface together, writing the height of
// every dirty chunk that has an element and clearing its flag. Chunks whose
// parent is unrendered have no element yet; their flag is cleared and the
// height is picked up by the wrapper markup when they materialize.
func (m *Model[R]) syncHeights() int {
	written := 0
	root := m.tree.Root()
	m.syncChildren(root, m.surface, &written)
	m.writeHeight(m.tree.Node(root), m.surface, &written)
	return written
}

func (m *Model[R]) syncChildren(id chunktree.NodeID, el Node, written *int) {
	n := m.tree.Node(id)
	if n.IsLeaf() {
		return
	}
	var surf []Node
	if el != nil && n.Rendered {
		surf = el.Children()
	}
	for i, c := range n.Children() {
		var child Node
		if i < len(surf) {
			child = surf[i]
		}
		m.writeHeight(m.tree.Node(c), child, written)
		m.syncChildren(c, child, written)
	}
}

func (m *Model[R]) writeHeight(n *chunktree.Node, el Node, written *int) {
	if !n.DirtyHeight {
		return
	}
	n.DirtyHeight = false
	if el != nil {
		el.SetHeight(n.Height)
		*written++
	}
}

// Reset destroys the tree and drops the rows and surface. Ready-class
// callbacks still queued become no-ops.
func (m *Model[R]) Reset() {
	m.log.Debug("reset")
	if m.tree != nil {
		m.tree.Destroy()
	}
	m.tree = nil
	m.rows = nil
	m.size = 0
	m.surface = nil
	m.generation++
	m.emit(Event{Kind: EventReset})
}

// Destroy resets the model and drops every observer. Later ChunkDom calls
// fail with ErrDestroyed.
func (m *Model[R]) Destroy() {
	m.Reset()
	m.observers = nil
	m.destroyed = true
}
