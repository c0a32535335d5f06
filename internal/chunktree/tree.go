// Package chunktree groups a flat row list into a multi-level hierarchy of
// chunks so that no container ever holds more than a fixed number of
// children. Each chunk caches the aggregate pixel height of the rows it
// covers; a height change dirties the chunk and its ancestors so that only
// those containers need their sizing rewritten.
//
// Chunks live in an arena owned by the Tree. Parent links are arena indexes,
// so a chunk never holds a reference to the node that owns it.
package chunktree

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// NodeID addresses a chunk in its tree's arena.
type NodeID int32

// NoNode is the parent of the root.
const NoNode NodeID = -1

// HeightProvider reports the aggregate pixel height of rows[min..max].
type HeightProvider[R any] interface {
	Height(rows []R, min, max int) int
}

// Node is a single chunk. A leaf chunk's children are the rows Min..Max; any
// other chunk's children are chunks.
type Node struct {
	Min         int // first row index covered
	Max         int // last row index covered, inclusive
	Height      int
	DirtyHeight bool
	Rendered    bool
	Index       int // position among siblings
	Parent      NodeID

	StartMarkup string
	EndMarkup   string

	leaf     bool
	children []NodeID
}

// IsLeaf reports whether the chunk's children are rows.
func (n *Node) IsLeaf() bool { return n.leaf }

// Len returns the number of immediate children.
func (n *Node) Len() int {
	if n.leaf {
		return n.Max - n.Min + 1
	}
	return len(n.children)
}

// Children returns the child chunk ids. It is nil for leaf chunks.
func (n *Node) Children() []NodeID { return n.children }

// Stub returns the wrapper markup around inner, sized to the chunk's
// current height.
func (n *Node) Stub(inner string) string {
	return sizeStart(n.StartMarkup, n.Height) + inner + n.EndMarkup
}

var styleAttr = regexp.MustCompile(`(?i)(\sstyle\s*=\s*)("([^"]*)"|'([^']*)'|([^\s"'>]+))`)

// sizeStart sets width and height on the start tag. An existing style
// attribute keeps its other declarations.
func sizeStart(start string, height int) string {
	if !strings.HasSuffix(start, ">") {
		return start
	}
	size := fmt.Sprintf("width:100%%;height:%dpx;", height)
	loc := styleAttr.FindStringSubmatchIndex(start)
	if loc == nil {
		return fmt.Sprintf(`%s style="%s">`, strings.TrimSuffix(start, ">"), size)
	}
	var decls string
	quote := `"`
	switch {
	case loc[6] >= 0:
		decls = start[loc[6]:loc[7]]
	case loc[8] >= 0:
		decls, quote = start[loc[8]:loc[9]], "'"
	default:
		decls = start[loc[10]:loc[11]]
	}
	return start[:loc[3]] + quote + mergeSize(decls, size) + quote + start[loc[1]:]
}

func mergeSize(decls, size string) string {
	var b strings.Builder
	for _, d := range strings.Split(decls, ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		prop, _, _ := strings.Cut(d, ":")
		switch strings.ToLower(strings.TrimSpace(prop)) {
		case "width", "height":
			continue
		}
		b.WriteString(d)
		b.WriteByte(';')
	}
	b.WriteString(size)
	return b.String()
}

func (n *Node) destroy() {
	n.StartMarkup = ""
	n.EndMarkup = ""
	n.Rendered = false
	n.Parent = NoNode
	n.children = n.children[:0]
}

// Tree is a built chunk hierarchy over a row slice.
type Tree[R any] struct {
	nodes   []Node
	root    NodeID
	size    int
	rows    []R
	heights HeightProvider[R]
	levels  int
}

// Build partitions rows into leaf chunks of at most size rows, then keeps
// regrouping the resulting level into parent chunks until it has no more than
// size members. The root wraps that final level. Heights are computed bottom
// up and every chunk starts clean.
func Build[R any](rows []R, size int, startMarkup, endMarkup string, heights HeightProvider[R]) (*Tree[R], error) {
	if size <= 0 {
		return nil, fmt.Errorf("build with size %d: %w", size, ErrInvalidSize)
	}
	// Groups of one never shrink a level, so regrouping could not terminate.
	if size == 1 && len(rows) > 1 {
		return nil, fmt.Errorf("build %d rows with size 1: %w", len(rows), ErrInvalidSize)
	}

	t := &Tree[R]{
		size:    size,
		rows:    rows,
		heights: heights,
		nodes:   make([]Node, 0, estimateNodes(len(rows), size)),
	}

	var level []NodeID
	for i := 0; i < len(rows); i += size {
		last := min(i+size, len(rows)) - 1
		id := t.alloc(Node{
			Min:         i,
			Max:         last,
			Index:       len(level),
			Parent:      NoNode,
			StartMarkup: startMarkup,
			EndMarkup:   endMarkup,
			leaf:        true,
		})
		t.nodes[id].Height = t.computeHeight(id)
		level = append(level, id)
	}
	if len(level) > 0 {
		t.levels = 1
	}

	for len(level) > size {
		level = t.regroup(level, startMarkup, endMarkup)
		t.levels++
	}

	root := Node{
		Max:         -1,
		Parent:      NoNode,
		StartMarkup: startMarkup,
		EndMarkup:   endMarkup,
		children:    level,
	}
	if len(level) > 0 {
		root.Min = t.nodes[level[0]].Min
		root.Max = t.nodes[level[len(level)-1]].Max
	}
	t.root = t.alloc(root)
	t.adopt(t.root)
	t.nodes[t.root].Height = t.computeHeight(t.root)
	t.levels++

	return t, nil
}

func estimateNodes(rows, size int) int {
	n, level := 1, rows
	for level > 0 {
		level = (level + size - 1) / size
		n += level
		if level <= 1 {
			break
		}
	}
	return n
}

func (t *Tree[R]) alloc(n Node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// regroup wraps consecutive runs of size ids into new parent chunks.
func (t *Tree[R]) regroup(level []NodeID, startMarkup, endMarkup string) []NodeID {
	var parents []NodeID
	for i := 0; i < len(level); i += t.size {
		group := level[i:min(i+t.size, len(level))]
		id := t.alloc(Node{
			Min:         t.nodes[group[0]].Min,
			Max:         t.nodes[group[len(group)-1]].Max,
			Index:       len(parents),
			Parent:      NoNode,
			StartMarkup: startMarkup,
			EndMarkup:   endMarkup,
			children:    append([]NodeID(nil), group...),
		})
		t.adopt(id)
		t.nodes[id].Height = t.computeHeight(id)
		parents = append(parents, id)
	}
	return parents
}

func (t *Tree[R]) adopt(parent NodeID) {
	for i, c := range t.nodes[parent].children {
		t.nodes[c].Parent = parent
		t.nodes[c].Index = i
	}
}

func (t *Tree[R]) computeHeight(id NodeID) int {
	n := &t.nodes[id]
	if n.leaf {
		if t.heights == nil {
			return 0
		}
		return t.heights.Height(t.rows, n.Min, n.Max)
	}
	h := 0
	for _, c := range n.children {
		h += t.nodes[c].Height
	}
	return h
}

// Root returns the id of the top-level chunk.
func (t *Tree[R]) Root() NodeID { return t.root }

// Node returns the chunk stored at id. The pointer stays valid until Destroy.
// It returns nil for an id the tree does not hold, including every id once
// the tree is destroyed.
func (t *Tree[R]) Node(id NodeID) *Node {
	if !t.holds(id) {
		return nil
	}
	return &t.nodes[id]
}

func (t *Tree[R]) holds(id NodeID) bool { return id >= 0 && int(id) < len(t.nodes) }

// Size is the maximum number of children per chunk.
func (t *Tree[R]) Size() int { return t.size }

// Rows returns the row slice the tree was built over.
func (t *Tree[R]) Rows() []R { return t.rows }

// Levels counts chunk levels including the root; 1 for an empty tree.
func (t *Tree[R]) Levels() int { return t.levels }

// Destroyed reports whether Destroy has run.
func (t *Tree[R]) Destroyed() bool { return t.nodes == nil }

// Leaves returns the leaf chunks in row order.
func (t *Tree[R]) Leaves() []NodeID {
	var out []NodeID
	var walk func(NodeID)
	walk = func(id NodeID) {
		n := &t.nodes[id]
		if n.leaf {
			out = append(out, id)
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	if !t.Destroyed() {
		walk(t.root)
	}
	return out
}

// UpdateHeight recomputes the chunk's height from its children (or from the
// height provider for a leaf chunk). A changed height marks the chunk dirty,
// and a dirty chunk passes the update to its parent. Ascent stops at the
// first chunk that is neither changed nor already dirty.
func (t *Tree[R]) UpdateHeight(id NodeID) {
	for t.holds(id) {
		n := &t.nodes[id]
		h := t.computeHeight(id)
		if n.Height != h {
			n.DirtyHeight = true
		}
		n.Height = h
		if !n.DirtyHeight {
			return
		}
		id = n.Parent
	}
}

// ForceRecalc recomputes every height bottom up regardless of the cached
// values. Each chunk whose height changed has its whole ancestor chain
// marked dirty, even ancestors whose own sum ends up unchanged. It returns
// the number of chunks whose height changed.
func (t *Tree[R]) ForceRecalc() int {
	if t.Destroyed() {
		return 0
	}
	changed := 0
	t.forceRecalc(t.root, &changed)
	return changed
}

func (t *Tree[R]) forceRecalc(id NodeID, changed *int) int {
	n := &t.nodes[id]
	h := 0
	if n.leaf {
		h = t.computeHeight(id)
	} else {
		for _, c := range n.children {
			h += t.forceRecalc(c, changed)
		}
	}
	if n.Height != h {
		n.Height = h
		t.SetDirtyHeight(id)
		*changed++
	}
	return n.Height
}

// SetDirtyHeight marks the chunk and every ancestor up to the root dirty.
func (t *Tree[R]) SetDirtyHeight(id NodeID) {
	for t.holds(id) {
		t.nodes[id].DirtyHeight = true
		id = t.nodes[id].Parent
	}
}

// ResolvePath returns the sibling indexes leading from the root to rowIndex.
// The final element is the row's position inside its leaf chunk.
func (t *Tree[R]) ResolvePath(rowIndex int) ([]int, error) {
	if t.Destroyed() {
		return nil, &OutOfRangeError{Index: rowIndex, Min: 0, Max: -1}
	}
	root := &t.nodes[t.root]
	if rowIndex < root.Min || rowIndex > root.Max || len(root.children) == 0 {
		return nil, &OutOfRangeError{Index: rowIndex, Min: root.Min, Max: root.Max}
	}

	path := make([]int, 0, t.levels)
	id := t.root
	for {
		n := &t.nodes[id]
		if n.leaf {
			return append(path, rowIndex%t.size), nil
		}
		i := sort.Search(len(n.children), func(i int) bool {
			return t.nodes[n.children[i]].Max >= rowIndex
		})
		if i == len(n.children) || t.nodes[n.children[i]].Min > rowIndex {
			return nil, &OutOfRangeError{Index: rowIndex, Min: n.Min, Max: n.Max}
		}
		path = append(path, i)
		id = n.children[i]
	}
}

// ChunkAt follows path from the root and returns the deepest chunk it
// reaches; for a full row path that is the row's leaf chunk.
func (t *Tree[R]) ChunkAt(path []int) (NodeID, error) {
	if t.Destroyed() {
		return NoNode, ErrDestroyed
	}
	id := t.root
	for _, i := range path {
		n := &t.nodes[id]
		if n.leaf {
			break
		}
		if i < 0 || i >= len(n.children) {
			return NoNode, fmt.Errorf("path %v: index %d out of %d children", path, i, len(n.children))
		}
		id = n.children[i]
	}
	return id, nil
}

// ID renders the chunk's position as dotted sibling indexes from the root,
// e.g. "0.2.1".
func (t *Tree[R]) ID(id NodeID) string {
	var parts []string
	for t.holds(id) {
		parts = append(parts, strconv.Itoa(t.nodes[id].Index))
		id = t.nodes[id].Parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// Destroy clears every chunk and drops the rows and height provider. It is
// safe to call more than once. Afterwards Node returns nil, ID returns "",
// ChunkAt fails with ErrDestroyed and height updates do nothing.
func (t *Tree[R]) Destroy() {
	for i := range t.nodes {
		t.nodes[i].destroy()
	}
	t.nodes = nil
	t.rows = nil
	t.heights = nil
	t.root = NoNode
}
