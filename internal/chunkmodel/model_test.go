package chunkmodel_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dgallion1/chunkgrid/internal/chunkmodel"
	"github.com/dgallion1/chunkgrid/internal/chunktree"
	"github.com/dgallion1/chunkgrid/internal/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowProvider renders each row as a div and reads heights from a mutable
// slice indexed by row id.
type rowProvider struct {
	heights []int
	tag     string
	fail    int
}

func newRows(n, height int) ([]int, *rowProvider) {
	rows := make([]int, n)
	heights := make([]int, n)
	for i := range rows {
		rows[i] = i
		heights[i] = height
	}
	return rows, &rowProvider{heights: heights, tag: "div", fail: -1}
}

func (p *rowProvider) Height(rows []int, min, max int) int {
	h := 0
	for i := min; i <= max; i++ {
		h += p.heights[rows[i]]
	}
	return h
}

func (p *rowProvider) Template(row int) (chunkmodel.Template, error) {
	if row == p.fail {
		return chunkmodel.Template{}, fmt.Errorf("no template for %d", row)
	}
	return chunkmodel.Template{
		Name:   "row",
		Markup: fmt.Sprintf(`<%s class="row">%d</%s>`, p.tag, row, p.tag),
	}, nil
}

type fixture struct {
	model  *chunkmodel.Model[int]
	prov   *rowProvider
	doc    *surface.Document
	root   *surface.Element
	frames *chunkmodel.FrameQueue
	events []chunkmodel.Event
}

func build(t *testing.T, n, size int) *fixture {
	t.Helper()
	rows, prov := newRows(n, 10)
	f := &fixture{prov: prov, frames: &chunkmodel.FrameQueue{}, doc: surface.New("div", "grid")}
	f.root = f.doc.Root()
	f.model = chunkmodel.New[int](chunkmodel.DefaultOptions(), prov, f.frames, nil)
	f.model.Subscribe(func(ev chunkmodel.Event) { f.events = append(f.events, ev) })

	opts := f.model.Options()
	_, err := f.model.ChunkDom(rows, size, opts.TemplateStart, opts.TemplateEnd, f.root)
	require.NoError(t, err)
	return f
}

func (f *fixture) count(kind chunkmodel.EventKind) int {
	n := 0
	for _, ev := range f.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func child(el chunkmodel.Node, i int) *surface.Element {
	return el.Children()[i].(*surface.Element)
}

func TestChunkDom_InsertsNothing(t *testing.T) {
	f := build(t, 100, 10)
	assert.Empty(t, f.root.Children())
	assert.Equal(t, 1, f.count(chunkmodel.EventChunkDom))
	assert.Equal(t, 1000, f.model.Tree().Node(f.model.Tree().Root()).Height)
}

func TestChunkDom_NilRoot(t *testing.T) {
	rows, prov := newRows(3, 10)
	m := chunkmodel.New[int](chunkmodel.Options{}, prov, nil, nil)
	_, err := m.ChunkDom(rows, 2, "<div>", "</div>", nil)
	assert.Error(t, err)
}

func TestChunkDom_InvalidSize(t *testing.T) {
	rows, prov := newRows(3, 10)
	m := chunkmodel.New[int](chunkmodel.Options{}, prov, nil, nil)
	_, err := m.ChunkDom(rows, 0, "<div>", "</div>", surface.New("div", "").Root())
	assert.ErrorIs(t, err, chunktree.ErrInvalidSize)
}

func TestGetRowIndexes(t *testing.T) {
	f := build(t, 100, 10)
	path, err := f.model.GetRowIndexes(57)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 7}, path)
	assert.Empty(t, f.root.Children())
}

func TestGetRow_MaterializesPathOnly(t *testing.T) {
	f := build(t, 100, 10)

	el, err := f.model.GetRow(5)
	require.NoError(t, err)
	assert.Equal(t, "5", el.(*surface.Element).Text())
	assert.Equal(t, 2, f.count(chunkmodel.EventMaterialized))

	chunks := f.root.Children()
	require.Len(t, chunks, 10)
	assert.Len(t, chunks[0].Children(), 10)
	for i := 1; i < 10; i++ {
		assert.Empty(t, chunks[i].Children(), "chunk %d should stay empty", i)
	}
	assert.Equal(t, "100px", child(f.root, 3).Style("height"))

	tree := f.model.Tree()
	root := tree.Node(tree.Root())
	assert.True(t, root.Rendered)
	assert.True(t, tree.Node(root.Children()[0]).Rendered)
	assert.False(t, tree.Node(root.Children()[1]).Rendered)
}

func TestGetRow_SharedChunkMaterializedOnce(t *testing.T) {
	f := build(t, 100, 10)

	_, err := f.model.GetRow(5)
	require.NoError(t, err)
	el, err := f.model.GetRow(7)
	require.NoError(t, err)
	assert.Equal(t, "7", el.(*surface.Element).Text())
	assert.Equal(t, 2, f.count(chunkmodel.EventMaterialized))

	_, err = f.model.GetRow(57)
	require.NoError(t, err)
	assert.Equal(t, 3, f.count(chunkmodel.EventMaterialized))
	assert.Len(t, child(f.root, 5).Children(), 10)
}

func TestGetRow_DeepTree(t *testing.T) {
	f := build(t, 25, 2)
	el, err := f.model.GetRow(24)
	require.NoError(t, err)
	assert.Equal(t, "24", el.(*surface.Element).Text())
	assert.Equal(t, 5, f.count(chunkmodel.EventMaterialized))
}

func TestGetRow_OutOfRange(t *testing.T) {
	f := build(t, 10, 5)
	_, err := f.model.GetRow(10)
	assert.ErrorIs(t, err, chunktree.ErrOutOfRange)

	var oor *chunktree.OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 9, oor.Max)
	assert.Empty(t, f.root.Children())
}

func TestGetRow_NotBuilt(t *testing.T) {
	_, prov := newRows(1, 10)
	m := chunkmodel.New[int](chunkmodel.Options{}, prov, nil, nil)
	_, err := m.GetRow(0)
	assert.ErrorIs(t, err, chunkmodel.ErrNotBuilt)
	_, err = m.UpdateAllChunkHeights(0)
	assert.ErrorIs(t, err, chunkmodel.ErrNotBuilt)
}

func TestReadyClass_AppliedOnNextFrame(t *testing.T) {
	f := build(t, 100, 10)
	_, err := f.model.GetRow(5)
	require.NoError(t, err)

	for _, c := range f.root.Children() {
		assert.False(t, c.HasClass("chunk-ready"))
	}
	assert.Equal(t, 20, f.doc.Layouts())

	// Only the root's children are chunk wrappers; the leaf's are rows.
	assert.Equal(t, 1, f.frames.Flush())
	for _, c := range f.root.Children() {
		assert.True(t, c.HasClass("chunk-ready"))
	}
	for _, r := range f.root.Children()[0].Children() {
		assert.False(t, r.HasClass("chunk-ready"))
	}
}

func TestReadyClass_SkippedAfterReset(t *testing.T) {
	f := build(t, 100, 10)
	_, err := f.model.GetRow(5)
	require.NoError(t, err)
	chunks := f.root.Children()

	f.model.Reset()
	assert.Equal(t, 1, f.frames.Flush())
	for _, c := range chunks {
		assert.False(t, c.HasClass("chunk-ready"))
	}
	_, err = f.model.GetRow(5)
	assert.ErrorIs(t, err, chunkmodel.ErrNotBuilt)
}

func TestUpdateAllChunkHeights_WritesDirtyChain(t *testing.T) {
	f := build(t, 100, 10)
	_, err := f.model.GetRow(5)
	require.NoError(t, err)

	f.prov.heights[5] = 30
	written, err := f.model.UpdateAllChunkHeights(5)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	assert.Equal(t, "120px", child(f.root, 0).Style("height"))
	assert.Equal(t, "100%", child(f.root, 0).Style("width"))
	assert.Equal(t, "100px", child(f.root, 1).Style("height"))
	assert.Equal(t, "1020px", f.root.Style("height"))

	tree := f.model.Tree()
	for _, id := range tree.Leaves() {
		assert.False(t, tree.Node(id).DirtyHeight)
	}
	assert.False(t, tree.Node(tree.Root()).DirtyHeight)
}

func TestUpdateAllChunkHeights_Unchanged(t *testing.T) {
	f := build(t, 100, 10)
	_, err := f.model.GetRow(5)
	require.NoError(t, err)

	written, err := f.model.UpdateAllChunkHeights(5)
	require.NoError(t, err)
	assert.Zero(t, written)
	assert.Equal(t, "", f.root.Style("height"))
}

func TestUpdateAllChunkHeights_UnrenderedChunkPicksUpHeight(t *testing.T) {
	f := build(t, 100, 10)

	f.prov.heights[95] = 50
	written, err := f.model.UpdateAllChunkHeights(95)
	require.NoError(t, err)
	// Only the attachment root exists on the surface.
	assert.Equal(t, 1, written)
	assert.Equal(t, "1040px", f.root.Style("height"))

	tree := f.model.Tree()
	leaf := tree.Node(tree.Node(tree.Root()).Children()[9])
	assert.False(t, leaf.DirtyHeight)

	_, err = f.model.GetRow(95)
	require.NoError(t, err)
	assert.Equal(t, "140px", child(f.root, 9).Style("height"))
}

func TestUpdateAllChunkHeights_WithRange(t *testing.T) {
	f := build(t, 100, 10)
	_, err := f.model.GetRow(5)
	require.NoError(t, err)

	f.prov.heights[5] = 20
	f.prov.heights[95] = 20
	_, err = f.model.UpdateAllChunkHeights(5, chunkmodel.WithRange(2))
	require.NoError(t, err)

	assert.Equal(t, "110px", child(f.root, 0).Style("height"))
	assert.Equal(t, "110px", child(f.root, 9).Style("height"))
	assert.Equal(t, "100px", child(f.root, 4).Style("height"))
	assert.Equal(t, "1020px", f.root.Style("height"))
}

func TestUpdateAllChunkHeights_WithoutRangeMissesOtherChunks(t *testing.T) {
	f := build(t, 100, 10)
	_, err := f.model.GetRow(5)
	require.NoError(t, err)

	f.prov.heights[5] = 20
	f.prov.heights[95] = 20
	_, err = f.model.UpdateAllChunkHeights(5)
	require.NoError(t, err)

	assert.Equal(t, "110px", child(f.root, 0).Style("height"))
	assert.Equal(t, "100px", child(f.root, 9).Style("height"))
	assert.Equal(t, "1010px", f.root.Style("height"))
}

func TestUpdateAllChunkHeights_OutOfRange(t *testing.T) {
	f := build(t, 10, 5)
	_, err := f.model.UpdateAllChunkHeights(42)
	assert.ErrorIs(t, err, chunktree.ErrOutOfRange)
}

func TestMaterialization_MarkupMismatch(t *testing.T) {
	f := build(t, 20, 10)
	f.prov.tag = "tr"

	_, err := f.model.GetRow(3)
	require.Error(t, err)
	assert.ErrorIs(t, err, chunkmodel.ErrMarkupMismatch)

	var merr *chunkmodel.MaterializationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "0.0", merr.Chunk)
	assert.Equal(t, 1, merr.Depth)
	assert.Equal(t, []int{0, 3}, merr.Path)

	tree := f.model.Tree()
	assert.True(t, tree.Node(tree.Root()).Rendered)
	assert.False(t, tree.Node(tree.Leaves()[0]).Rendered)

	// A fixed template succeeds on retry.
	f.prov.tag = "div"
	el, err := f.model.GetRow(3)
	require.NoError(t, err)
	assert.Equal(t, "3", el.(*surface.Element).Text())
}

func TestMaterialization_TemplateError(t *testing.T) {
	f := build(t, 20, 10)
	f.prov.fail = 12

	_, err := f.model.GetRow(12)
	var merr *chunkmodel.MaterializationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "0.1", merr.Chunk)
	assert.False(t, errors.Is(err, chunkmodel.ErrMarkupMismatch))

	// Rows in other chunks are unaffected.
	_, err = f.model.GetRow(2)
	assert.NoError(t, err)
}

func TestChunkDom_ReplacesPreviousTree(t *testing.T) {
	f := build(t, 20, 10)
	_, err := f.model.GetRow(0)
	require.NoError(t, err)
	first := f.model.Tree()

	rows, _ := newRows(5, 10)
	_, err = f.model.ChunkDom(rows, 10, "<div>", "</div>", f.root)
	require.NoError(t, err)
	assert.True(t, first.Destroyed())
	assert.Equal(t, 1, f.count(chunkmodel.EventReset))
	assert.Equal(t, 5, f.model.Tree().Node(f.model.Tree().Root()).Max+1)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	f := build(t, 20, 10)
	var seen int
	unsubscribe := f.model.Subscribe(func(chunkmodel.Event) { seen++ })

	_, err := f.model.GetRow(0)
	require.NoError(t, err)
	assert.Equal(t, 2, seen)

	unsubscribe()
	_, err = f.model.GetRow(15)
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestDestroy(t *testing.T) {
	f := build(t, 20, 10)
	_, err := f.model.GetRow(0)
	require.NoError(t, err)

	f.model.Destroy()
	assert.Nil(t, f.model.Tree())
	assert.Equal(t, 1, f.frames.Flush())
	assert.False(t, child(f.root, 0).HasClass("chunk-ready"))

	var seen int
	f.model.Subscribe(func(chunkmodel.Event) { seen++ })
	f.model.Reset()
	assert.Zero(t, seen)
}

func TestChunkDom_AfterDestroy(t *testing.T) {
	f := build(t, 20, 10)
	f.model.Destroy()

	rows, _ := newRows(5, 10)
	_, err := f.model.ChunkDom(rows, 2, `<div class="chunk">`, `</div>`, surface.New("div", "grid").Root())
	assert.ErrorIs(t, err, chunkmodel.ErrDestroyed)
	assert.Nil(t, f.model.Tree())
	_, err = f.model.GetRow(0)
	assert.ErrorIs(t, err, chunkmodel.ErrNotBuilt)
}

func TestGetRow_WrapperStyleKept(t *testing.T) {
	rows, prov := newRows(20, 10)
	doc := surface.New("div", "grid")
	frames := &chunkmodel.FrameQueue{}
	m := chunkmodel.New[int](chunkmodel.DefaultOptions(), prov, frames, nil)
	_, err := m.ChunkDom(rows, 10, `<div class="chunk" style="overflow:hidden">`, `</div>`, doc.Root())
	require.NoError(t, err)

	_, err = m.GetRow(3)
	require.NoError(t, err)
	frames.Flush()

	wrapper := child(doc.Root(), 0)
	assert.Equal(t, "100px", wrapper.Style("height"))
	assert.Equal(t, "100%", wrapper.Style("width"))
	assert.Equal(t, "hidden", wrapper.Style("overflow"))
	assert.True(t, wrapper.HasClass("chunk-ready"))
}
