package gridstore

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/chunkgrid/internal/chunkmodel"
	"github.com/dgallion1/chunkgrid/internal/rowset"
	"github.com/dgallion1/chunkgrid/internal/rowtemplate"
	"github.com/dgallion1/chunkgrid/internal/surface"
	"github.com/google/uuid"
)

// Grid is one live chunk model with its surface and row heights. Every
// model call goes through the grid's mutex.
type Grid struct {
	mu sync.Mutex

	ID          string
	Filename    string
	Title       string
	ContentHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	rows         []rowset.Row
	size         int
	model        *chunkmodel.Model[rowset.Row]
	provider     *rowtemplate.Provider
	doc          *surface.Document
	frames       *chunkmodel.FrameQueue
	materialized int
	unsubscribe  func()
}

// Params describes a grid to build.
type Params struct {
	Filename    string
	Title       string
	ContentHash string
	Rows        []rowset.Row
	ChunkSize   int
	Options     chunkmodel.Options
	Templates   rowtemplate.Config
}

// NewGrid builds the chunk tree over params.Rows and attaches it to a fresh
// surface. Nothing is materialized until the first Row call.
func NewGrid(params Params, log *slog.Logger) (*Grid, error) {
	provider, err := rowtemplate.New(params.Templates)
	if err != nil {
		return nil, err
	}
	if err := params.Options.WithDefaults().Validate(); err != nil {
		return nil, err
	}
	size := params.ChunkSize
	if size <= 0 {
		size = params.Options.ChunkSize
	}

	now := time.Now()
	g := &Grid{
		ID:          uuid.NewString(),
		Filename:    params.Filename,
		Title:       params.Title,
		ContentHash: params.ContentHash,
		CreatedAt:   now,
		UpdatedAt:   now,
		rows:        params.Rows,
		provider:    provider,
		doc:         surface.New("div", "chunk-grid"),
		frames:      &chunkmodel.FrameQueue{},
	}
	if log == nil {
		log = slog.Default()
	}
	g.model = chunkmodel.New[rowset.Row](params.Options, provider, g.frames, log.With("grid_id", g.ID))
	g.unsubscribe = g.model.Subscribe(func(ev chunkmodel.Event) {
		if ev.Kind == chunkmodel.EventMaterialized {
			g.materialized++
		}
	})

	opts := g.model.Options()
	if _, err := g.model.ChunkDom(params.Rows, size, opts.TemplateStart, opts.TemplateEnd, g.doc.Root()); err != nil {
		g.model.Destroy()
		return nil, fmt.Errorf("build grid: %w", err)
	}
	g.size = size
	return g, nil
}

// RowView is a materialized row.
type RowView struct {
	Index  int    `json:"index"`
	Path   []int  `json:"path"`
	HTML   string `json:"html"`
	Chunks int    `json:"chunks_materialized"`
}

// Row materializes the path to index, runs the pending frame callbacks and
// returns the row's markup. Chunks counts the chunks this call materialized.
func (g *Grid) Row(index int) (RowView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	path, err := g.model.GetRowIndexes(index)
	if err != nil {
		return RowView{}, err
	}
	before := g.materialized
	el, err := g.model.GetRow(index)
	if err != nil {
		return RowView{}, err
	}
	g.frames.Flush()
	g.UpdatedAt = time.Now()

	return RowView{
		Index:  index,
		Path:   path,
		HTML:   el.(*surface.Element).OuterHTML(),
		Chunks: g.materialized - before,
	}, nil
}

// Path resolves index without materializing anything.
func (g *Grid) Path(index int) ([]int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.model.GetRowIndexes(index)
}

// HeightUpdate is the result of SetHeight.
type HeightUpdate struct {
	Index   int `json:"index"`
	Height  int `json:"height"`
	Written int `json:"elements_written"`
	Total   int `json:"grid_height"`
}

// SetHeight pins the row's height and propagates it. A positive rangeCount
// says that many rows may have changed, forcing a full recalculation.
func (g *Grid) SetHeight(index, px, rangeCount int) (HeightUpdate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.model.GetRowIndexes(index); err != nil {
		return HeightUpdate{}, err
	}
	g.provider.SetHeight(index, px)

	var opts []chunkmodel.UpdateOption
	if rangeCount > 0 {
		opts = append(opts, chunkmodel.WithRange(rangeCount))
	}
	written, err := g.model.UpdateAllChunkHeights(index, opts...)
	if err != nil {
		return HeightUpdate{}, err
	}
	g.UpdatedAt = time.Now()

	tree := g.model.Tree()
	return HeightUpdate{
		Index:   index,
		Height:  px,
		Written: written,
		Total:   tree.Node(tree.Root()).Height,
	}, nil
}

// HTML renders the whole surface.
func (g *Grid) HTML() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.doc.Root().OuterHTML()
}

// Snapshot is a read-only, JSON-safe copy of grid state.
type Snapshot struct {
	ID           string    `json:"grid_id"`
	Filename     string    `json:"filename"`
	Title        string    `json:"title"`
	ContentHash  string    `json:"content_hash,omitempty"`
	Rows         int       `json:"rows"`
	ChunkSize    int       `json:"chunk_size"`
	Height       int       `json:"height"`
	Levels       int       `json:"levels"`
	Materialized int       `json:"chunks_materialized"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the grid state.
func (g *Grid) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := Snapshot{
		ID:           g.ID,
		Filename:     g.Filename,
		Title:        g.Title,
		ContentHash:  g.ContentHash,
		Rows:         len(g.rows),
		ChunkSize:    g.size,
		Materialized: g.materialized,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
	if tree := g.model.Tree(); tree != nil {
		snap.Height = tree.Node(tree.Root()).Height
		snap.Levels = tree.Levels()
	}
	return snap
}

func (g *Grid) lastUsed() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.UpdatedAt
}

// Destroy tears down the model. Further calls return chunkmodel.ErrNotBuilt.
func (g *Grid) Destroy() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
	g.model.Destroy()
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
