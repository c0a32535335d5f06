package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

func rowIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonError(w, "row index must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	g := s.grid(w, r)
	if g == nil {
		return
	}
	index, ok := rowIndex(w, r)
	if !ok {
		return
	}

	start := time.Now()
	view, err := g.Row(index)
	if err != nil {
		s.log.Warn("get row failed", "grid_id", g.ID, "index", index, "error", err)
		gridError(w, err)
		return
	}
	if s.latency != nil {
		s.latency.Record(time.Since(start), view.Chunks)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (s *Server) handleRowPath(w http.ResponseWriter, r *http.Request) {
	g := s.grid(w, r)
	if g == nil {
		return
	}
	index, ok := rowIndex(w, r)
	if !ok {
		return
	}

	path, err := g.Path(index)
	if err != nil {
		gridError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"index": index,
		"path":  path,
	})
}

type heightRequest struct {
	Height *int `json:"height"`
	Range  int  `json:"range"`
}

func (s *Server) handleSetHeight(w http.ResponseWriter, r *http.Request) {
	g := s.grid(w, r)
	if g == nil {
		return
	}
	index, ok := rowIndex(w, r)
	if !ok {
		return
	}

	var req heightRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Height == nil || *req.Height < 0 {
		jsonError(w, "height must be a non-negative integer", http.StatusBadRequest)
		return
	}
	if req.Range < 0 {
		jsonError(w, "range must not be negative", http.StatusBadRequest)
		return
	}

	up, err := g.SetHeight(index, *req.Height, req.Range)
	if err != nil {
		gridError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(up)
}
