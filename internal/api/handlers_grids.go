package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/chunkgrid/internal/gridstore"
	"github.com/dgallion1/chunkgrid/internal/parser"
	"github.com/dgallion1/chunkgrid/internal/rowtemplate"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCreateGrid(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	p, err := parser.ForFile(filename)
	if err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	chunkSize := s.opts.ChunkSize
	if v := r.FormValue("chunk_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "chunk_size must be a positive integer", http.StatusBadRequest)
			return
		}
		chunkSize = n
	}

	templates := s.cfg.RowTemplates()
	if v := r.FormValue("format"); v != "" {
		templates.Format = rowtemplate.Format(v)
	}

	set, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "parse failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	title := r.FormValue("title")
	if title == "" {
		title = set.Title
	}

	g, err := gridstore.NewGrid(gridstore.Params{
		Filename:    filename,
		Title:       title,
		ContentHash: gridstore.ContentHashHex(data),
		Rows:        set.Rows,
		ChunkSize:   chunkSize,
		Options:     s.opts,
		Templates:   templates,
	}, s.log)
	if err != nil {
		// Invalid sizes and unknown formats both come from the request.
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.grids.Put(g)

	snap := g.Snapshot()
	s.log.Info("grid created", "grid_id", snap.ID, "filename", filename,
		"rows", snap.Rows, "chunk_size", snap.ChunkSize, "levels", snap.Levels)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"grid_id":    snap.ID,
		"title":      snap.Title,
		"rows":       snap.Rows,
		"chunk_size": snap.ChunkSize,
		"height":     snap.Height,
		"levels":     snap.Levels,
	})
}

func (s *Server) grid(w http.ResponseWriter, r *http.Request) *gridstore.Grid {
	gridID := chi.URLParam(r, "gridID")
	g := s.grids.Get(gridID)
	if g == nil {
		jsonError(w, "grid not found", http.StatusNotFound)
	}
	return g
}

func (s *Server) handleGetGrid(w http.ResponseWriter, r *http.Request) {
	g := s.grid(w, r)
	if g == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g.Snapshot())
}

func (s *Server) handleGridHTML(w http.ResponseWriter, r *http.Request) {
	g := s.grid(w, r)
	if g == nil {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, g.HTML())
}

func (s *Server) handleDeleteGrid(w http.ResponseWriter, r *http.Request) {
	gridID := chi.URLParam(r, "gridID")
	if !s.grids.Delete(gridID) {
		jsonError(w, "grid not found", http.StatusNotFound)
		return
	}
	s.log.Info("grid deleted", "grid_id", gridID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"grid_id": gridID,
		"deleted": true,
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
