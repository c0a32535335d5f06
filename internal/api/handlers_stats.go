package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleMaterializeStats(w http.ResponseWriter, r *http.Request) {
	if s.latency == nil {
		jsonError(w, "materialize stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"grids": s.grids.Len(),
		"stats": s.latency.Snapshot(),
	})
}
