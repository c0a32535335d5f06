package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/chunkgrid/internal/chunkmodel"
	"github.com/dgallion1/chunkgrid/internal/config"
	"github.com/dgallion1/chunkgrid/internal/gridstore"
	"github.com/dgallion1/chunkgrid/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for chunkgrid.
type Server struct {
	router  chi.Router
	grids   *gridstore.Store
	latency *stats.Latency
	opts    chunkmodel.Options
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server. opts are the grid
// options applied to every upload.
func NewServer(grids *gridstore.Store, latency *stats.Latency, opts chunkmodel.Options, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		grids:   grids,
		latency: latency,
		opts:    opts,
		log:     log,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/grids", s.handleCreateGrid)
		r.Route("/api/grids/{gridID}", func(r chi.Router) {
			r.Get("/", s.handleGetGrid)
			r.Delete("/", s.handleDeleteGrid)
			r.Get("/html", s.handleGridHTML)
			r.Get("/rows/{index}", s.handleGetRow)
			r.Get("/rows/{index}/path", s.handleRowPath)
			r.Put("/rows/{index}/height", s.handleSetHeight)
		})
		r.Get("/api/stats/materialize", s.handleMaterializeStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
