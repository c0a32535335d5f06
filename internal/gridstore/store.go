// Package gridstore keeps the live grids served by the API.
package gridstore

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store is a thread-safe in-memory grid registry with TTL eviction.
type Store struct {
	mu    sync.Mutex
	grids map[string]*Grid
	ttl   time.Duration
	log   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(ttl time.Duration, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		grids: make(map[string]*Grid),
		ttl:   ttl,
		log:   log,
	}
}

func (s *Store) Put(g *Grid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grids[g.ID] = g
}

func (s *Store) Get(id string) *Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grids[id]
}

// Delete removes and destroys a grid. It reports whether the grid existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	g, ok := s.grids[id]
	delete(s.grids, id)
	s.mu.Unlock()
	if ok {
		g.Destroy()
	}
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.grids)
}

// Cleanup destroys grids unused for longer than the TTL and returns how many
// were removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	now := time.Now()
	var expired []*Grid
	for id, g := range s.grids {
		if now.Sub(g.lastUsed()) > s.ttl {
			expired = append(expired, g)
			delete(s.grids, id)
		}
	}
	s.mu.Unlock()

	for _, g := range expired {
		g.Destroy()
		s.log.Info("grid expired", "grid_id", g.ID)
	}
	return len(expired)
}

// Start runs Cleanup every interval until Stop or ctx is done.
func (s *Store) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Stop halts the cleanup loop and destroys every grid.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	grids := s.grids
	s.grids = make(map[string]*Grid)
	s.mu.Unlock()
	for _, g := range grids {
		g.Destroy()
	}
}
