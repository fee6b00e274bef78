// Package server exposes the rendered chart payloads over a small local HTTP
// API for previewing. Operations are declared with huma on a chi router.
//
// The server keeps one view state shared by all clients. POST /api/view applies
// a reducer action to it; the other endpoints render against it.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rewired-gh/trendline/internal/logger"
	"github.com/rewired-gh/trendline/internal/view"
)

// Server is the preview HTTP server.
type Server struct {
	router *chi.Mux
	api    huma.API
	source Source

	mu    sync.RWMutex
	state view.State
}

// New creates a server rendering from source, starting at state.
func New(source Source, state view.State) *Server {
	s := &Server{
		router: chi.NewRouter(),
		source: source,
		state:  state,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	s.api = humachi.New(s.router, huma.DefaultConfig("Trendline Preview", "1.0.0"))
	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// State returns the current shared view state.
func (s *Server) State() view.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// apply reduces action into the shared state and returns the result.
func (s *Server) apply(action view.Action) view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = view.Reduce(s.state, action)
	return s.state
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Preview server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("Shutting down preview server")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("%s %s -> %d (%s) [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}
