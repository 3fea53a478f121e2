// Package server sets up the HTTP router, middleware, and request handlers.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/howard-nolan/pplxproxy/internal/config"
	"github.com/howard-nolan/pplxproxy/internal/provider"
)

// Server holds the HTTP router and all dependencies that handlers need.
// Nothing here changes after New returns, so concurrent requests share it
// without locking.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	provider provider.Provider
}

// New creates a Server, wires up routes and middleware, and returns it
// ready to use as an http.Handler.
func New(cfg *config.Config, p provider.Provider) *Server {
	s := &Server{cfg: cfg, provider: p}
	s.routes()
	return s
}

// routes builds the chi router with all middleware and route definitions,
// gathered in one method so the routing table is easy to scan.
func (s *Server) routes() {
	r := chi.NewRouter()

	// --- Global middleware ---
	// requestID runs first so the Logger line and any error logs carry
	// the same ID that goes back in the X-Request-Id header.
	r.Use(requestID)
	r.Use(middleware.Logger)

	// instrument sits outside Recoverer so a panicking handler is still
	// counted, as the 500 that Recoverer writes.
	r.Use(instrument)
	r.Use(middleware.Recoverer)

	// --- Open routes ---
	r.Get("/health", s.handleHealth)
	r.Post("/ask", s.handleAsk)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// --- Routes gated by the client identification key ---
	// The configured-key check happens here, before the body is read.
	// Comparing the client's key needs the decoded body, so that part
	// lives in the handlers.
	r.Group(func(r chi.Router) {
		r.Use(s.requireIdentKey)
		r.Post("/ask_text", s.handleAskText)
		r.Post("/search_text", s.handleSearchText)
	})

	s.router = r
}

// ServeHTTP makes Server satisfy the http.Handler interface by delegating
// to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
