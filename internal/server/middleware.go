package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/howard-nolan/pplxproxy/internal/metrics"
	"github.com/howard-nolan/pplxproxy/internal/translate"
)

// requestIDHeader carries the request ID in both directions.
const requestIDHeader = "X-Request-Id"

// maxRequestIDLen caps a client-supplied request ID.
const maxRequestIDLen = 64

// requestID reuses the caller's X-Request-Id when it is a short token, or
// mints a UUID otherwise. The ID is echoed in the response and stored under
// chi's request ID key so middleware.Logger and middleware.GetReqID pick
// it up. Anything else a client sends is replaced, since the ID ends up
// verbatim in log lines.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validRequestID accepts 1-64 characters of letters, digits, '-', '_', '.'
// and ':'. That covers UUIDs and the usual tracing formats.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

// instrument records request count, latency, and in-flight gauge. Routes
// are labeled by chi's pattern rather than the raw path so unknown paths
// can't blow up label cardinality.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.ActiveRequests.Inc()
		defer metrics.ActiveRequests.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		metrics.RequestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// requireIdentKey rejects every request with 500 when the server has no
// client identification key configured.
func (s *Server) requireIdentKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := translate.RequireIdentKey(s.cfg.Auth.ClientIdentKey); err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
